package ytdl

// Status is the state of a download task or of one event within it.
type Status string

const (
	StatusPending     Status = "Pending"
	StatusDownloading Status = "Downloading"
	StatusProcessing  Status = "Processing"
	// StatusSaved marks one finished file. A playlist URL yields several.
	StatusSaved     Status = "Saved"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusError     Status = "Error"
)

func (s Status) String() string {
	return string(s)
}

// IsActive returns true while yt-dlp is working on the task.
func (s Status) IsActive() bool {
	return s == StatusDownloading || s == StatusProcessing || s == StatusSaved
}

// IsFinished returns true once the task can no longer change.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusError
}
