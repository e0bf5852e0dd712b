// Package ytdl downloads YouTube audio with the yt-dlp command line tool and
// reports progress as a stream of events.
package ytdl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GiGurra/cmder"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrYtdlpNotInstalled = errors.New("yt-dlp not found, install it from https://github.com/yt-dlp/yt-dlp")
	ErrBusy              = errors.New("a download is already running")
	ErrNoURLs            = errors.New("no urls given")
	ErrCancelled         = errors.New("download cancelled")
)

// DownloadError is a failed yt-dlp run for one url.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Task is one url handed to yt-dlp.
type Task struct {
	ID         string
	URL        string
	Status     Status
	Title      string
	Files      []string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Event is a progress update for the task at position Index (1-based) of a
// batch of Total urls. Item and Items count entries within a playlist url.
type Event struct {
	TaskID   string
	URL      string
	Index    int
	Total    int
	Item     int
	Items    int
	VideoID  string
	Title    string
	Status   Status
	Progress float64
	Filename string
	Err      error
}

// Message renders the event for a one line status display.
func (e Event) Message() string {
	title := e.Title
	if title == "" {
		title = e.URL
	}
	switch e.Status {
	case StatusPending:
		return fmt.Sprintf("Queued %s (%d/%d)", title, e.Index, e.Total)
	case StatusDownloading:
		return fmt.Sprintf("Downloading %s (%d/%d) %.1f%%", title, e.Item, e.Items, e.Progress*100)
	case StatusProcessing:
		return fmt.Sprintf("%s finished, processing...", title)
	case StatusSaved:
		return fmt.Sprintf("Saved %s", e.Filename)
	case StatusCompleted:
		return "Success!"
	case StatusCancelled:
		return "Download cancelled"
	case StatusError:
		return fmt.Sprintf("Error: %v", e.Err)
	}
	return string(e.Status)
}

// Service runs one batch of downloads at a time.
type Service struct {
	mu    sync.RWMutex
	tasks map[string]*Task

	fs       afero.Fs
	dir      string
	binary   string
	run      runFunc
	retries  int
	backoff  time.Duration
	running  atomic.Bool
	stopping atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewService(dir string) *Service {
	return &Service{
		tasks:   make(map[string]*Task),
		fs:      afero.NewOsFs(),
		dir:     dir,
		binary:  "yt-dlp",
		run:     execRun,
		retries: 1,
		backoff: 2 * time.Second,
	}
}

func (s *Service) Dir() string { return s.dir }

// SetBinary points the service at a yt-dlp executable other than the one on PATH.
func (s *Service) SetBinary(path string) {
	if path != "" {
		s.binary = path
	}
}

// CheckInstalled runs `yt-dlp --version` and returns the version string.
func (s *Service) CheckInstalled(ctx context.Context) (string, error) {
	result := cmder.New(s.binary, "--version").
		WithAttemptTimeout(5 * time.Second).
		Run(ctx)
	if result.Err != nil {
		return "", fmt.Errorf("%w: %v", ErrYtdlpNotInstalled, result.Err)
	}
	return strings.TrimSpace(result.StdOut), nil
}

func (s *Service) Running() bool { return s.running.Load() }

// Tasks returns a copy of every task seen by this service.
func (s *Service) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, *t)
	}
	return tasks
}

// Start downloads urls one after another in the background. The returned
// channel is closed when the batch ends and must be drained by the caller.
func (s *Service) Start(ctx context.Context, urls []string) (<-chan Event, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()
	s.stopping.Store(false)

	tasks := make([]*Task, len(urls))
	s.mu.Lock()
	for i, url := range urls {
		tasks[i] = &Task{ID: "task-" + uuid.NewString(), URL: url, Status: StatusPending}
		s.tasks[tasks[i].ID] = tasks[i]
	}
	s.mu.Unlock()

	events := make(chan Event, 64)
	go func() {
		defer func() {
			cancel()
			close(events)
			close(done)
			s.running.Store(false)
		}()
		for i, task := range tasks {
			base := Event{TaskID: task.ID, URL: task.URL, Index: i + 1, Total: len(tasks), Item: 1, Items: 1, VideoID: ExtractVideoID(task.URL)}
			if s.stopping.Load() || ctx.Err() != nil {
				s.finish(task, StatusCancelled, ErrCancelled)
				events <- cancelled(base)
				continue
			}
			events <- with(base, StatusPending)
			s.startTask(ctx, task, base, events)
		}
	}()
	return events, nil
}

func with(e Event, status Status) Event {
	e.Status = status
	return e
}

func cancelled(e Event) Event {
	e = with(e, StatusCancelled)
	e.Err = ErrCancelled
	return e
}

func (s *Service) startTask(ctx context.Context, task *Task, base Event, events chan<- Event) {
	s.mu.Lock()
	task.Status = StatusDownloading
	task.StartedAt = time.Now()
	s.mu.Unlock()

	emit := func(e Event) {
		s.mu.Lock()
		task.Status = e.Status
		if e.Title != "" {
			task.Title = e.Title
		}
		if e.Filename != "" {
			task.Files = append(task.Files, e.Filename)
		}
		s.mu.Unlock()
		events <- e
	}

	err := s.downloadWithRetry(ctx, task, base, emit)
	switch {
	case err == nil:
		s.finish(task, StatusCompleted, nil)
		events <- with(base, StatusCompleted)
	case ctx.Err() != nil:
		s.finish(task, StatusCancelled, ErrCancelled)
		events <- cancelled(base)
	default:
		s.finish(task, StatusError, err)
		e := with(base, StatusError)
		e.Err = err
		events <- e
	}
}

func (s *Service) finish(task *Task, status Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.Status = status
	task.Err = err
	task.FinishedAt = time.Now()
}

// downloadWithRetry retries a failed run once after a short backoff.
func (s *Service) downloadWithRetry(ctx context.Context, task *Task, base Event, emit func(Event)) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			slog.Info("retrying download", "task", task.ID, "attempt", attempt+1)
		}

		err := s.download(ctx, task, base, emit)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("download attempt failed", "task", task.ID, "attempt", attempt+1, "err", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func (s *Service) download(ctx context.Context, task *Task, base Event, emit func(Event)) error {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	cur := base
	var lastError string
	err := s.run(ctx, s.binary, BuildArgs(s.dir, task.URL), func(raw string) {
		l := parseLine(raw)
		switch l.kind {
		case lineItem:
			cur.Item, cur.Items = l.index, l.count
			cur.VideoID, cur.Title = l.id, l.title
			cur.Filename, cur.Progress = "", 0
			emit(with(cur, StatusDownloading))
		case lineProgress:
			cur.Progress = l.fraction
			if l.fraction >= 1 {
				emit(with(cur, StatusProcessing))
			} else {
				emit(with(cur, StatusDownloading))
			}
		case lineDone:
			cur.Filename = l.filename
			emit(with(cur, StatusSaved))
		case lineError:
			lastError = l.message
		}
	})
	if err != nil {
		if lastError != "" {
			err = fmt.Errorf("%w: %s", err, lastError)
		}
		return &DownloadError{URL: task.URL, Err: err}
	}
	return nil
}

// Cancel stops the running batch: no further urls are started, the current
// yt-dlp process is killed and partial files are removed. It waits at most
// wait for the worker to wind down.
func (s *Service) Cancel(wait time.Duration) ([]string, error) {
	s.stopping.Store(true)

	s.mu.RLock()
	cancel, done := s.cancel, s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(wait):
			slog.Warn("download worker did not stop in time", "wait", wait)
		}
	}
	return SweepPartials(s.fs, s.dir)
}

// SweepPartials removes the leftovers of interrupted downloads.
func SweepPartials(fsys afero.Fs, dir string) ([]string, error) {
	var removed []string
	for _, pattern := range []string{"*.part", "*.part-Frag*", "*.ytdl"} {
		matches, err := afero.Glob(fsys, filepath.Join(dir, pattern))
		if err != nil {
			return removed, err
		}
		for _, m := range matches {
			if err := fsys.Remove(m); err != nil {
				return removed, fmt.Errorf("remove %s: %w", m, err)
			}
			removed = append(removed, filepath.Base(m))
		}
	}
	return removed, nil
}
