package jukebox

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// AudioExt is the extension the downloader produces.
const AudioExt = ".mp3"

// DisplayName derives the human readable title from a downloaded filename:
// "Some_Song_[dQw4w9WgXcQ].mp3" becomes "Some Song".
func DisplayName(filename string) string {
	base := filepath.Base(filename)
	if i := strings.LastIndex(base, "["); i > 0 {
		base = base[:i]
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.TrimRight(base, "_ ")
	return strings.ReplaceAll(base, "_", " ")
}

// ExternalID returns the video id embedded between the last brackets of a
// filename, or "" when there is none.
func ExternalID(filename string) string {
	base := filepath.Base(filename)
	open := strings.LastIndex(base, "[")
	end := strings.LastIndex(base, "]")
	if open < 0 || end < open {
		return ""
	}
	return base[open+1 : end]
}

// IsAudioFile reports whether a directory entry is a finished audio file.
// Partial downloads and dotfiles are skipped.
func IsAudioFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), AudioExt)
}

// FormatClock renders d as h:mm:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, total/60%60, total%60)
}
