package ytdl

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// OutputTemplate names files "<title, at most 82 chars>_[<video id>].<ext>".
const OutputTemplate = "%(title).82s_[%(id)s].%(ext)s"

// Markers prefixed to the lines we ask yt-dlp to print, so they can be told
// apart from its own output.
const (
	markerItem     = "mbx-item"
	markerProgress = "mbx-progress"
	markerDone     = "mbx-done"
)

// BuildArgs returns the yt-dlp arguments for downloading url as mp3 into dir.
func BuildArgs(dir, url string) []string {
	return []string{
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--restrict-filenames",
		"--windows-filenames",
		"-P", dir,
		"-o", OutputTemplate,
		"--newline",
		"--progress",
		"--no-simulate",
		"--no-warnings",
		"--print", "before_dl:" + markerItem + " %(playlist_index|1)s %(n_entries|1)s %(id)s %(title)s",
		"--print", "after_move:" + markerDone + " %(filepath)s",
		"--progress-template", "download:" + markerProgress + " %(progress.downloaded_bytes)s %(progress.total_bytes)s %(progress.total_bytes_estimate)s",
		url,
	}
}

type lineKind int

const (
	lineOther lineKind = iota
	lineItem
	lineProgress
	lineDone
	lineError
)

// ytdlpLine is one parsed line of yt-dlp output.
type ytdlpLine struct {
	kind     lineKind
	index    int
	count    int
	id       string
	title    string
	fraction float64
	filename string
	message  string
}

func parseLine(raw string) ytdlpLine {
	line := strings.TrimSpace(raw)
	marker, rest, _ := strings.Cut(line, " ")

	switch marker {
	case markerItem:
		parts := strings.SplitN(rest, " ", 4)
		if len(parts) < 3 {
			return ytdlpLine{kind: lineOther}
		}
		l := ytdlpLine{kind: lineItem, index: atoiOr(parts[0], 1), count: atoiOr(parts[1], 1), id: parts[2]}
		if len(parts) == 4 {
			l.title = parts[3]
		}
		return l

	case markerProgress:
		parts := strings.Fields(rest)
		if len(parts) < 3 {
			return ytdlpLine{kind: lineOther}
		}
		done, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return ytdlpLine{kind: lineOther}
		}
		total, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || total <= 0 {
			total, err = strconv.ParseFloat(parts[2], 64)
		}
		if err != nil || total <= 0 {
			return ytdlpLine{kind: lineProgress, fraction: 0}
		}
		return ytdlpLine{kind: lineProgress, fraction: min(1, done/total)}

	case markerDone:
		return ytdlpLine{kind: lineDone, filename: filepath.Base(rest)}
	}

	if msg, ok := strings.CutPrefix(line, "ERROR:"); ok {
		return ytdlpLine{kind: lineError, message: strings.TrimSpace(msg)}
	}
	return ytdlpLine{kind: lineOther}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// runFunc runs a command and feeds each line of its combined output to onLine.
type runFunc func(ctx context.Context, binary string, args []string, onLine func(string)) error

func execRun(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = 2 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return err
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		pw.Close()
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
	_, _ = io.Copy(io.Discard, pr)

	err := <-waitErr
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
