package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/gigurra/musicbox/cmd/common/ytdl"
)

const (
	tickInterval   = 100 * time.Millisecond
	rescanDebounce = 250 * time.Millisecond
	sliderStep     = 1.0
	sliderBigStep  = 10.0
)

type tickMsg time.Time

type downloadMsg ytdl.Event

type downloadsDoneMsg struct{}

type libraryChangedMsg struct{}

type watchErrMsg struct{ err error }

type ytdlpCheckedMsg struct {
	version string
	err     error
}

// Input modes
type inputMode int

const (
	modeNormal inputMode = iota
	modeURL
	modeRename
	modeMembership
	modeConfirmDelete
	modeSeek
)

type model struct {
	ctx       context.Context
	session   *jukebox.Session
	downloads *ytdl.Service
	watcher   *fsnotify.Watcher
	events    <-chan ytdl.Event

	cursor   int // selection in the track list
	width    int
	height   int
	mode     inputMode
	input    string
	pending  string // track awaiting delete confirmation
	download string // last download status line
	ytdlp    bool
	helpView bool
}

func newModel(ctx context.Context, session *jukebox.Session, downloads *ytdl.Service, watcher *fsnotify.Watcher) model {
	m := model{
		ctx:       ctx,
		session:   session,
		downloads: downloads,
		watcher:   watcher,
	}
	return m.selectCurrent()
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), checkYtdlpCmd(m.ctx, m.downloads)}
	if w := m.watchCmd(); w != nil {
		cmds = append(cmds, w)
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func checkYtdlpCmd(ctx context.Context, downloads *ytdl.Service) tea.Cmd {
	return func() tea.Msg {
		version, err := downloads.CheckInstalled(ctx)
		return ytdlpCheckedMsg{version: version, err: err}
	}
}

// waitForEvent reads the next download event. A closed channel ends the batch.
func waitForEvent(events <-chan ytdl.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return downloadsDoneMsg{}
		}
		return downloadMsg(e)
	}
}

// watchDirCmd waits for the audio directory to change, then lets the burst
// settle before reporting it once.
func watchDirCmd(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if !relevant(ev) {
					continue
				}
				settle := time.NewTimer(rescanDebounce)
				for {
					select {
					case _, ok := <-w.Events:
						if !ok {
							settle.Stop()
							return libraryChangedMsg{}
						}
					case <-settle.C:
						return libraryChangedMsg{}
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (m model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return watchDirCmd(m.watcher)
}

func relevant(ev fsnotify.Event) bool {
	if !jukebox.IsAudioFile(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// queue is what the track list shows: the current playlist in play order.
func (m model) queue() []string {
	return m.session.Playlist().Queue()
}

func (m model) selected() (string, bool) {
	q := m.queue()
	if m.cursor < 0 || m.cursor >= len(q) {
		return "", false
	}
	return q[m.cursor], true
}

// selectCurrent moves the selection onto the loaded track.
func (m model) selectCurrent() model {
	name, _ := m.session.Track()
	for i, n := range m.queue() {
		if n == name {
			m.cursor = i
			break
		}
	}
	return m.clampCursor()
}

func (m model) clampCursor() model {
	n := len(m.queue())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m model) report(err error) model {
	if err == nil {
		return m
	}
	slog.Warn("player action failed", "err", err)
	switch {
	case errors.Is(err, jukebox.ErrEmptyPlaylist):
		m.session.SetStatus("Queue is empty")
	case errors.Is(err, jukebox.ErrNoTrackLoaded):
		m.session.SetStatus("No track loaded")
	default:
		m.session.SetStatus(err.Error())
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if _, err := m.session.Tick(); err != nil {
			m = m.report(err)
		}
		return m, tickCmd()

	case ytdlpCheckedMsg:
		m.ytdlp = msg.err == nil
		if msg.err != nil {
			m.download = "yt-dlp not found, downloads disabled"
			slog.Warn("yt-dlp unavailable", "err", msg.err)
		} else {
			slog.Info("yt-dlp found", "version", msg.version)
		}

	case downloadMsg:
		return m.handleDownload(ytdl.Event(msg))

	case downloadsDoneMsg:
		m.events = nil
		common.Notify("musicbox", "Downloads finished")

	case libraryChangedMsg:
		if err := m.session.Library().Scan(); err != nil {
			m = m.report(err)
		}
		m = m.clampCursor()
		return m, m.watchCmd()

	case watchErrMsg:
		slog.Warn("directory watcher error", "err", msg.err)
		return m, m.watchCmd()
	}

	return m, nil
}

func (m model) handleDownload(e ytdl.Event) (tea.Model, tea.Cmd) {
	m.download = e.Message()
	switch e.Status {
	case ytdl.StatusDownloading:
		if e.Progress == 0 && m.session.ReleaseForDownload(e.VideoID) {
			m.session.SetStatus("Current track is being downloaded again")
		}
	case ytdl.StatusSaved:
		if t, err := m.session.TrackDownloaded(e.Filename); err != nil {
			m = m.report(err)
		} else {
			m.session.SetStatus(fmt.Sprintf("Added %s", t.Name))
		}
	case ytdl.StatusError:
		slog.Error("download failed", "url", e.URL, "err", e.Err)
		common.Notify("musicbox", fmt.Sprintf("Download failed: %s", e.URL))
	}
	m = m.clampCursor()
	if m.events == nil {
		return m, nil
	}
	return m, waitForEvent(m.events)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.helpView {
		m.helpView = false
		return m, nil
	}

	switch m.mode {
	case modeURL, modeRename:
		return m.handleInput(msg)
	case modeMembership:
		m.mode = modeNormal
		if name, ok := m.slot(msg.String()); ok {
			_, err := m.session.ToggleMembership(name)
			m = m.report(err)
		}
		return m, nil
	case modeConfirmDelete:
		m.mode = modeNormal
		if msg.String() == "y" || msg.String() == "Y" {
			m = m.report(m.session.DeleteTrack(m.pending))
			m = m.clampCursor()
		} else {
			m.session.SetStatus("Delete cancelled")
		}
		m.pending = ""
		return m, nil
	case modeSeek:
		return m.handleSeek(msg)
	}

	key := msg.String()
	if name, ok := m.slot(key); ok {
		m.session.ChangePlaylist(name)
		return m.selectCurrent(), nil
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case "?":
		m.helpView = true
	case "up", "k":
		m.cursor--
		m = m.clampCursor()
	case "down", "j":
		m.cursor++
		m = m.clampCursor()
	case "pgup":
		m.cursor -= m.listHeight()
		m = m.clampCursor()
	case "pgdown":
		m.cursor += m.listHeight()
		m = m.clampCursor()
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = len(m.queue()) - 1
		m = m.clampCursor()
	case "enter":
		if name, ok := m.selected(); ok {
			m = m.report(m.session.PlayTrack(name))
		}
	case " ":
		m = m.report(m.session.TogglePlay())
	case "n":
		m = m.report(m.session.Next())
		m = m.selectCurrent()
	case "p":
		m = m.report(m.session.Previous())
		m = m.selectCurrent()
	case "left", "h":
		m = m.report(m.session.Back())
	case "right", "l":
		m = m.report(m.session.Forward())
	case "b":
		m = m.report(m.session.Rewind())
	case "g":
		if _, file := m.session.Track(); file != "" {
			m.session.BeginDrag()
			m.mode = modeSeek
		}
	case "s":
		m.session.ToggleShuffle()
		m = m.selectCurrent()
	case "+", "=":
		m.session.VolumeUp()
	case "-":
		m.session.VolumeDown()
	case "]":
		m.session.FadeUp()
	case "[":
		m.session.FadeDown()
	case "a":
		m.session.ChangePlaylist(jukebox.AllPlaylist)
		m = m.selectCurrent()
	case "m":
		if _, file := m.session.Track(); file == "" {
			m.session.SetStatus("No track loaded")
		} else {
			m.mode = modeMembership
		}
	case "r":
		if m.session.Playlist().Name() == jukebox.AllPlaylist {
			m.session.SetStatus("All cannot be renamed")
		} else {
			m.mode = modeRename
			m.input = m.session.Playlist().Name()
		}
	case "d":
		if name, ok := m.selected(); ok {
			m.pending = name
			m.mode = modeConfirmDelete
		}
	case "u":
		if !m.ytdlp {
			m.session.SetStatus("yt-dlp not found, downloads disabled")
		} else {
			m.mode = modeURL
			m.input = ""
		}
	case "c":
		if m.downloads.Running() {
			removed, err := m.downloads.Cancel(2 * time.Second)
			m = m.report(err)
			slog.Info("download cancelled", "partials", len(removed))
		}
	case "y":
		if name, ok := m.selected(); ok {
			m = m.copyPath(name)
		}
	}
	return m, nil
}

// slot maps the keys 0-9 to playlist slots.
func (m model) slot(key string) (string, bool) {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return "", false
	}
	return m.session.Library().Slot(int(key[0] - '0'))
}

func (m model) copyPath(name string) model {
	t, err := m.session.Library().FindTrack(name)
	if err != nil {
		return m.report(err)
	}
	path := m.session.Library().Path(t.Filename)
	if err := clipboard.WriteAll(path); err != nil {
		return m.report(fmt.Errorf("copy to clipboard: %w", err))
	}
	m.session.SetStatus("Copied " + path)
	return m
}

func (m model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.input = ""
	case "enter":
		mode, input := m.mode, strings.TrimSpace(m.input)
		m.mode = modeNormal
		m.input = ""
		if mode == modeRename {
			m = m.report(m.session.RenamePlaylist(m.session.Playlist().Name(), input))
			return m, nil
		}
		return m.startDownload(input)
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case "ctrl+u":
		m.input = ""
	default:
		switch msg.Type {
		case tea.KeySpace:
			m.input += " "
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m model) startDownload(input string) (tea.Model, tea.Cmd) {
	urls := ytdl.SplitURLs(input)
	if len(urls) == 0 {
		m.session.SetStatus("No URLs given")
		return m, nil
	}
	events, err := m.downloads.Start(m.ctx, urls)
	if err != nil {
		if errors.Is(err, ytdl.ErrBusy) {
			m.session.SetStatus("A download is already running")
			return m, nil
		}
		return m.report(err), nil
	}
	m.events = events
	m.download = fmt.Sprintf("Starting %d download(s)", len(urls))
	return m, waitForEvent(events)
}

// handleSeek moves the slider without touching playback until enter.
func (m model) handleSeek(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.session.NowPlaying().Slider
	switch msg.String() {
	case "left", "h":
		m.session.DragTo(v - sliderStep)
	case "right", "l":
		m.session.DragTo(v + sliderStep)
	case "H", "shift+left":
		m.session.DragTo(v - sliderBigStep)
	case "L", "shift+right":
		m.session.DragTo(v + sliderBigStep)
	case "enter", "g":
		m.mode = modeNormal
		m = m.report(m.session.EndDrag())
	case "esc", "q":
		m.mode = modeNormal
		m.session.CancelDrag()
	}
	return m, nil
}
