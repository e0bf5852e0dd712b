package jukebox

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/musicbox/cmd/common/settings"
	"github.com/spf13/afero"
)

const (
	HistorySize = 100
	SeekStep    = 5 * time.Second
	VolumeStep  = 0.1
	FadeStep    = settings.FadeStepMs * time.Millisecond
)

// Session is the player state behind the UI: what is loaded, where the play
// head is and the transport preferences. It is driven from a single event
// loop and holds no locks.
type Session struct {
	lib     *Library
	engine  Engine
	tracker *Tracker

	playlist  *Playlist
	track     string // display name of the loaded track
	filename  string
	shuffle   bool
	volume    float64
	fade      time.Duration
	history   []string // most recent last
	dragging  bool
	dragValue float64
	status    string

	resumeOnRelease bool // a transition happened mid-drag
}

// NowPlaying is a snapshot for rendering.
type NowPlaying struct {
	Title      string
	Filename   string
	Playlist   string
	State      PlaybackState
	Position   time.Duration
	Duration   time.Duration
	Slider     float64 // 0..100; holds the drag value while dragging
	QueueIndex int
	QueueLen   int
	Shuffle    bool
	Volume     float64
	Fade       time.Duration
	Dragging   bool
	Status     string
}

func NewSession(lib *Library, engine Engine, now func() time.Time) *Session {
	return &Session{
		lib:      lib,
		engine:   engine,
		tracker:  NewTracker(now),
		playlist: lib.All(),
		volume:   settings.DefaultVolume,
		fade:     settings.DefaultFadeMs * time.Millisecond,
	}
}

// Open scans the audio directory, builds the playlists from st and restores
// the last session. A track that can no longer be restored is not fatal.
func Open(fsys afero.Fs, dir string, engine Engine, st *settings.Settings) (*Session, error) {
	lib := NewLibrary(fsys, dir)
	if err := lib.Scan(); err != nil {
		return nil, err
	}
	lib.LoadPlaylists(st.PlaylistOrder, st.Playlists)

	s := NewSession(lib, engine, time.Now)
	if err := s.Restore(st); err != nil {
		slog.Warn("could not restore last track", "err", err)
		s.status = fmt.Sprintf("Could not restore %q", st.CurrentTrack)
	}
	return s, nil
}

func (s *Session) Library() *Library { return s.lib }

func (s *Session) Playlist() *Playlist { return s.playlist }

// Track returns the loaded track's display name and filename.
func (s *Session) Track() (name, filename string) { return s.track, s.filename }

func (s *Session) Status() string { return s.status }

func (s *Session) SetStatus(status string) { s.status = status }

func (s *Session) Shuffle() bool { return s.shuffle }

func (s *Session) Volume() float64 { return s.volume }

func (s *Session) Fade() time.Duration { return s.fade }

func (s *Session) Dragging() bool { return s.dragging }

func (s *Session) History() []string { return append([]string(nil), s.history...) }

func (s *Session) NowPlaying() NowPlaying {
	np := NowPlaying{
		Title:      s.track,
		Filename:   s.filename,
		Playlist:   s.playlist.Name(),
		State:      s.tracker.State(),
		Position:   s.tracker.Position(),
		Duration:   s.tracker.Duration(),
		Slider:     s.tracker.Fraction(),
		QueueIndex: s.playlist.Cursor(),
		QueueLen:   s.playlist.Len(),
		Shuffle:    s.shuffle,
		Volume:     s.volume,
		Fade:       s.fade,
		Dragging:   s.dragging,
		Status:     s.status,
	}
	if s.dragging {
		np.Slider = s.dragValue
	}
	return np
}

// load opens name paused at 0. The name is looked up in the current
// playlist first, then in All.
func (s *Session) load(name string) error {
	file, err := s.playlist.File(name)
	if err != nil {
		if file, err = s.lib.All().File(name); err != nil {
			return err
		}
	}

	s.engine.Stop()
	s.engine.Unload()
	d, err := s.engine.Load(s.lib.Path(file))
	if err != nil {
		s.clearTrack()
		s.status = fmt.Sprintf("Could not load %s", name)
		return fmt.Errorf("load %s: %w", name, err)
	}
	s.track, s.filename = name, file
	s.tracker.Load(d)
	s.engine.SetVolume(s.volume)
	if err := s.engine.Play(s.fade); err != nil {
		s.status = fmt.Sprintf("Could not play %s", name)
		return fmt.Errorf("play %s: %w", name, err)
	}
	s.engine.Pause()
	slog.Debug("loaded track", "name", name, "file", file, "duration", d)
	return nil
}

func (s *Session) clearTrack() {
	s.track, s.filename = "", ""
	s.tracker.Unload()
}

func (s *Session) resume() {
	s.engine.Resume()
	s.tracker.Resume()
}

func (s *Session) pause() {
	s.engine.Pause()
	s.tracker.Pause()
}

// PlayTrack loads name, points the queue at it and starts playing.
func (s *Session) PlayTrack(name string) error {
	if err := s.load(name); err != nil {
		return err
	}
	_ = s.playlist.Locate(name)
	s.status = ""
	s.resume()
	return nil
}

// TogglePlay pauses a playing track and resumes a paused one. A track that
// ran to its end starts over.
func (s *Session) TogglePlay() error {
	if s.track == "" {
		return ErrNoTrackLoaded
	}
	switch s.tracker.State() {
	case StatePlaying:
		s.pause()
	case StatePaused:
		s.resume()
	case StateStopped:
		return s.PlayTrack(s.track)
	}
	return nil
}

// Rewind jumps back to the start of the track.
func (s *Session) Rewind() error {
	if s.track == "" {
		return ErrNoTrackLoaded
	}
	s.engine.Rewind()
	s.tracker.Seek(0)
	return nil
}

func (s *Session) Forward() error { return s.seekBy(SeekStep) }

func (s *Session) Back() error { return s.seekBy(-SeekStep) }

func (s *Session) seekBy(delta time.Duration) error {
	if s.track == "" {
		return ErrNoTrackLoaded
	}
	s.tracker.SeekBy(delta)
	return s.engine.SetPosition(s.tracker.Position())
}

// SeekSlider seeks to a 0..100 slider value.
func (s *Session) SeekSlider(v float64) error {
	if s.track == "" {
		return ErrNoTrackLoaded
	}
	s.tracker.SeekFraction(v)
	return s.engine.SetPosition(s.tracker.Position())
}

// BeginDrag freezes the slider at its current value. While dragging, track
// transitions load the next track without starting it.
func (s *Session) BeginDrag() {
	s.dragging = true
	s.resumeOnRelease = false
	s.dragValue = s.tracker.Fraction()
}

// DragTo moves the frozen slider without seeking.
func (s *Session) DragTo(v float64) {
	if s.dragging {
		s.dragValue = max(0, min(100, v))
	}
}

// EndDrag releases the slider and seeks to where it was dropped. A track
// loaded during the drag starts playing from there.
func (s *Session) EndDrag() error {
	if !s.dragging {
		return nil
	}
	s.dragging = false
	if s.track == "" {
		return nil
	}
	err := s.SeekSlider(s.dragValue)
	s.releaseResume()
	return err
}

func (s *Session) CancelDrag() {
	s.dragging = false
	if s.track != "" {
		s.releaseResume()
	}
}

func (s *Session) releaseResume() {
	if s.resumeOnRelease {
		s.resumeOnRelease = false
		s.resume()
	}
}

// Next skips to the following track with a fade.
func (s *Session) Next() error { return s.Transition() }

// Previous replays the most recent track from the history, or steps the
// queue back when the history is empty.
func (s *Session) Previous() error {
	for len(s.history) > 0 {
		prev := s.history[len(s.history)-1]
		s.history = s.history[:len(s.history)-1]
		err := s.PlayTrack(prev)
		if errors.Is(err, ErrTrackNotFound) {
			continue
		}
		return err
	}
	name, err := s.playlist.Advance(-1)
	if err != nil {
		s.status = "Queue is empty"
		return err
	}
	return s.PlayTrack(name)
}

// SetShuffle turns shuffle on or off for the current playlist. The loaded
// track stays current either way.
func (s *Session) SetShuffle(on bool) {
	s.shuffle = on
	s.reorder()
	if on {
		s.status = "Shuffle on"
	} else {
		s.status = "Shuffle off"
	}
}

func (s *Session) ToggleShuffle() { s.SetShuffle(!s.shuffle) }

func (s *Session) reorder() {
	if s.playlist.Contains(s.track) {
		_ = s.playlist.Locate(s.track)
	}
	if s.shuffle {
		s.playlist.Shuffle()
	} else {
		s.playlist.Unshuffle()
	}
}

func (s *Session) SetVolume(v float64) {
	s.volume = settings.ClampVolume(v)
	s.engine.SetVolume(s.volume)
	s.status = fmt.Sprintf("Volume %.0f%%", s.volume*100)
}

func (s *Session) VolumeUp() { s.SetVolume(s.volume + VolumeStep) }

func (s *Session) VolumeDown() { s.SetVolume(s.volume - VolumeStep) }

func (s *Session) SetFade(d time.Duration) {
	s.fade = time.Duration(settings.ClampFade(int(d.Milliseconds()))) * time.Millisecond
	s.status = fmt.Sprintf("Fade %dms", s.fade.Milliseconds())
}

func (s *Session) FadeUp() { s.SetFade(s.fade + FadeStep) }

func (s *Session) FadeDown() { s.SetFade(s.fade - FadeStep) }

// ChangePlaylist switches the queue to another playlist. Unknown names fall
// back to All. The loaded track keeps playing.
func (s *Session) ChangePlaylist(name string) {
	s.playlist = s.lib.Resolve(name)
	s.reorder()
	s.status = fmt.Sprintf("Playlist %s", s.playlist.Name())
}

// ToggleMembership adds the loaded track to playlist or removes it.
func (s *Session) ToggleMembership(playlist string) (bool, error) {
	if s.filename == "" {
		return false, ErrNoTrackLoaded
	}
	member, err := s.lib.ToggleMembership(playlist, s.filename)
	if err != nil {
		return false, err
	}
	if member {
		s.status = fmt.Sprintf("Added to %s", playlist)
	} else {
		s.status = fmt.Sprintf("Removed from %s", playlist)
	}
	return member, nil
}

// RenamePlaylist renames a named playlist.
func (s *Session) RenamePlaylist(from, to string) error {
	if err := s.lib.RenamePlaylist(from, to); err != nil {
		return err
	}
	s.status = fmt.Sprintf("Renamed %s to %s", from, to)
	return nil
}

// DeleteTrack removes a track from disk. When it is the loaded track the
// engine is stopped and unloaded before the file is touched.
func (s *Session) DeleteTrack(nameOrFile string) error {
	t, err := s.lib.FindTrack(nameOrFile)
	if err != nil {
		return err
	}
	if t.Filename == s.filename {
		s.engine.Stop()
		s.engine.Unload()
		s.clearTrack()
	}
	if err := s.lib.DeleteFile(t.Filename); err != nil {
		return err
	}
	s.history = removeAll(s.history, t.Name)
	s.status = fmt.Sprintf("Deleted %s", t.Name)
	return nil
}

// ReleaseForDownload frees the loaded file when a download is about to
// overwrite it. The next Tick then moves on to the following track.
func (s *Session) ReleaseForDownload(videoID string) bool {
	if videoID == "" || s.filename == "" || ExternalID(s.filename) != videoID {
		return false
	}
	s.engine.Stop()
	s.engine.Unload()
	slog.Info("released track for re-download", "file", s.filename)
	return true
}

// TrackDownloaded adds a finished download to the library.
func (s *Session) TrackDownloaded(filename string) (*Track, error) {
	return s.lib.AddFile(filename)
}

// Restore applies saved settings: transport preferences, the playlist and
// the track, left paused at its saved position.
func (s *Session) Restore(st *settings.Settings) error {
	s.volume = settings.ClampVolume(st.Volume)
	s.engine.SetVolume(s.volume)
	s.fade = time.Duration(settings.ClampFade(st.FadeMs)) * time.Millisecond
	s.shuffle = st.Shuffle
	s.playlist = s.lib.Resolve(st.CurrentPlaylist)

	name := st.CurrentTrack
	if name == "" || !s.lib.All().Contains(name) {
		s.playlist.SetCursor(st.QueuePosition)
		cur, err := s.playlist.Current()
		if err != nil {
			return nil
		}
		name = cur
	}

	if err := s.load(name); err != nil {
		return err
	}
	s.reorder()
	pos := time.Duration(st.TrackPosition * float64(time.Second))
	s.tracker.Seek(pos)
	return s.engine.SetPosition(s.tracker.Position())
}

// Export writes the session into st for saving.
func (s *Session) Export(st *settings.Settings) {
	st.CurrentPlaylist = s.playlist.Name()
	st.CurrentTrack = s.track
	st.TrackPosition = s.tracker.Position().Seconds()
	st.QueuePosition = s.playlist.Cursor()
	st.Shuffle = s.shuffle
	st.Volume = s.volume
	st.FadeMs = int(s.fade.Milliseconds())
	st.PlaylistOrder, st.Playlists = s.lib.Export()
}

func (s *Session) Close() error {
	return s.engine.Close()
}

func removeAll(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
