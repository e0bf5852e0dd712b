package jukebox

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/gigurra/musicbox/cmd/common/settings"
	"github.com/spf13/afero"
)

// callLog is shared between the fake engine and the recording filesystem
// so tests can assert on ordering across both.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type fakeEngine struct {
	log       *callLog
	durations map[string]time.Duration
	loaded    string
	playing   bool
	busy      bool
	volume    float64
	position  time.Duration
	loadErr   error
}

func newFakeEngine(log *callLog) *fakeEngine {
	return &fakeEngine{log: log, durations: map[string]time.Duration{}}
}

func (e *fakeEngine) Load(path string) (time.Duration, error) {
	e.log.add("load %s", path)
	if e.loadErr != nil {
		return 0, e.loadErr
	}
	e.loaded = path
	if d, ok := e.durations[path]; ok {
		return d, nil
	}
	return 3 * time.Minute, nil
}

func (e *fakeEngine) Play(fade time.Duration) error {
	e.log.add("play %v", fade)
	e.playing, e.busy = true, true
	return nil
}

func (e *fakeEngine) Pause() {
	e.log.add("pause")
	e.playing, e.busy = false, false
}

func (e *fakeEngine) Resume() {
	e.log.add("resume")
	if e.loaded != "" {
		e.playing, e.busy = true, true
	}
}

func (e *fakeEngine) Stop() {
	e.log.add("stop")
	e.playing, e.busy = false, false
}

func (e *fakeEngine) Unload() {
	e.log.add("unload")
	e.loaded = ""
}

func (e *fakeEngine) SetPosition(p time.Duration) error {
	e.log.add("position %v", p)
	e.position = p
	return nil
}

func (e *fakeEngine) Rewind() {
	e.log.add("rewind")
	e.position = 0
}

func (e *fakeEngine) SetVolume(v float64) { e.volume = v }

func (e *fakeEngine) Fadeout(d time.Duration) {
	e.log.add("fadeout %v", d)
	e.playing, e.busy = false, false
	e.loaded = ""
}

func (e *fakeEngine) Busy() bool { return e.busy }

func (e *fakeEngine) Close() error { return nil }

// recordingFs logs removals into the shared call log.
type recordingFs struct {
	afero.Fs
	log *callLog
}

func (f *recordingFs) Remove(name string) error {
	f.log.add("remove %s", name)
	return f.Fs.Remove(name)
}

type sessionFixture struct {
	t       *testing.T
	session *Session
	engine  *fakeEngine
	clock   *fakeClock
	log     *callLog
	fs      afero.Fs
}

func newSessionFixture(t *testing.T, names ...string) *sessionFixture {
	t.Helper()
	log := &callLog{}
	fsys := &recordingFs{Fs: afero.NewMemMapFs(), log: log}
	for _, n := range names {
		if err := afero.WriteFile(fsys, "/music/"+n+"_[id"+n+"].mp3", []byte("id3"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	lib := NewLibrary(fsys, "/music")
	if err := lib.Scan(); err != nil {
		t.Fatal(err)
	}
	lib.LoadPlaylists([]string{"P"}, nil)

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	engine := newFakeEngine(log)
	return &sessionFixture{
		t:       t,
		session: NewSession(lib, engine, clock.Now),
		engine:  engine,
		clock:   clock,
		log:     log,
		fs:      fsys,
	}
}

func TestSessionPlayTrack(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C")

	if err := f.session.PlayTrack("B"); err != nil {
		t.Fatalf("PlayTrack() error = %v", err)
	}
	np := f.session.NowPlaying()
	if np.Title != "B" || np.State != StatePlaying || np.QueueIndex != 1 {
		t.Errorf("NowPlaying() = %+v", np)
	}
	if f.engine.loaded != "/music/B_[idB].mp3" || !f.engine.playing {
		t.Errorf("engine loaded = %q playing = %v", f.engine.loaded, f.engine.playing)
	}

	if err := f.session.PlayTrack("Z"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("PlayTrack(unknown) error = %v, want ErrTrackNotFound", err)
	}
}

func TestSessionTogglePlayTracksPosition(t *testing.T) {
	f := newSessionFixture(t, "A")
	if err := f.session.TogglePlay(); !errors.Is(err, ErrNoTrackLoaded) {
		t.Errorf("TogglePlay() without track error = %v", err)
	}

	f.session.PlayTrack("A")
	f.clock.Advance(30 * time.Second)
	f.session.TogglePlay()
	f.clock.Advance(time.Hour)

	np := f.session.NowPlaying()
	if np.State != StatePaused || np.Position != 30*time.Second {
		t.Errorf("after pause: state = %v position = %v", np.State, np.Position)
	}

	f.session.TogglePlay()
	if f.session.NowPlaying().State != StatePlaying {
		t.Error("TogglePlay() should resume")
	}
}

func TestSessionSeeking(t *testing.T) {
	f := newSessionFixture(t, "A")
	f.engine.durations["/music/A_[idA].mp3"] = 200 * time.Second
	f.session.PlayTrack("A")
	f.clock.Advance(10 * time.Second)

	f.session.Forward()
	if f.engine.position != 15*time.Second {
		t.Errorf("engine position after Forward = %v, want 15s", f.engine.position)
	}
	f.session.Back()
	f.session.Back()
	f.session.Back()
	if f.engine.position != 0 {
		t.Errorf("engine position after Back x3 = %v, want 0", f.engine.position)
	}

	f.session.SeekSlider(50)
	if got := f.session.NowPlaying().Position; got != 100*time.Second {
		t.Errorf("Position after slider 50 = %v, want 100s", got)
	}
	f.session.SeekSlider(100)
	if got := f.session.NowPlaying().Position; got != 200*time.Second {
		t.Errorf("Position after slider 100 = %v, want 200s", got)
	}

	f.session.Rewind()
	if got := f.session.NowPlaying().Position; got != 0 {
		t.Errorf("Position after Rewind = %v, want 0", got)
	}
}

func TestSessionTickTransitions(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C")
	f.session.SetFade(500 * time.Millisecond)
	f.session.PlayTrack("C")

	if moved, _ := f.session.Tick(); moved {
		t.Fatal("Tick() while engine busy should not transition")
	}

	f.engine.busy = false
	moved, err := f.session.Tick()
	if err != nil || !moved {
		t.Fatalf("Tick() = %v, %v, want transition", moved, err)
	}

	np := f.session.NowPlaying()
	if np.Title != "A" || np.QueueIndex != 0 {
		t.Errorf("after wrap: title = %q index = %d, want A at 0", np.Title, np.QueueIndex)
	}
	if np.State != StatePlaying || np.Position != 0 {
		t.Errorf("after transition: state = %v position = %v", np.State, np.Position)
	}
	if want := []string{"C"}; !slices.Equal(f.session.History(), want) {
		t.Errorf("History() = %v, want %v", f.session.History(), want)
	}
	if !slices.Contains(f.log.calls, "fadeout 500ms") {
		t.Errorf("calls = %v, want a fadeout", f.log.calls)
	}
}

func TestSessionTransitionWhileDragging(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	f.session.BeginDrag()
	f.session.DragTo(40)

	f.engine.busy = false
	f.session.Tick()

	np := f.session.NowPlaying()
	if np.Title != "B" || np.State != StatePaused {
		t.Errorf("title = %q state = %v, want B paused", np.Title, np.State)
	}
	if np.Slider != 40 {
		t.Errorf("Slider = %v, want frozen drag value 40", np.Slider)
	}

	f.session.EndDrag()
	if f.session.Dragging() {
		t.Error("Dragging() after EndDrag")
	}
	np = f.session.NowPlaying()
	if np.Position != FractionToPosition(40, 3*time.Minute) {
		t.Errorf("Position after drag = %v", np.Position)
	}
	if np.State != StatePlaying || !f.engine.playing {
		t.Errorf("state = %v engine playing = %v, want B playing once released", np.State, f.engine.playing)
	}
}

func TestSessionCancelDragAfterTransitionResumes(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	f.session.BeginDrag()
	f.engine.busy = false
	f.session.Tick()

	f.session.CancelDrag()
	if np := f.session.NowPlaying(); np.Title != "B" || np.State != StatePlaying || np.Position != 0 {
		t.Errorf("after cancel: %+v, want B playing from the start", np)
	}

	// a plain drag with no transition leaves the play state alone
	f.session.TogglePlay()
	f.session.BeginDrag()
	f.session.EndDrag()
	if got := f.session.NowPlaying().State; got != StatePaused {
		t.Errorf("state = %v, want paused", got)
	}
}

func TestSessionEmptyQueue(t *testing.T) {
	f := newSessionFixture(t)
	if err := f.session.Next(); !errors.Is(err, ErrEmptyPlaylist) {
		t.Errorf("Next() error = %v, want ErrEmptyPlaylist", err)
	}
	if f.session.Status() != "Queue is empty" {
		t.Errorf("Status() = %q", f.session.Status())
	}
	if err := f.session.Previous(); !errors.Is(err, ErrEmptyPlaylist) {
		t.Errorf("Previous() error = %v, want ErrEmptyPlaylist", err)
	}
}

func TestSessionPrevious(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C")
	f.session.PlayTrack("A")
	f.session.Next()
	f.session.Next()

	if err := f.session.Previous(); err != nil {
		t.Fatal(err)
	}
	if title := f.session.NowPlaying().Title; title != "B" {
		t.Errorf("Previous() from history = %q, want B", title)
	}
	f.session.Previous()
	if title := f.session.NowPlaying().Title; title != "A" {
		t.Errorf("second Previous() = %q, want A", title)
	}
	// history exhausted, step the queue back with wrap
	f.session.Previous()
	if title := f.session.NowPlaying().Title; title != "C" {
		t.Errorf("Previous() without history = %q, want C", title)
	}
}

func TestSessionNextAfterPlayingTrackLeftQueue(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *sessionFixture)
		want  string
	}{
		{
			name: "switched to a playlist without the track",
			setup: func(f *sessionFixture) {
				for _, n := range []string{"A", "B", "C"} {
					f.session.Library().AddToPlaylist("P", n+"_[id"+n+"].mp3")
				}
				f.session.PlayTrack("D")
				f.session.ChangePlaylist("P")
			},
			want: "A",
		},
		{
			name: "removed from the current playlist",
			setup: func(f *sessionFixture) {
				for _, n := range []string{"A", "B", "C", "D"} {
					f.session.Library().AddToPlaylist("P", n+"_[id"+n+"].mp3")
				}
				f.session.ChangePlaylist("P")
				f.session.PlayTrack("B")
				if member, err := f.session.ToggleMembership("P"); err != nil || member {
					f.t.Fatalf("ToggleMembership() = %v, %v", member, err)
				}
			},
			want: "C",
		},
		{
			name: "deleted while playing",
			setup: func(f *sessionFixture) {
				f.session.PlayTrack("B")
				if err := f.session.DeleteTrack("B"); err != nil {
					f.t.Fatal(err)
				}
			},
			want: "C",
		},
		{
			name: "file vanished from the directory",
			setup: func(f *sessionFixture) {
				f.session.PlayTrack("B")
				f.fs.Remove("/music/B_[idB].mp3")
				if err := f.session.Library().Scan(); err != nil {
					f.t.Fatal(err)
				}
			},
			want: "C",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t, "A", "B", "C", "D")
			tt.setup(f)
			if err := f.session.Next(); err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if title, _ := f.session.Track(); title != tt.want {
				t.Errorf("Next() played %q, want %q", title, tt.want)
			}
		})
	}
}

func TestSessionHistoryBounded(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	for range HistorySize + 10 {
		f.session.Next()
	}
	if got := len(f.session.History()); got != HistorySize {
		t.Errorf("len(History()) = %d, want %d", got, HistorySize)
	}
}

func TestSessionDeleteCurrentTrackStopsFirst(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	f.log.calls = nil

	if err := f.session.DeleteTrack("A"); err != nil {
		t.Fatalf("DeleteTrack() error = %v", err)
	}

	stop := slices.Index(f.log.calls, "stop")
	unload := slices.Index(f.log.calls, "unload")
	remove := slices.Index(f.log.calls, "remove /music/A_[idA].mp3")
	if stop < 0 || unload < 0 || remove < 0 || !(stop < unload && unload < remove) {
		t.Errorf("calls = %v, want stop, unload, then remove", f.log.calls)
	}
	if title, _ := f.session.Track(); title != "" {
		t.Errorf("Track() = %q after delete, want none", title)
	}
	if f.session.Library().All().Contains("A") {
		t.Error("All still contains A")
	}
}

func TestSessionDeleteOtherTrackKeepsPlaying(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	f.log.calls = nil

	if err := f.session.DeleteTrack("B_[idB].mp3"); err != nil {
		t.Fatal(err)
	}
	if slices.Contains(f.log.calls, "stop") {
		t.Errorf("calls = %v, playback of A should be untouched", f.log.calls)
	}
	if f.session.NowPlaying().State != StatePlaying {
		t.Error("A should still be playing")
	}
}

func TestSessionShuffleKeepsCurrentTrack(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C", "D", "E")
	f.session.PlayTrack("C")

	f.session.SetShuffle(true)
	pl := f.session.Playlist()
	if cur, _ := pl.Current(); cur != "C" || pl.Cursor() != 0 {
		t.Errorf("after shuffle current = %q cursor = %d, want C at 0", cur, pl.Cursor())
	}

	f.session.SetShuffle(false)
	if cur, _ := pl.Current(); cur != "C" || pl.Cursor() != 2 {
		t.Errorf("after unshuffle current = %q cursor = %d, want C at 2", cur, pl.Cursor())
	}
}

func TestSessionChangePlaylist(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")
	f.session.ToggleMembership("P")

	f.session.ChangePlaylist("P")
	if got := f.session.Playlist().Name(); got != "P" {
		t.Errorf("Playlist() = %q, want P", got)
	}
	f.session.ChangePlaylist("missing")
	if got := f.session.Playlist().Name(); got != AllPlaylist {
		t.Errorf("Playlist() = %q, want fallback to All", got)
	}
}

func TestSessionPlayFallsBackToAll(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.ChangePlaylist("P")
	if err := f.session.PlayTrack("B"); err != nil {
		t.Fatalf("PlayTrack() outside current playlist error = %v", err)
	}
	if title, _ := f.session.Track(); title != "B" {
		t.Errorf("Track() = %q, want B", title)
	}
}

func TestSessionVolumeAndFade(t *testing.T) {
	f := newSessionFixture(t, "A")
	f.session.SetVolume(0.95)
	f.session.VolumeUp()
	if f.session.Volume() != 1 || f.engine.volume != 1 {
		t.Errorf("Volume() = %v engine = %v, want 1", f.session.Volume(), f.engine.volume)
	}
	for range 3 {
		f.session.VolumeDown()
	}
	if f.session.Volume() != 0.7 {
		t.Errorf("Volume() = %v, want 0.7", f.session.Volume())
	}

	f.session.SetFade(4950 * time.Millisecond)
	f.session.FadeUp()
	if f.session.Fade() != 5*time.Second {
		t.Errorf("Fade() = %v, want 5s", f.session.Fade())
	}
	f.session.SetFade(0)
	f.session.FadeDown()
	if f.session.Fade() != 0 {
		t.Errorf("Fade() = %v, want 0", f.session.Fade())
	}
}

func TestSessionReleaseForDownload(t *testing.T) {
	f := newSessionFixture(t, "A", "B")
	f.session.PlayTrack("A")

	if f.session.ReleaseForDownload("other") {
		t.Error("ReleaseForDownload() for another id should be a no-op")
	}
	if !f.session.ReleaseForDownload("idA") {
		t.Fatal("ReleaseForDownload() for the loaded id should release")
	}
	moved, err := f.session.Tick()
	if err != nil || !moved {
		t.Fatalf("Tick() = %v, %v, want transition after release", moved, err)
	}
	if title, _ := f.session.Track(); title != "B" {
		t.Errorf("Track() = %q, want B", title)
	}
}

func TestSessionExportRestore(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C")
	f.session.PlayTrack("B")
	f.clock.Advance(42 * time.Second)
	f.session.SetVolume(0.3)
	f.session.SetFade(2 * time.Second)
	f.session.ToggleMembership("P")

	st := settings.Default()
	f.session.Export(st)

	if st.CurrentTrack != "B" || st.TrackPosition != 42 || st.Volume != 0.3 || st.FadeMs != 2000 {
		t.Errorf("Export() = %+v", st)
	}
	if want := []string{"B_[idB].mp3"}; !slices.Equal(st.Playlists["P"], want) {
		t.Errorf("Export() playlists = %v", st.Playlists)
	}

	lib := NewLibrary(f.fs, "/music")
	lib.Scan()
	lib.LoadPlaylists(st.PlaylistOrder, st.Playlists)
	engine := newFakeEngine(&callLog{})
	restored := NewSession(lib, engine, f.clock.Now)
	if err := restored.Restore(st); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	np := restored.NowPlaying()
	if np.Title != "B" || np.State != StatePaused || np.Position != 42*time.Second {
		t.Errorf("restored = %+v, want B paused at 42s", np)
	}
	if engine.position != 42*time.Second {
		t.Errorf("engine position = %v, want 42s", engine.position)
	}
	if restored.Volume() != 0.3 || restored.Fade() != 2*time.Second {
		t.Errorf("restored volume = %v fade = %v", restored.Volume(), restored.Fade())
	}
}

func TestSessionRestoreMissingTrackUsesQueuePosition(t *testing.T) {
	f := newSessionFixture(t, "A", "B", "C")
	st := settings.Default()
	st.CurrentTrack = "Deleted Song"
	st.QueuePosition = 2

	if err := f.session.Restore(st); err != nil {
		t.Fatal(err)
	}
	if title, _ := f.session.Track(); title != "C" {
		t.Errorf("Track() = %q, want C", title)
	}
}

func TestOpen(t *testing.T) {
	fsys := afero.NewMemMapFs()
	afero.WriteFile(fsys, "/music/A_[a].mp3", []byte("id3"), 0644)
	st := settings.Default()
	st.CurrentPlaylist = "Playlist 4"
	st.Playlists["Playlist 4"] = []string{"A_[a].mp3"}
	st.CurrentTrack = "A"

	s, err := Open(fsys, "/music", newFakeEngine(&callLog{}), st)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Playlist().Name() != "Playlist 4" {
		t.Errorf("Playlist() = %q", s.Playlist().Name())
	}
	if title, _ := s.Track(); title != "A" {
		t.Errorf("Track() = %q, want A", title)
	}
	if got := len(s.Library().PlaylistNames()); got != settings.DefaultSlots {
		t.Errorf("len(PlaylistNames()) = %d, want %d", got, settings.DefaultSlots)
	}
}
