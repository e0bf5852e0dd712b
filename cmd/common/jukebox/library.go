package jukebox

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// AllPlaylist is the name of the playlist synthesized from the audio
// directory. It holds every track and cannot be renamed or edited.
const AllPlaylist = "All"

// Library owns the audio directory: the All playlist, the named playlists
// and the track registry.
type Library struct {
	fs       afero.Fs
	dir      string
	all      *Playlist
	named    map[string]*Playlist
	order    []string
	registry *Registry
}

func NewLibrary(fsys afero.Fs, dir string) *Library {
	return &Library{
		fs:       fsys,
		dir:      dir,
		all:      NewPlaylist(AllPlaylist),
		named:    make(map[string]*Playlist),
		registry: NewRegistry(),
	}
}

func (l *Library) Dir() string { return l.dir }

func (l *Library) Path(filename string) string { return filepath.Join(l.dir, filename) }

func (l *Library) All() *Playlist { return l.all }

// Scan brings the library in line with the directory listing. New files are
// appended to All; files that vanished are dropped from every playlist.
func (l *Library) Scan() error {
	if err := l.fs.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	entries, err := afero.ReadDir(l.fs, l.dir)
	if err != nil {
		return fmt.Errorf("read audio dir: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		present[e.Name()] = true
		l.addFile(e.Name())
	}

	for _, t := range l.registry.Tracks() {
		if !present[t.Filename] {
			slog.Info("track disappeared from audio dir", "file", t.Filename)
			l.dropFile(t.Filename)
		}
	}
	return nil
}

// LoadPlaylists creates the named playlists. Filenames that are not in the
// registry (deleted since the last run) are skipped.
func (l *Library) LoadPlaylists(order []string, lists map[string][]string) {
	for _, name := range order {
		pl, ok := l.named[name]
		if !ok {
			pl = NewPlaylist(name)
			l.named[name] = pl
			l.order = append(l.order, name)
		}
		for _, filename := range lists[name] {
			t, ok := l.registry.Get(filename)
			if !ok {
				slog.Debug("skipping missing playlist entry", "playlist", name, "file", filename)
				continue
			}
			if err := l.join(pl, t); err != nil {
				slog.Warn("skipping playlist entry", "playlist", name, "file", filename, "err", err)
			}
		}
	}
}

// Export returns the named playlists in slot order, as filenames.
func (l *Library) Export() (order []string, lists map[string][]string) {
	lists = make(map[string][]string, len(l.order))
	for _, name := range l.order {
		lists[name] = l.named[name].Files()
	}
	return slices.Clone(l.order), lists
}

// Playlist looks up a playlist by name, including All.
func (l *Library) Playlist(name string) (*Playlist, error) {
	if name == AllPlaylist {
		return l.all, nil
	}
	pl, ok := l.named[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
	}
	return pl, nil
}

// Resolve is Playlist with a fallback to All for unknown names.
func (l *Library) Resolve(name string) *Playlist {
	pl, err := l.Playlist(name)
	if err != nil {
		slog.Warn("falling back to All playlist", "err", err)
		return l.all
	}
	return pl
}

// PlaylistNames returns the named playlists in slot order. All is not included.
func (l *Library) PlaylistNames() []string { return slices.Clone(l.order) }

// Slot returns the name of the i:th named playlist.
func (l *Library) Slot(i int) (string, bool) {
	if i < 0 || i >= len(l.order) {
		return "", false
	}
	return l.order[i], true
}

func (l *Library) CreatePlaylist(name string) (*Playlist, error) {
	name, err := l.checkNewName(name)
	if err != nil {
		return nil, err
	}
	pl := NewPlaylist(name)
	l.named[name] = pl
	l.order = append(l.order, name)
	return pl, nil
}

// RenamePlaylist renames a named playlist, keeping its slot.
func (l *Library) RenamePlaylist(from, to string) error {
	if from == AllPlaylist {
		return ErrReservedPlaylist
	}
	pl, ok := l.named[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrPlaylistNotFound, from)
	}
	if strings.TrimSpace(to) == from {
		return nil
	}
	to, err := l.checkNewName(to)
	if err != nil {
		return err
	}

	delete(l.named, from)
	l.named[to] = pl
	l.order[slices.Index(l.order, from)] = to
	pl.rename(to)
	l.registry.renamePlaylist(from, to)
	return nil
}

func (l *Library) checkNewName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrInvalidName
	case name == AllPlaylist:
		return "", ErrReservedPlaylist
	}
	if _, taken := l.named[name]; taken {
		return "", fmt.Errorf("%w: %q", ErrPlaylistExists, name)
	}
	return name, nil
}

func (l *Library) AddToPlaylist(playlist, filename string) error {
	pl, t, err := l.editable(playlist, filename)
	if err != nil {
		return err
	}
	return l.join(pl, t)
}

// join adds t to pl. Members are keyed by display name, so a second file
// with the same name is refused rather than replacing the first.
func (l *Library) join(pl *Playlist, t *Track) error {
	if existing, err := pl.File(t.Name); err == nil && existing != t.Filename {
		return fmt.Errorf("%w: %q in %q is %s", ErrNameClash, t.Name, pl.Name(), existing)
	}
	pl.Add(t.Name, t.Filename)
	l.registry.join(t.Filename, pl.Name())
	return nil
}

func (l *Library) RemoveFromPlaylist(playlist, filename string) error {
	pl, t, err := l.editable(playlist, filename)
	if err != nil {
		return err
	}
	if err := pl.Remove(t.Name); err != nil {
		return err
	}
	l.registry.leave(filename, pl.Name())
	return nil
}

// ToggleMembership adds the track to the playlist, or removes it if it was
// already there. Returns whether the track is a member afterwards.
func (l *Library) ToggleMembership(playlist, filename string) (bool, error) {
	t, err := l.Track(filename)
	if err != nil {
		return false, err
	}
	if t.InPlaylist(playlist) {
		return false, l.RemoveFromPlaylist(playlist, filename)
	}
	if err := l.AddToPlaylist(playlist, filename); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Library) editable(playlist, filename string) (*Playlist, *Track, error) {
	if playlist == AllPlaylist {
		return nil, nil, ErrReservedPlaylist
	}
	pl, err := l.Playlist(playlist)
	if err != nil {
		return nil, nil, err
	}
	t, err := l.Track(filename)
	if err != nil {
		return nil, nil, err
	}
	return pl, t, nil
}

func (l *Library) Track(filename string) (*Track, error) {
	t, ok := l.registry.Get(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTrackNotFound, filename)
	}
	return t, nil
}

// FindTrack resolves a display name or a filename to a track.
func (l *Library) FindTrack(nameOrFile string) (*Track, error) {
	if t, ok := l.registry.Get(nameOrFile); ok {
		return t, nil
	}
	filename, err := l.all.File(nameOrFile)
	if err != nil {
		return nil, err
	}
	return l.Track(filename)
}

// Tracks returns every track sorted by display name.
func (l *Library) Tracks() []*Track { return l.registry.Tracks() }

// AddFile registers a newly downloaded file.
func (l *Library) AddFile(filename string) (*Track, error) {
	if !IsAudioFile(filename) {
		return nil, fmt.Errorf("not an audio file: %q", filename)
	}
	if _, err := l.fs.Stat(l.Path(filename)); err != nil {
		return nil, err
	}
	return l.addFile(filename), nil
}

// DeleteFile removes the file from disk and from every playlist. Callers
// playing the file must release it first.
func (l *Library) DeleteFile(filename string) error {
	if _, ok := l.registry.Get(filename); !ok {
		return fmt.Errorf("%w: %q", ErrTrackNotFound, filename)
	}
	if err := l.fs.Remove(l.Path(filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	l.dropFile(filename)
	slog.Info("deleted track", "file", filename)
	return nil
}

func (l *Library) addFile(filename string) *Track {
	t := l.registry.Register(filename)
	if existing, err := l.all.File(t.Name); err != nil || existing != filename {
		l.all.Add(t.Name, filename)
	}
	return t
}

func (l *Library) dropFile(filename string) {
	t, ok := l.registry.Get(filename)
	if !ok {
		return
	}
	playlists := append([]*Playlist{l.all}, lo.Map(l.order, func(name string, _ int) *Playlist {
		return l.named[name]
	})...)
	for _, pl := range playlists {
		if f, err := pl.File(t.Name); err == nil && f == filename {
			_ = pl.Remove(t.Name)
		}
	}
	l.registry.Forget(filename)
}
