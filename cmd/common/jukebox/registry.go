package jukebox

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
)

// Track is a file on disk together with the playlists that reference it.
type Track struct {
	Filename  string
	Name      string
	playlists map[string]struct{}
}

// Playlists returns the names of the playlists the track belongs to, sorted.
func (t *Track) Playlists() []string {
	names := lo.Keys(t.playlists)
	slices.Sort(names)
	return names
}

func (t *Track) InPlaylist(name string) bool {
	_, ok := t.playlists[name]
	return ok
}

// Registry maps filenames to tracks.
type Registry struct {
	tracks map[string]*Track
}

func NewRegistry() *Registry {
	return &Registry{tracks: make(map[string]*Track)}
}

// Register returns the track for filename, creating it if needed.
func (r *Registry) Register(filename string) *Track {
	if t, ok := r.tracks[filename]; ok {
		return t
	}
	t := &Track{
		Filename:  filename,
		Name:      DisplayName(filename),
		playlists: make(map[string]struct{}),
	}
	r.tracks[filename] = t
	return t
}

func (r *Registry) Get(filename string) (*Track, bool) {
	t, ok := r.tracks[filename]
	return t, ok
}

func (r *Registry) Forget(filename string) {
	delete(r.tracks, filename)
}

func (r *Registry) Len() int { return len(r.tracks) }

// Tracks returns every registered track sorted by display name.
func (r *Registry) Tracks() []*Track {
	tracks := lo.Values(r.tracks)
	slices.SortFunc(tracks, func(a, b *Track) int {
		if a.Name == b.Name {
			return cmp.Compare(a.Filename, b.Filename)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return tracks
}

func (r *Registry) join(filename, playlist string) {
	if t, ok := r.tracks[filename]; ok {
		t.playlists[playlist] = struct{}{}
	}
}

func (r *Registry) leave(filename, playlist string) {
	if t, ok := r.tracks[filename]; ok {
		delete(t.playlists, playlist)
	}
}

func (r *Registry) renamePlaylist(from, to string) {
	for _, t := range r.tracks {
		if _, ok := t.playlists[from]; ok {
			delete(t.playlists, from)
			t.playlists[to] = struct{}{}
		}
	}
}
