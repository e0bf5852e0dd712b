package jukebox

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Playlist is an ordered set of members (display name -> filename) plus a
// playback queue. The queue is always a permutation of the member names and
// the cursor points at the current entry.
type Playlist struct {
	name    string
	names   []string          // member names in insertion order
	files   map[string]string // display name -> filename
	queue   []string
	cursor  int
	shuffle func(n int, swap func(i, j int))
}

// NewPlaylist creates an empty playlist.
func NewPlaylist(name string) *Playlist {
	return &Playlist{
		name:    name,
		files:   make(map[string]string),
		shuffle: rand.Shuffle,
	}
}

func (p *Playlist) Name() string { return p.name }

func (p *Playlist) Len() int { return len(p.queue) }

func (p *Playlist) Cursor() int { return p.cursor }

// Names returns member names in insertion order.
func (p *Playlist) Names() []string { return slices.Clone(p.names) }

// Queue returns member names in playback order.
func (p *Playlist) Queue() []string { return slices.Clone(p.queue) }

// Files returns member filenames in insertion order.
func (p *Playlist) Files() []string {
	files := make([]string, len(p.names))
	for i, name := range p.names {
		files[i] = p.files[name]
	}
	return files
}

func (p *Playlist) Contains(name string) bool {
	_, ok := p.files[name]
	return ok
}

// File returns the filename behind a member name.
func (p *Playlist) File(name string) (string, error) {
	file, ok := p.files[name]
	if !ok {
		return "", fmt.Errorf("%w: %q in %q", ErrTrackNotFound, name, p.name)
	}
	return file, nil
}

// Add appends a member to the end of both the member list and the queue.
// Re-adding an existing name replaces its filename and keeps its place.
func (p *Playlist) Add(name, filename string) {
	if _, exists := p.files[name]; exists {
		p.files[name] = filename
		return
	}
	p.files[name] = filename
	p.names = append(p.names, name)
	p.queue = append(p.queue, name)
}

// Remove deletes a member. The cursor keeps pointing at the same logical
// entry, or wraps to the start if the removed entry was the last one.
func (p *Playlist) Remove(name string) error {
	if _, ok := p.files[name]; !ok {
		return fmt.Errorf("%w: %q in %q", ErrTrackNotFound, name, p.name)
	}
	delete(p.files, name)
	p.names = slices.DeleteFunc(p.names, func(n string) bool { return n == name })

	idx := slices.Index(p.queue, name)
	p.queue = slices.Delete(p.queue, idx, idx+1)
	if idx < p.cursor {
		p.cursor--
	}
	if p.cursor >= len(p.queue) {
		p.cursor = 0
	}
	return nil
}

// Current returns the entry under the cursor.
func (p *Playlist) Current() (string, error) {
	if len(p.queue) == 0 {
		return "", ErrEmptyPlaylist
	}
	return p.queue[p.cursor], nil
}

// Advance moves the cursor by direction (+1 or -1), wrapping at both ends,
// and returns the new current entry. The queue order is left untouched.
func (p *Playlist) Advance(direction int) (string, error) {
	n := len(p.queue)
	if n == 0 {
		return "", ErrEmptyPlaylist
	}
	p.cursor = ((p.cursor+direction)%n + n) % n
	return p.queue[p.cursor], nil
}

// Locate moves the cursor onto name.
func (p *Playlist) Locate(name string) error {
	idx := slices.Index(p.queue, name)
	if idx < 0 {
		return fmt.Errorf("%w: %q in %q", ErrTrackNotFound, name, p.name)
	}
	p.cursor = idx
	return nil
}

// SetCursor places the cursor at i, clamped into the queue.
func (p *Playlist) SetCursor(i int) {
	p.cursor = max(0, min(i, len(p.queue)-1))
}

// Shuffle randomizes the queue. The current entry moves to the front and
// the cursor resets to 0 so playback continues from it.
func (p *Playlist) Shuffle() {
	if len(p.queue) == 0 {
		p.cursor = 0
		return
	}
	current := p.queue[p.cursor]
	p.shuffle(len(p.queue), func(i, j int) {
		p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	})
	idx := slices.Index(p.queue, current)
	p.queue[0], p.queue[idx] = p.queue[idx], p.queue[0]
	p.cursor = 0
}

// Unshuffle restores insertion order and moves the cursor to wherever the
// current entry now sits.
func (p *Playlist) Unshuffle() {
	var current string
	if len(p.queue) > 0 {
		current = p.queue[p.cursor]
	}
	p.queue = slices.Clone(p.names)
	p.cursor = max(0, slices.Index(p.queue, current))
}

func (p *Playlist) rename(name string) { p.name = name }
