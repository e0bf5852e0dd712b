package jukebox

import (
	"errors"
	"slices"
	"testing"
)

func newTestPlaylist(names ...string) *Playlist {
	p := NewPlaylist("test")
	for _, n := range names {
		p.Add(n, n+"_[id].mp3")
	}
	return p
}

func TestPlaylistAdvance(t *testing.T) {
	tests := []struct {
		name       string
		start      int
		direction  int
		wantTrack  string
		wantCursor int
	}{
		{"forward from start", 0, 1, "B", 1},
		{"backward from start wraps", 0, -1, "C", 2},
		{"forward from end wraps", 2, 1, "A", 0},
		{"backward from middle", 1, -1, "A", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlaylist("A", "B", "C")
			p.SetCursor(tt.start)

			got, err := p.Advance(tt.direction)
			if err != nil {
				t.Fatalf("Advance() error = %v", err)
			}
			if got != tt.wantTrack {
				t.Errorf("Advance() = %q, want %q", got, tt.wantTrack)
			}
			if p.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", p.Cursor(), tt.wantCursor)
			}
			if want := []string{"A", "B", "C"}; !slices.Equal(p.Queue(), want) {
				t.Errorf("Queue() = %v, advancing must not reorder", p.Queue())
			}
		})
	}
}

func TestPlaylistFullCycleReturnsToStart(t *testing.T) {
	p := newTestPlaylist("A", "B", "C", "D", "E")
	p.SetCursor(3)
	for range p.Len() {
		if _, err := p.Advance(1); err != nil {
			t.Fatal(err)
		}
	}
	if p.Cursor() != 3 {
		t.Errorf("Cursor() = %d after full cycle, want 3", p.Cursor())
	}
}

func TestPlaylistEmpty(t *testing.T) {
	p := NewPlaylist("empty")
	if _, err := p.Advance(1); !errors.Is(err, ErrEmptyPlaylist) {
		t.Errorf("Advance() error = %v, want ErrEmptyPlaylist", err)
	}
	if _, err := p.Current(); !errors.Is(err, ErrEmptyPlaylist) {
		t.Errorf("Current() error = %v, want ErrEmptyPlaylist", err)
	}
	p.Shuffle()
	p.Unshuffle()
	if p.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", p.Cursor())
	}
}

func TestPlaylistShuffleKeepsCurrentInFront(t *testing.T) {
	members := []string{"A", "B", "C", "D", "E", "F", "G"}
	for start := range members {
		p := newTestPlaylist(members...)
		p.SetCursor(start)
		p.Shuffle()

		if p.Cursor() != 0 {
			t.Fatalf("Cursor() = %d after shuffle, want 0", p.Cursor())
		}
		if cur, _ := p.Current(); cur != members[start] {
			t.Errorf("Current() = %q, want %q", cur, members[start])
		}

		seen := map[string]int{}
		for range p.Len() {
			cur, _ := p.Current()
			seen[cur]++
			p.Advance(1)
		}
		for _, m := range members {
			if seen[m] != 1 {
				t.Errorf("member %q visited %d times, want 1", m, seen[m])
			}
		}
	}
}

func TestPlaylistShuffleUsesPermutation(t *testing.T) {
	p := newTestPlaylist("A", "B", "C", "D")
	p.shuffle = func(n int, swap func(i, j int)) {
		// reverse
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	p.SetCursor(1)
	p.Shuffle()

	// reversed: D C B A, then B swapped to the front
	if want := []string{"B", "C", "D", "A"}; !slices.Equal(p.Queue(), want) {
		t.Errorf("Queue() = %v, want %v", p.Queue(), want)
	}
}

func TestPlaylistUnshuffleRestoresOrder(t *testing.T) {
	p := newTestPlaylist("A", "B", "C", "D")
	p.SetCursor(2)
	p.Shuffle()
	p.Advance(1)
	cur, _ := p.Current()

	p.Unshuffle()

	if want := []string{"A", "B", "C", "D"}; !slices.Equal(p.Queue(), want) {
		t.Errorf("Queue() = %v, want %v", p.Queue(), want)
	}
	if got, _ := p.Current(); got != cur {
		t.Errorf("Current() = %q after unshuffle, want %q", got, cur)
	}
}

func TestPlaylistAddDuplicateReplacesFile(t *testing.T) {
	p := newTestPlaylist("A", "B")
	p.Add("A", "other.mp3")

	if p.Len() != 2 {
		t.Errorf("Len() = %d, want 2", p.Len())
	}
	if f, _ := p.File("A"); f != "other.mp3" {
		t.Errorf("File(A) = %q, want other.mp3", f)
	}
	if want := []string{"A", "B"}; !slices.Equal(p.Names(), want) {
		t.Errorf("Names() = %v, want %v", p.Names(), want)
	}
}

func TestPlaylistRemove(t *testing.T) {
	tests := []struct {
		name        string
		cursor      int
		remove      string
		wantCursor  int
		wantCurrent string
	}{
		{"before cursor", 2, "A", 1, "C"},
		{"after cursor", 1, "C", 1, "B"},
		{"at cursor", 1, "B", 1, "C"},
		{"last at cursor wraps", 3, "D", 0, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlaylist("A", "B", "C", "D")
			p.SetCursor(tt.cursor)

			if err := p.Remove(tt.remove); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if p.Contains(tt.remove) {
				t.Errorf("Contains(%q) = true after remove", tt.remove)
			}
			if p.Cursor() != tt.wantCursor {
				t.Errorf("Cursor() = %d, want %d", p.Cursor(), tt.wantCursor)
			}
			if cur, _ := p.Current(); cur != tt.wantCurrent {
				t.Errorf("Current() = %q, want %q", cur, tt.wantCurrent)
			}
		})
	}
}

func TestPlaylistRemoveUnknown(t *testing.T) {
	p := newTestPlaylist("A")
	if err := p.Remove("Z"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Remove() error = %v, want ErrTrackNotFound", err)
	}
}

func TestPlaylistLocate(t *testing.T) {
	p := newTestPlaylist("A", "B", "C")
	if err := p.Locate("C"); err != nil {
		t.Fatal(err)
	}
	if p.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", p.Cursor())
	}
	if err := p.Locate("nope"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Locate() error = %v, want ErrTrackNotFound", err)
	}
}
