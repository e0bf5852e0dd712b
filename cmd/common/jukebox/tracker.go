package jukebox

import "time"

// PlaybackState represents the current state of playback.
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// Tracker derives the playback position from wall clock time. The audio
// engine only exposes play/pause/seek, so the position is the stored offset
// plus the time since the last resume.
type Tracker struct {
	now       func() time.Time
	state     PlaybackState
	stored    time.Duration
	resumedAt time.Time // zero unless playing
	duration  time.Duration
}

func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, state: StateStopped}
}

func (t *Tracker) State() PlaybackState { return t.state }

func (t *Tracker) Duration() time.Duration { return t.duration }

// Load resets the tracker for a new track: paused at 0.
func (t *Tracker) Load(duration time.Duration) {
	t.duration = duration
	t.stored = 0
	t.resumedAt = time.Time{}
	t.state = StatePaused
}

// Unload forgets the track entirely.
func (t *Tracker) Unload() {
	t.duration = 0
	t.stored = 0
	t.resumedAt = time.Time{}
	t.state = StateStopped
}

func (t *Tracker) Resume() {
	if t.state != StatePaused {
		return
	}
	t.resumedAt = t.now()
	t.state = StatePlaying
}

func (t *Tracker) Pause() {
	if t.state != StatePlaying {
		return
	}
	t.stored += t.now().Sub(t.resumedAt)
	t.resumedAt = time.Time{}
	t.state = StatePaused
}

// Stop marks the end of the track.
func (t *Tracker) Stop() {
	t.stored = t.duration
	t.resumedAt = time.Time{}
	t.state = StateStopped
}

// Seek jumps to p. A playing track keeps playing from p; a stopped one
// becomes paused.
func (t *Tracker) Seek(p time.Duration) {
	t.stored = t.clamp(p)
	switch t.state {
	case StatePlaying:
		t.resumedAt = t.now()
	case StateStopped:
		t.state = StatePaused
	}
}

// SeekBy moves relative to the current position, clamped to the track.
func (t *Tracker) SeekBy(delta time.Duration) {
	t.Seek(t.Position() + delta)
}

// SeekFraction maps a 0..100 slider value onto the track.
func (t *Tracker) SeekFraction(v float64) {
	t.Seek(FractionToPosition(v, t.duration))
}

// Position is the elapsed time in the track.
func (t *Tracker) Position() time.Duration {
	p := t.stored
	if t.state == StatePlaying {
		p += t.now().Sub(t.resumedAt)
	}
	return t.clamp(p)
}

// Fraction is Position as a 0..100 slider value.
func (t *Tracker) Fraction() float64 {
	if t.duration <= 0 {
		return 0
	}
	return float64(t.Position()) / float64(t.duration) * 100
}

func (t *Tracker) clamp(p time.Duration) time.Duration {
	if p < 0 {
		return 0
	}
	if t.duration > 0 && p > t.duration {
		return t.duration
	}
	return p
}

// FractionToPosition converts a slider value to a position: 0 maps to 0 and
// 100 to duration exactly.
func FractionToPosition(v float64, duration time.Duration) time.Duration {
	v = max(0, min(100, v))
	return time.Duration(v / 100 * float64(duration))
}
