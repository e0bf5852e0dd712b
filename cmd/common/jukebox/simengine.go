package jukebox

import (
	"sync"
	"time"
)

// SimEngine is a silent Engine that advances a virtual play head with the
// wall clock. Used when the build has no audio backend.
type SimEngine struct {
	mu sync.Mutex

	now   func() time.Time
	probe func(path string) (time.Duration, error)

	loaded    bool
	playing   bool
	duration  time.Duration
	offset    time.Duration
	startedAt time.Time
	volume    float64
}

func NewSimEngine(now func() time.Time, probe func(path string) (time.Duration, error)) *SimEngine {
	return &SimEngine{now: now, probe: probe, volume: 1}
}

func (e *SimEngine) Load(path string) (time.Duration, error) {
	d, err := e.probe(path)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded, e.playing = true, false
	e.duration, e.offset = d, 0
	return d, nil
}

func (e *SimEngine) Play(time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNoTrackLoaded
	}
	e.offset = 0
	e.playing = true
	e.startedAt = e.now()
	return nil
}

func (e *SimEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		e.offset += e.now().Sub(e.startedAt)
		e.playing = false
	}
}

func (e *SimEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded && !e.playing {
		e.playing = true
		e.startedAt = e.now()
	}
}

func (e *SimEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.offset = 0
}

func (e *SimEngine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded, e.playing = false, false
	e.duration, e.offset = 0, 0
}

func (e *SimEngine) SetPosition(p time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNoTrackLoaded
	}
	e.offset = p
	e.startedAt = e.now()
	return nil
}

func (e *SimEngine) Rewind() { _ = e.SetPosition(0) }

func (e *SimEngine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
}

func (e *SimEngine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Fadeout has nothing to fade; the track is simply stopped.
func (e *SimEngine) Fadeout(time.Duration) { e.Stop() }

func (e *SimEngine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || !e.playing {
		return false
	}
	return e.offset+e.now().Sub(e.startedAt) < e.duration
}

func (e *SimEngine) Close() error {
	e.Unload()
	return nil
}
