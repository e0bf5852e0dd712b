//go:build (linux && cgo) || windows || darwin

package jukebox

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// NewEngine returns the speaker backed engine.
func NewEngine(volume float64) Engine {
	return &beepEngine{
		sampleRate: beep.SampleRate(44100),
		volume:     volume,
	}
}

// beepEngine plays through the system speaker using beep.
type beepEngine struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	volume      float64
	cur         *playback
}

// playback is one loaded file.
type playback struct {
	decoder   beep.StreamSeekCloser
	format    beep.Format
	run       *run
	closeOnce sync.Once
}

func (pb *playback) close() {
	pb.closeOnce.Do(func() { pb.decoder.Close() })
}

// run is one pass of a playback through the speaker. A fresh run is created
// on every Play so callbacks from halted runs only touch their own state.
type run struct {
	ctrl     *beep.Ctrl
	gain     *gainStreamer
	finished atomic.Bool
	onFinish func() // read on the speaker goroutine, set under speaker.Lock
}

func (e *beepEngine) initSpeaker() error {
	if e.initialized {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	e.initialized = true
	return nil
}

func (e *beepEngine) Load(path string) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	decoder, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := e.initSpeaker(); err != nil {
		decoder.Close()
		return 0, err
	}

	e.cur = &playback{decoder: decoder, format: format}
	return format.SampleRate.D(decoder.Len()), nil
}

func (e *beepEngine) Play(fadeIn time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pb := e.cur
	if pb == nil {
		return ErrNoTrackLoaded
	}
	e.haltLocked()

	speaker.Lock()
	err := pb.decoder.Seek(0)
	speaker.Unlock()
	if err != nil {
		return err
	}

	resampled := beep.Resample(4, pb.format.SampleRate, e.sampleRate, pb.decoder)
	r := &run{gain: newGainStreamer(resampled, e.volume)}
	r.gain.ramp(0, 1, e.sampleRate.N(fadeIn), false)
	r.ctrl = &beep.Ctrl{Streamer: r.gain}
	pb.run = r

	speaker.Play(beep.Seq(r.ctrl, beep.Callback(func() {
		r.finished.Store(true)
		if r.onFinish != nil {
			r.onFinish()
		}
	})))
	return nil
}

func (e *beepEngine) Pause() { e.setPaused(true) }

func (e *beepEngine) Resume() { e.setPaused(false) }

func (e *beepEngine) setPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || e.cur.run == nil {
		return
	}
	speaker.Lock()
	e.cur.run.ctrl.Paused = paused
	speaker.Unlock()
}

func (e *beepEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haltLocked()
}

// haltLocked drains the current run out of the speaker mixer.
func (e *beepEngine) haltLocked() {
	if e.cur == nil || e.cur.run == nil {
		return
	}
	speaker.Lock()
	e.cur.run.ctrl.Streamer = nil
	speaker.Unlock()
	e.cur.run = nil
}

func (e *beepEngine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
}

func (e *beepEngine) unloadLocked() {
	if e.cur == nil {
		return
	}
	e.haltLocked()
	e.cur.close()
	e.cur = nil
}

func (e *beepEngine) SetPosition(p time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil {
		return ErrNoTrackLoaded
	}
	n := max(0, min(e.cur.format.SampleRate.N(p), e.cur.decoder.Len()))

	speaker.Lock()
	defer speaker.Unlock()
	return e.cur.decoder.Seek(n)
}

func (e *beepEngine) Rewind() {
	_ = e.SetPosition(0)
}

func (e *beepEngine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = v
	if e.cur == nil || e.cur.run == nil {
		return
	}
	speaker.Lock()
	e.cur.run.gain.volume = v
	speaker.Unlock()
}

func (e *beepEngine) Fadeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pb := e.cur
	if pb == nil || pb.run == nil || d <= 0 || pb.run.finished.Load() {
		return
	}
	r := pb.run

	speaker.Lock()
	if r.ctrl.Paused {
		speaker.Unlock()
		return
	}
	r.gain.ramp(r.gain.gain, 0, e.sampleRate.N(d), true)
	r.onFinish = pb.close
	speaker.Unlock()

	// The tail now owns the decoder and closes it once drained.
	e.cur = nil
}

func (e *beepEngine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || e.cur.run == nil {
		return false
	}
	speaker.Lock()
	paused := e.cur.run.ctrl.Paused
	speaker.Unlock()
	return !paused && !e.cur.run.finished.Load()
}

func (e *beepEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()
	if e.initialized {
		speaker.Close()
		e.initialized = false
	}
	return nil
}
