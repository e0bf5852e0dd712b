package jukebox

import (
	"fmt"
	"os"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

// Engine is the audio backend. It plays one loaded file at a time and only
// reports whether it is still producing sound; positions are tracked by the
// caller.
type Engine interface {
	// Load opens a file and returns its duration. Nothing plays until Play.
	Load(path string) (time.Duration, error)
	// Play starts the loaded file from the beginning, fading in over fadeIn.
	Play(fadeIn time.Duration) error
	Pause()
	Resume()
	// Stop halts output. Unload releases the loaded file.
	Stop()
	Unload()
	SetPosition(p time.Duration) error
	Rewind()
	// SetVolume takes a linear gain in [0,1].
	SetVolume(v float64)
	// Fadeout lets the current sound die out over d while the engine moves
	// on. Subsequent loads do not cut the tail.
	Fadeout(d time.Duration)
	// Busy reports whether sound is being produced: loaded, started, not
	// paused and not yet at the end.
	Busy() bool
	Close() error
}

// ProbeDuration decodes the mp3 header to find a file's length.
func ProbeDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// gainStreamer applies the volume and a linear fade ramp. With drain set it
// reports exhaustion once the ramp reaches its target.
type gainStreamer struct {
	src     beep.Streamer
	volume  float64
	gain    float64
	target  float64
	step    float64
	drain   bool
	drained bool
}

func newGainStreamer(src beep.Streamer, volume float64) *gainStreamer {
	return &gainStreamer{src: src, volume: volume, gain: 1, target: 1}
}

// ramp moves the gain from `from` to `to` over n samples.
func (g *gainStreamer) ramp(from, to float64, n int, drain bool) {
	g.target = to
	g.drain = drain
	if n <= 0 {
		g.gain = to
		g.step = 0
		g.drained = drain
		return
	}
	g.gain = from
	g.step = (to - from) / float64(n)
}

func (g *gainStreamer) Stream(samples [][2]float64) (int, bool) {
	if g.drained {
		return 0, false
	}
	n, ok := g.src.Stream(samples)
	for i := range samples[:n] {
		if g.step != 0 {
			g.gain += g.step
			if (g.step > 0 && g.gain >= g.target) || (g.step < 0 && g.gain <= g.target) {
				g.gain = g.target
				g.step = 0
			}
		}
		f := g.gain * g.volume
		samples[i][0] *= f
		samples[i][1] *= f
	}
	if g.drain && g.step == 0 {
		g.drained = true
	}
	return n, ok
}

func (g *gainStreamer) Err() error { return g.src.Err() }
