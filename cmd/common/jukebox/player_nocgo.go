//go:build !((linux && cgo) || windows || darwin)

package jukebox

import "time"

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// NewEngine returns a silent engine that keeps time like a real one, so the
// player still advances through the queue.
func NewEngine(volume float64) Engine {
	e := NewSimEngine(time.Now, ProbeDuration)
	e.SetVolume(volume)
	return e
}
