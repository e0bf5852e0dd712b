// Package settings persists the player state between runs: the current
// playlist and track, transport preferences and the named playlists.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
)

const (
	DefaultVolume      = 0.5
	DefaultFadeMs      = 1000
	MaxFadeMs          = 5000
	FadeStepMs         = 100
	DefaultSlots       = 10
	defaultSlotPattern = "Playlist %d"
)

var ErrCorrupt = errors.New("settings file is corrupt")

// Settings is the on-disk record. Track position is stored in seconds.
type Settings struct {
	CurrentPlaylist string              `json:"current_playlist"`
	CurrentTrack    string              `json:"current_track"`
	TrackPosition   float64             `json:"track_position"`
	QueuePosition   int                 `json:"queue_position"`
	Shuffle         bool                `json:"shuffle"`
	Volume          float64             `json:"volume"`
	FadeMs          int                 `json:"fade_ms"`
	PlaylistOrder   []string            `json:"playlist_order"`
	Playlists       map[string][]string `json:"playlists"`
	AudioDir        string              `json:"audio_dir,omitempty"`
}

// Default returns the settings used on first launch: ten empty playlists.
func Default() *Settings {
	s := &Settings{
		CurrentPlaylist: "All",
		Volume:          DefaultVolume,
		FadeMs:          DefaultFadeMs,
		Playlists:       make(map[string][]string, DefaultSlots),
	}
	for i := range DefaultSlots {
		name := fmt.Sprintf(defaultSlotPattern, i)
		s.PlaylistOrder = append(s.PlaylistOrder, name)
		s.Playlists[name] = []string{}
	}
	return s
}

// Load reads settings from path, returning defaults if the file doesn't exist.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	// A zero volume is a valid choice, so defaults apply only to absent keys.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if _, ok := raw["volume"]; !ok {
		s.Volume = DefaultVolume
	}
	if _, ok := raw["fade_ms"]; !ok {
		s.FadeMs = DefaultFadeMs
	}
	if s.Playlists == nil {
		s.Playlists = Default().Playlists
		s.PlaylistOrder = Default().PlaylistOrder
	}
	s.normalize()
	return &s, nil
}

// Save writes settings atomically: a temp file in the same directory is
// synced and renamed over the target.
func Save(path string, s *Settings) error {
	s.normalize()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ClampVolume keeps v in [0,1] rounded to two decimals.
func ClampVolume(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Max(0, math.Min(1, v))
}

// ClampFade keeps ms in [0,MaxFadeMs] on FadeStepMs boundaries.
func ClampFade(ms int) int {
	ms = int(math.Round(float64(ms)/FadeStepMs)) * FadeStepMs
	return max(0, min(MaxFadeMs, ms))
}

// normalize repairs values a hand-edited file may carry: out of range
// transport values and playlists missing from the slot order.
func (s *Settings) normalize() {
	s.Volume = ClampVolume(s.Volume)
	s.FadeMs = ClampFade(s.FadeMs)
	if s.TrackPosition < 0 {
		s.TrackPosition = 0
	}
	if s.QueuePosition < 0 {
		s.QueuePosition = 0
	}
	if s.Playlists == nil {
		s.Playlists = map[string][]string{}
	}

	seen := make(map[string]bool, len(s.PlaylistOrder))
	order := make([]string, 0, len(s.Playlists))
	for _, name := range s.PlaylistOrder {
		if _, ok := s.Playlists[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	extra := make([]string, 0)
	for name := range s.Playlists {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	s.PlaylistOrder = append(order, extra...)
}
