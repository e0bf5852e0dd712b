package common

import (
	"fmt"

	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/gigurra/musicbox/cmd/common/settings"
	"github.com/spf13/afero"
)

// Store bundles what the headless commands work on: the settings file and
// the library built from it.
type Store struct {
	SettingsPath string
	Settings     *settings.Settings
	Library      *jukebox.Library
}

// OpenStore loads settings and scans the audio directory.
func OpenStore(flagDir, flagSettings string) (*Store, error) {
	_, settingsPath := ResolveDirs(flagDir, flagSettings, "")
	st, err := settings.Load(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	audioDir, _ := ResolveDirs(flagDir, flagSettings, st.AudioDir)

	lib := jukebox.NewLibrary(afero.NewOsFs(), audioDir)
	if err := lib.Scan(); err != nil {
		return nil, err
	}
	lib.LoadPlaylists(st.PlaylistOrder, st.Playlists)
	return &Store{SettingsPath: settingsPath, Settings: st, Library: lib}, nil
}

// Save writes the library's playlists back into the settings file.
func (s *Store) Save() error {
	s.Settings.PlaylistOrder, s.Settings.Playlists = s.Library.Export()
	return settings.Save(s.SettingsPath, s.Settings)
}
