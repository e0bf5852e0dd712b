package common

import (
	"os"
	"path/filepath"
)

const appName = "musicbox"

// DataDir is where settings, logs and (by default) the audio files live.
// MUSICBOX_HOME overrides the XDG location.
func DataDir() string {
	if dir := os.Getenv("MUSICBOX_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(dataHome(), appName)
}

func AudioDir() string {
	return filepath.Join(DataDir(), "files")
}

func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

func LogPath() string {
	return filepath.Join(DataDir(), appName+".log")
}

// ResolveDirs picks the audio dir and settings path from explicit flags,
// then from the audio dir stored in settings, then from the defaults.
func ResolveDirs(flagDir, flagSettings, storedDir string) (audioDir, settingsPath string) {
	settingsPath = flagSettings
	if settingsPath == "" {
		settingsPath = SettingsPath()
	}
	switch {
	case flagDir != "":
		audioDir = flagDir
	case storedDir != "":
		audioDir = storedDir
	default:
		audioDir = AudioDir()
	}
	return audioDir, settingsPath
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func dataHome() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return dir
}
