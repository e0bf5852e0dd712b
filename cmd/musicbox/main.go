package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/config"
	"github.com/gigurra/musicbox/cmd/download"
	"github.com/gigurra/musicbox/cmd/play"
	"github.com/gigurra/musicbox/cmd/playlist"
	"github.com/gigurra/musicbox/cmd/rm"
	"github.com/gigurra/musicbox/cmd/tracks"
	"github.com/spf13/cobra"
)

// Command group IDs
const (
	groupPlayer  = "player"
	groupLibrary = "library"
	groupSetup   = "setup"
)

// withGroup sets the GroupID on a command and returns it
func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "musicbox",
		Short:   "Download YouTube audio and play it from the terminal",
		Version: appVersion(),
		Groups: []*cobra.Group{
			{ID: groupPlayer, Title: "Player:"},
			{ID: groupLibrary, Title: "Library:"},
			{ID: groupSetup, Title: "Setup:"},
		},
		SubCmds: []*cobra.Command{
			withGroup(play.Cmd(), groupPlayer),

			withGroup(download.Cmd(), groupLibrary),
			withGroup(tracks.Cmd(), groupLibrary),
			withGroup(playlist.Cmd(), groupLibrary),
			withGroup(rm.Cmd(), groupLibrary),

			withGroup(config.Cmd(), groupSetup),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
