package playlist

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "playlist",
		Short: "Manage playlists",
		Long:  "List, create and rename playlists and edit their members. The player shows the first ten playlists as slots 0-9.",
		SubCmds: []*cobra.Command{
			ListCmd(),
			CreateCmd(),
			RenameCmd(),
			AddCmd(),
			RemoveCmd(),
		},
	}.ToCobra()
}

type ListParams struct {
	Dir      string `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func ListCmd() *cobra.Command {
	return boa.CmdT[ListParams]{
		Use:         "ls",
		Short:       "List playlists",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *ListParams, cmd *cobra.Command, args []string) {
			if err := RunList(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "playlist ls: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func RunList(params *ListParams, stdout io.Writer) error {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		return err
	}
	lib := store.Library

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(common.TermWidth())
	t.AppendHeader(table.Row{"Slot", "Name", "Tracks", ""})

	current := store.Settings.CurrentPlaylist
	marker := func(name string) string { return lo.Ternary(name == current, "●", "") }

	t.AppendRow(table.Row{"a", jukebox.AllPlaylist, lib.All().Len(), marker(jukebox.AllPlaylist)})
	for i, name := range lib.PlaylistNames() {
		pl, err := lib.Playlist(name)
		if err != nil {
			return err
		}
		slot := ""
		if i < 10 {
			slot = fmt.Sprint(i)
		}
		t.AppendRow(table.Row{slot, name, pl.Len(), marker(name)})
	}
	t.Render()
	return nil
}

// completePlaylists offers the named playlists for shell completion.
func completePlaylists(dir, settings string) []string {
	store, err := common.OpenStore(dir, settings)
	if err != nil {
		return nil
	}
	return store.Library.PlaylistNames()
}
