package playlist

import (
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/spf13/cobra"
)

type CreateParams struct {
	Name     string `pos:"true" required:"true" help:"Name of the new playlist."`
	Dir      string `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func CreateCmd() *cobra.Command {
	return boa.CmdT[CreateParams]{
		Use:         "create <name>",
		Short:       "Create an empty playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *CreateParams, cmd *cobra.Command, args []string) {
			if err := RunCreate(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "playlist create: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func RunCreate(params *CreateParams, stdout io.Writer) error {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		return err
	}
	pl, err := store.Library.CreatePlaylist(params.Name)
	if err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "created playlist '%s'\n", pl.Name())
	return nil
}

type RenameParams struct {
	From     string `pos:"true" required:"true" help:"Current playlist name."`
	To       string `pos:"true" required:"true" help:"New playlist name."`
	Dir      string `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func RenameCmd() *cobra.Command {
	return boa.CmdT[RenameParams]{
		Use:         "rename <from> <to>",
		Short:       "Rename a playlist",
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *RenameParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completePlaylists(p.Dir, p.Settings), cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
		},
		RunFunc: func(params *RenameParams, cmd *cobra.Command, args []string) {
			if err := RunRename(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "playlist rename: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func RunRename(params *RenameParams, stdout io.Writer) error {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		return err
	}
	if err := store.Library.RenamePlaylist(params.From, params.To); err != nil {
		return err
	}
	if store.Settings.CurrentPlaylist == params.From {
		store.Settings.CurrentPlaylist = params.To
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "renamed '%s' to '%s'\n", params.From, params.To)
	return nil
}

type MemberParams struct {
	Playlist string   `pos:"true" required:"true" help:"Playlist to edit."`
	Tracks   []string `pos:"true" required:"true" help:"Tracks, by display name or filename."`
	Dir      string   `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string   `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func AddCmd() *cobra.Command {
	return memberCmd("add", "Add tracks to a playlist", RunAdd)
}

func RemoveCmd() *cobra.Command {
	return memberCmd("rm", "Remove tracks from a playlist (the files are kept)", RunRemove)
}

func memberCmd(use, short string, run func(*MemberParams, io.Writer) error) *cobra.Command {
	return boa.CmdT[MemberParams]{
		Use:         use + " <playlist> <track>...",
		Short:       short,
		ParamEnrich: common.DefaultParamEnricher(),
		ValidArgsFunc: func(p *MemberParams, cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completePlaylists(p.Dir, p.Settings), cobra.ShellCompDirectiveKeepOrder | cobra.ShellCompDirectiveNoFileComp
		},
		RunFunc: func(params *MemberParams, cmd *cobra.Command, args []string) {
			if err := run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "playlist %s: %v\n", use, err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func RunAdd(params *MemberParams, stdout io.Writer) error {
	return editMembers(params, stdout, "added", func(store *common.Store, filename string) error {
		return store.Library.AddToPlaylist(params.Playlist, filename)
	})
}

func RunRemove(params *MemberParams, stdout io.Writer) error {
	return editMembers(params, stdout, "removed", func(store *common.Store, filename string) error {
		return store.Library.RemoveFromPlaylist(params.Playlist, filename)
	})
}

func editMembers(params *MemberParams, stdout io.Writer, verb string, edit func(*common.Store, string) error) error {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		return err
	}
	for _, name := range params.Tracks {
		t, err := store.Library.FindTrack(name)
		if err != nil {
			return err
		}
		if err := edit(store, t.Filename); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s '%s'\n", verb, t.Name)
	}
	return store.Save()
}
