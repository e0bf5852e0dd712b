package rm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/spf13/cobra"
)

type Params struct {
	Tracks      []string `pos:"true" required:"true" help:"Tracks to delete, by display name or filename."`
	Force       bool     `short:"f" optional:"true" help:"Ignore unknown tracks, never prompt."`
	Interactive bool     `short:"i" optional:"true" help:"Prompt before every removal."`
	Verbose     bool     `short:"v" optional:"true" help:"Explain what is being done."`
	Dir         string   `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings    string   `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "rm",
		Short:       "Delete tracks from the library",
		Long:        "Delete the audio files of the given tracks and remove them from every playlist.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			exitCode := Run(params, os.Stdin, os.Stdout, os.Stderr)
			os.Exit(exitCode)
		},
	}.ToCobra()
}

func Run(params *Params, stdin io.Reader, stdout, stderr io.Writer) int {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		fmt.Fprintf(stderr, "rm: %v\n", err)
		return 1
	}

	hadError := false
	removed := 0
	for _, name := range params.Tracks {
		ok, err := removeTrack(store.Library, name, params, stdin, stdout, stderr)
		if err != nil {
			if !params.Force || !errors.Is(err, jukebox.ErrTrackNotFound) {
				fmt.Fprintf(stderr, "rm: %v\n", err)
				hadError = true
			}
			continue
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		if err := store.Save(); err != nil {
			fmt.Fprintf(stderr, "rm: save settings: %v\n", err)
			hadError = true
		}
	}

	if hadError {
		return 1
	}
	return 0
}

func removeTrack(lib *jukebox.Library, name string, params *Params, stdin io.Reader, stdout, stderr io.Writer) (bool, error) {
	t, err := lib.FindTrack(name)
	if err != nil {
		return false, fmt.Errorf("cannot remove '%s': %w", name, err)
	}

	if params.Interactive && !params.Force {
		fmt.Fprintf(stderr, "rm: remove track '%s' (%s)? ", t.Name, t.Filename)
		var response string
		fmt.Fscanln(stdin, &response)
		if response != "y" && response != "yes" {
			return false, nil
		}
	}

	if err := lib.DeleteFile(t.Filename); err != nil {
		return false, fmt.Errorf("cannot remove '%s': %w", name, err)
	}

	if params.Verbose {
		fmt.Fprintf(stdout, "removed '%s'\n", t.Filename)
	}
	return true, nil
}
