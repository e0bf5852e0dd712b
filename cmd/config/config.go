package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/settings"
	"github.com/spf13/cobra"
)

type Params struct {
	Volume   float64 `optional:"true" help:"Set the volume, 0 to 1." default:"-1"`
	Fade     int     `optional:"true" help:"Set the fade in milliseconds, 0 to 5000 in steps of 100." default:"-1"`
	Shuffle  string  `optional:"true" help:"Turn shuffle on or off." default:"keep" alts:"keep,on,off"`
	AudioDir string  `long:"audio-dir" optional:"true" help:"Store a custom audio directory. Use 'default' to go back to <data dir>/files."`
	Path     bool    `optional:"true" help:"Print the settings file path and exit."`
	Settings string  `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "config",
		Short:       "Show or change player settings",
		Long:        "Print the settings file as JSON. Flags change a setting before printing.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			os.Exit(Run(params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

func Run(params *Params, stdout, stderr io.Writer) int {
	_, path := common.ResolveDirs("", params.Settings, "")
	if params.Path {
		fmt.Fprintln(stdout, path)
		return 0
	}

	st, err := settings.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	changed, err := apply(st, params)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if changed {
		if err := settings.Save(path, st); err != nil {
			fmt.Fprintf(stderr, "config: %v\n", err)
			return 1
		}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))
	return 0
}

func apply(st *settings.Settings, params *Params) (bool, error) {
	changed := false
	if params.Volume >= 0 {
		st.Volume = settings.ClampVolume(params.Volume)
		changed = true
	}
	if params.Fade >= 0 {
		st.FadeMs = settings.ClampFade(params.Fade)
		changed = true
	}
	switch params.Shuffle {
	case "on":
		st.Shuffle, changed = true, true
	case "off":
		st.Shuffle, changed = false, true
	case "keep", "":
	default:
		return false, fmt.Errorf("shuffle must be on or off, got %q", params.Shuffle)
	}
	switch params.AudioDir {
	case "":
	case "default":
		st.AudioDir, changed = "", true
	default:
		dir, err := filepath.Abs(params.AudioDir)
		if err != nil {
			return false, err
		}
		st.AudioDir, changed = dir, true
	}
	return changed, nil
}
