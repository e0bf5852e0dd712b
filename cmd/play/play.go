package play

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/gigurra/musicbox/cmd/common/settings"
	"github.com/gigurra/musicbox/cmd/common/ytdl"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type Params struct {
	Dir      string `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
	Playlist string `short:"p" optional:"true" help:"Start in this playlist instead of the last one."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play",
		Short:       "Open the interactive player",
		Long:        "Play the library with transport controls, manage playlists and download new tracks.\nPress ? inside the player for key bindings.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func run(params *Params) error {
	_, settingsPath := common.ResolveDirs(params.Dir, params.Settings, "")
	st, err := settings.Load(settingsPath)
	if err != nil {
		return err
	}
	audioDir, _ := common.ResolveDirs(params.Dir, params.Settings, st.AudioDir)
	if params.Playlist != "" {
		st.CurrentPlaylist = params.Playlist
		st.CurrentTrack = ""
	}

	logFile, err := common.LogToFile(common.LogPath())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	slog.Info("starting player", "dir", audioDir, "settings", settingsPath, "audio", jukebox.AudioAvailable)

	session, err := jukebox.Open(afero.NewOsFs(), audioDir, jukebox.NewEngine(st.Volume), st)
	if err != nil {
		return err
	}
	defer session.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("directory watcher unavailable", "err", err)
		watcher = nil
	} else {
		defer watcher.Close()
		if err := watcher.Add(audioDir); err != nil {
			slog.Warn("cannot watch audio dir", "dir", audioDir, "err", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	downloads := ytdl.NewService(audioDir)
	m := newModel(ctx, session, downloads, watcher)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}

	if downloads.Running() {
		if _, err := downloads.Cancel(2 * time.Second); err != nil {
			slog.Warn("cleanup after cancelled download failed", "err", err)
		}
	}

	session.Export(st)
	if err := settings.Save(settingsPath, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	slog.Info("player closed")
	return nil
}
