package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/gigurra/musicbox/cmd/common/ytdl"
	"github.com/spf13/cobra"
)

type Params struct {
	URLs     []string `pos:"true" required:"true" help:"YouTube video or playlist URLs, separated by spaces or commas."`
	Playlist string   `short:"p" optional:"true" help:"Also add the downloaded tracks to this playlist."`
	Notify   bool     `short:"n" optional:"true" help:"Show a desktop notification when the batch ends."`
	Ytdlp    string   `optional:"true" help:"yt-dlp executable (default: yt-dlp on PATH)."`
	Verbose  bool     `short:"v" optional:"true" help:"Log download activity to stderr."`
	Dir      string   `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string   `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "download",
		Short:       "Download YouTube audio into the library",
		Long:        "Download the audio of YouTube videos or playlists as mp3 with yt-dlp.\nInterrupting the command stops the batch and removes partial files.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			exitCode := Run(ctx, params, os.Stdout, os.Stderr)
			stop()
			os.Exit(exitCode)
		},
	}.ToCobra()
}

type summary struct {
	saved     []string
	failed    int
	cancelled int
}

func Run(ctx context.Context, params *Params, stdout, stderr io.Writer) int {
	common.LogToStderr(params.Verbose)

	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		fmt.Fprintf(stderr, "download: %v\n", err)
		return 1
	}
	if params.Playlist != "" {
		if params.Playlist == jukebox.AllPlaylist {
			fmt.Fprintf(stderr, "download: %v\n", jukebox.ErrReservedPlaylist)
			return 1
		}
		if _, err := store.Library.Playlist(params.Playlist); err != nil {
			fmt.Fprintf(stderr, "download: %v\n", err)
			return 1
		}
	}

	svc := ytdl.NewService(store.Library.Dir())
	svc.SetBinary(params.Ytdlp)
	if _, err := svc.CheckInstalled(ctx); err != nil {
		fmt.Fprintf(stderr, "download: %v\n", err)
		return 1
	}

	urls := ytdl.SplitURLs(strings.Join(params.URLs, " "))
	events, err := svc.Start(ctx, urls)
	if err != nil {
		fmt.Fprintf(stderr, "download: %v\n", err)
		return 1
	}
	var sum summary
	for e := range events {
		if line, ok := report(e); ok {
			fmt.Fprintln(stdout, line)
		}
		switch e.Status {
		case ytdl.StatusSaved:
			if err := addToLibrary(store, params.Playlist, e.Filename); err != nil {
				fmt.Fprintf(stderr, "download: %v\n", err)
				sum.failed++
				continue
			}
			sum.saved = append(sum.saved, e.Filename)
		case ytdl.StatusError:
			sum.failed++
		case ytdl.StatusCancelled:
			sum.cancelled++
		}
	}
	if ctx.Err() != nil {
		cleanup(svc, stderr)
	}

	if len(sum.saved) > 0 {
		if err := store.Save(); err != nil {
			fmt.Fprintf(stderr, "download: save settings: %v\n", err)
			sum.failed++
		}
	}

	msg := sum.String(params.Playlist)
	fmt.Fprintln(stdout, msg)
	if params.Notify {
		common.Notify("musicbox", msg)
	}

	if sum.failed > 0 || sum.cancelled > 0 {
		return 1
	}
	return 0
}

// cleanup runs once the batch has drained so the partial files are gone
// before the process exits.
func cleanup(svc *ytdl.Service, stderr io.Writer) {
	removed, err := svc.Cancel(5 * time.Second)
	if err != nil {
		fmt.Fprintf(stderr, "download: cleanup: %v\n", err)
	} else if len(removed) > 0 {
		fmt.Fprintf(stderr, "download: removed %d partial file(s)\n", len(removed))
	}
}

// report decides which events are worth a line of output. Progress is shown
// once per item instead of once per yt-dlp tick.
func report(e ytdl.Event) (string, bool) {
	switch e.Status {
	case ytdl.StatusDownloading:
		return e.Message(), e.Progress == 0
	case ytdl.StatusCompleted:
		return fmt.Sprintf("Success! (%d/%d)", e.Index, e.Total), true
	case ytdl.StatusError:
		return fmt.Sprintf("Error: %s: %v", e.URL, e.Err), true
	}
	return e.Message(), true
}

func addToLibrary(store *common.Store, playlist, filename string) error {
	if _, err := store.Library.AddFile(filename); err != nil {
		return err
	}
	if playlist == "" {
		return nil
	}
	return store.Library.AddToPlaylist(playlist, filename)
}

func (s summary) String(playlist string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Downloaded %d track(s)", len(s.saved))
	if playlist != "" && len(s.saved) > 0 {
		fmt.Fprintf(&b, " into %s", playlist)
	}
	if s.failed > 0 {
		fmt.Fprintf(&b, ", %d failed", s.failed)
	}
	if s.cancelled > 0 {
		fmt.Fprintf(&b, ", %d cancelled", s.cancelled)
	}
	return b.String()
}
