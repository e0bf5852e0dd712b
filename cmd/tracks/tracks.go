package tracks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/musicbox/cmd/common"
	"github.com/gigurra/musicbox/cmd/common/jukebox"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

type Params struct {
	Playlist string `short:"p" optional:"true" help:"Only list the members of this playlist, in playlist order."`
	Long     bool   `short:"l" optional:"true" help:"Also read each file to show its length."`
	JSON     bool   `optional:"true" help:"Output as JSON."`
	Dir      string `short:"D" optional:"true" help:"Audio directory (default: <data dir>/files)."`
	Settings string `short:"S" optional:"true" help:"Settings file (default: <data dir>/settings.json)."`
}

// Entry is one listed track.
type Entry struct {
	Name      string   `json:"name"`
	Filename  string   `json:"filename"`
	VideoID   string   `json:"video_id,omitempty"`
	Playlists []string `json:"playlists"`
	Seconds   float64  `json:"seconds,omitempty"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "tracks",
		Short:       "List the tracks in the library",
		Long:        "List every downloaded track with the playlists it belongs to.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			os.Exit(Run(params, os.Stdout, os.Stderr))
		},
	}.ToCobra()
}

func Run(params *Params, stdout, stderr io.Writer) int {
	store, err := common.OpenStore(params.Dir, params.Settings)
	if err != nil {
		fmt.Fprintf(stderr, "tracks: %v\n", err)
		return 1
	}

	entries, err := collect(store.Library, params)
	if err != nil {
		fmt.Fprintf(stderr, "tracks: %v\n", err)
		return 1
	}

	if params.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintf(stderr, "tracks: %v\n", err)
			return 1
		}
		return 0
	}

	render(stdout, entries, params.Long)
	return 0
}

func collect(lib *jukebox.Library, params *Params) ([]Entry, error) {
	var tracks []*jukebox.Track
	if params.Playlist != "" {
		pl, err := lib.Playlist(params.Playlist)
		if err != nil {
			return nil, err
		}
		for _, filename := range pl.Files() {
			t, err := lib.Track(filename)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, t)
		}
	} else {
		tracks = lib.Tracks()
	}

	entries := make([]Entry, 0, len(tracks))
	for _, t := range tracks {
		e := Entry{
			Name:      t.Name,
			Filename:  t.Filename,
			VideoID:   jukebox.ExternalID(t.Filename),
			Playlists: t.Playlists(),
		}
		if params.Long {
			if d, err := jukebox.ProbeDuration(lib.Path(t.Filename)); err == nil {
				e.Seconds = d.Seconds()
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func render(w io.Writer, entries []Entry, long bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	termWidth := common.TermWidth()
	t.SetAllowedRowLength(termWidth)

	header := table.Row{"#", "Title"}
	if long {
		header = append(header, "Length")
	}
	header = append(header, "Playlists", "Video")
	t.AppendHeader(header)

	// #=4, Video=11, borders/padding ~16
	fixedWidth := 4 + 11 + 16 + 30
	if long {
		fixedWidth += 8
	}
	titleWidth := termWidth - fixedWidth
	if titleWidth < 20 {
		titleWidth = 20
	}

	for i, e := range entries {
		row := table.Row{i + 1, runewidth.Truncate(e.Name, titleWidth, "…")}
		if long {
			length := "?"
			if e.Seconds > 0 {
				length = jukebox.FormatClock(time.Duration(e.Seconds * float64(time.Second)))
			}
			row = append(row, length)
		}
		row = append(row, runewidth.Truncate(strings.Join(e.Playlists, ", "), 30, "…"), e.VideoID)
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tracks", len(entries))})
	t.Render()
}
