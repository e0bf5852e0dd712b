package rm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gigurra/musicbox/cmd/common/settings"
)

type fixture struct {
	dir      string
	settings string
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{dir: filepath.Join(root, "files"), settings: filepath.Join(root, "settings.json")}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(f.dir, name), []byte("mp3"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) run(params *Params, stdin string) (string, string, int) {
	params.Dir, params.Settings = f.dir, f.settings
	var stdout, stderr bytes.Buffer
	code := Run(params, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (f *fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

func TestRemoveByName(t *testing.T) {
	f := newFixture(t, "Song_One_[aaaaaaaaaaa].mp3", "Song_Two_[bbbbbbbbbbb].mp3")

	st := settings.Default()
	st.Playlists["Playlist 0"] = []string{"Song_One_[aaaaaaaaaaa].mp3", "Song_Two_[bbbbbbbbbbb].mp3"}
	if err := settings.Save(f.settings, st); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := f.run(&Params{Tracks: []string{"Song One"}, Verbose: true}, "")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if f.exists("Song_One_[aaaaaaaaaaa].mp3") {
		t.Error("file should be deleted")
	}
	if !f.exists("Song_Two_[bbbbbbbbbbb].mp3") {
		t.Error("other file should be kept")
	}
	if !strings.Contains(stdout, "removed 'Song_One_[aaaaaaaaaaa].mp3'") {
		t.Errorf("unexpected output: %q", stdout)
	}

	saved, err := settings.Load(f.settings)
	if err != nil {
		t.Fatal(err)
	}
	if got := saved.Playlists["Playlist 0"]; len(got) != 1 || got[0] != "Song_Two_[bbbbbbbbbbb].mp3" {
		t.Errorf("playlist = %v, want only Song Two", got)
	}
}

func TestRemoveByFilename(t *testing.T) {
	f := newFixture(t, "Song_One_[aaaaaaaaaaa].mp3")
	if _, stderr, code := f.run(&Params{Tracks: []string{"Song_One_[aaaaaaaaaaa].mp3"}}, ""); code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if f.exists("Song_One_[aaaaaaaaaaa].mp3") {
		t.Error("file should be deleted")
	}
}

func TestRemoveUnknown(t *testing.T) {
	f := newFixture(t, "Song_One_[aaaaaaaaaaa].mp3")

	_, stderr, code := f.run(&Params{Tracks: []string{"Nope"}}, "")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "cannot remove 'Nope'") {
		t.Errorf("stderr = %q", stderr)
	}

	_, stderr, code = f.run(&Params{Tracks: []string{"Nope"}, Force: true}, "")
	if code != 0 || stderr != "" {
		t.Errorf("-f should ignore unknown tracks, code %d stderr %q", code, stderr)
	}
}

func TestInteractive(t *testing.T) {
	tests := []struct {
		answer string
		kept   bool
	}{
		{"y\n", false},
		{"yes\n", false},
		{"n\n", true},
		{"\n", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			f := newFixture(t, "Song_One_[aaaaaaaaaaa].mp3")
			_, stderr, code := f.run(&Params{Tracks: []string{"Song One"}, Interactive: true}, tt.answer)
			if code != 0 {
				t.Fatalf("exit code %d", code)
			}
			if !strings.Contains(stderr, "remove track 'Song One'") {
				t.Errorf("missing prompt, stderr: %q", stderr)
			}
			if got := f.exists("Song_One_[aaaaaaaaaaa].mp3"); got != tt.kept {
				t.Errorf("kept = %v, want %v", got, tt.kept)
			}
		})
	}
}
