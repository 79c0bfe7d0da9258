package extension

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/extension/exttest"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/prefs"
	"pgregory.net/rapid"
)

func ids(infos []Info) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.ID()
	}
	return out
}

func TestEnumerate_OrderedThenByID(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"c", "a", "b"} {
		exttest.WriteInstalled(t, root, id, "1.0.0")
	}

	got, err := NewStore(root).Enumerate(prefs.Preferences{Ordered: []string{"b", "a"}})
	if err != nil {
		t.Fatalf("Enumerate error: %v", err)
	}
	if want := []string{"b", "a", "c"}; !slices.Equal(ids(got), want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
}

func TestEnumerate_EnabledAndIconPath(t *testing.T) {
	root := t.TempDir()
	exttest.WriteInstalled(t, root, "qr", "1.0.0")
	exttest.WriteInstalled(t, root, "calc", "2.0.0")

	got, err := NewStore(root).Enumerate(prefs.Preferences{Enabled: []string{"qr", "ghost"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(got))
	}
	for _, info := range got {
		if info.Enabled != (info.ID() == "qr") {
			t.Errorf("%s enabled = %v", info.ID(), info.Enabled)
		}
		if want := filepath.Join(root, info.ID(), manifest.IconFileName); info.IconPath != want {
			t.Errorf("IconPath = %s, want %s", info.IconPath, want)
		}
	}
	if active := Enabled(got); len(active) != 1 || active[0].ID() != "qr" {
		t.Errorf("Enabled() = %v", ids(active))
	}
}

func TestEnumerate_SkipsUnusableEntries(t *testing.T) {
	root := t.TempDir()
	exttest.WriteInstalled(t, root, "good", "1.0.0")

	// A plain file, a hidden staging dir, a dir without manifest, a broken
	// manifest and a manifest for another id.
	exttest.WriteFiles(t, root, map[string]string{"README.txt": "hi"})
	exttest.WriteInstalled(t, filepath.Join(root, ".staging-good-123"), "good", "2.0.0")
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	exttest.WriteFiles(t, filepath.Join(root, "broken"), map[string]string{"manifest.json": "{"})
	exttest.WriteFiles(t, filepath.Join(root, "other"), map[string]string{
		"manifest.json": exttest.ManifestJSON("elsewhere", "1.0.0", ""),
	})

	got, err := NewStore(root).Enumerate(prefs.Default())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"good"}; !slices.Equal(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	if got[0].Manifest.VersionString() != "1.0.0" {
		t.Errorf("version = %s", got[0].Manifest.VersionString())
	}
}

func TestEnumerate_MissingRoot(t *testing.T) {
	got, err := NewStore(filepath.Join(t.TempDir(), "nope")).Enumerate(prefs.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no extensions, got %v", ids(got))
	}
}

func TestEnumerate_RootUnreadable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewStore(root).Enumerate(prefs.Default())
	if !errors.Is(err, apperr.ErrFileSystem) {
		t.Fatalf("expected FileSystem error, got %v", err)
	}
}

func TestReadIcon(t *testing.T) {
	root := t.TempDir()
	exttest.WriteInstalled(t, root, "qr", "1.0.0")
	s := NewStore(root)

	svg, err := s.ReadIcon("qr")
	if err != nil {
		t.Fatal(err)
	}
	if svg == "" {
		t.Error("expected icon contents")
	}

	for _, id := range []string{"missing", "../qr", ""} {
		if _, err := s.ReadIcon(id); !errors.Is(err, apperr.ErrFileSystem) {
			t.Errorf("ReadIcon(%q) = %v, want FileSystem error", id, err)
		}
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"qr", true},
		{"generate_qrcode", true},
		{"a-b-9", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"Upper", false},
		{"-lead", false},
	}
	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSortByOrder_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idGen := rapid.StringMatching(`[a-f]{1,3}`)
		installed := rapid.SliceOfDistinct(idGen, rapid.ID[string]).Draw(t, "installed")
		ordered := rapid.SliceOf(idGen).Draw(t, "ordered")

		infos := make([]Info, len(installed))
		for i, id := range installed {
			infos[i] = Info{Manifest: manifest.Manifest{ID: id}}
		}
		SortByOrder(infos, ordered)
		got := ids(infos)

		if len(got) != len(installed) {
			t.Fatalf("lost entries: %v", got)
		}

		first := func(id string) int { return slices.Index(ordered, id) }
		for i := 1; i < len(got); i++ {
			a, b := got[i-1], got[i]
			ra, rb := first(a), first(b)
			switch {
			case ra >= 0 && rb >= 0:
				if ra > rb {
					t.Fatalf("%s (rank %d) before %s (rank %d)", a, ra, b, rb)
				}
			case ra < 0 && rb >= 0:
				t.Fatalf("unranked %s before ranked %s", a, b)
			case ra < 0 && rb < 0:
				if a > b {
					t.Fatalf("unranked %s before %s", a, b)
				}
			}
		}
	})
}
