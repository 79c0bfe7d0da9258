package registry

import (
	"testing"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/manifest"
)

func manifests(pairs ...string) []manifest.Manifest {
	var out []manifest.Manifest
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, manifest.Manifest{ID: pairs[i], Name: pairs[i+1]})
	}
	return out
}

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	list := manifests("qr", "QR Code", "words", "Word Count")
	got := Search("  ", list)
	if len(got) != 2 || got[0].Manifest.ID != "qr" || got[1].Manifest.ID != "words" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestSearch_FuzzyMatch(t *testing.T) {
	list := manifests(
		"generate_qrcode", "Generate QR Code",
		"text_metadata", "Text Metadata",
		"color_picker", "Color Picker",
	)

	got := Search("qrc", list)
	if len(got) == 0 || got[0].Manifest.ID != "generate_qrcode" {
		t.Fatalf("expected generate_qrcode first, got %+v", got)
	}

	got = Search("META", list)
	if len(got) == 0 || got[0].Manifest.ID != "text_metadata" {
		t.Errorf("expected case-insensitive match on text_metadata, got %+v", got)
	}

	if got := Search("zzzz", list); len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}
}

func TestSearchInstalled(t *testing.T) {
	infos := []extension.Info{
		{Manifest: manifest.Manifest{ID: "qr", Name: "QR Code"}, Enabled: true},
		{Manifest: manifest.Manifest{ID: "words", Name: "Word Count"}},
	}

	got := SearchInstalled("word", infos)
	if len(got) != 1 || got[0].ID() != "words" {
		t.Fatalf("unexpected result: %+v", got)
	}

	got = SearchInstalled("", infos)
	if len(got) != 2 || !got[0].Enabled {
		t.Errorf("expected all installed extensions in order, got %+v", got)
	}
}
