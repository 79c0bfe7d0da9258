// Package prefs is the launcher's configuration service: the enabled and
// ordered extension lists plus the global shortcut and autolaunch flag.
// A single Store guards the in-memory value with a reader/writer lock and
// persists every write atomically before it becomes visible.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pointy-labs/pointy/internal/apperr"
)

// FileName is the preferences file inside the data directory.
const FileName = "preferences.json"

// DefaultShortcut opens the launcher window.
const DefaultShortcut = "CommandOrControl+Shift+Space"

// Preferences is the persisted launcher configuration.
type Preferences struct {
	Autolaunch bool     `json:"autolaunch"`
	Shortcut   string   `json:"shortcut"`
	Enabled    []string `json:"enabled"`
	Ordered    []string `json:"ordered"`
}

// Default returns the preferences written on first run.
func Default() Preferences {
	return Preferences{
		Shortcut: DefaultShortcut,
		Enabled:  []string{},
		Ordered:  []string{},
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	c := p
	c.Enabled = slices.Clone(p.Enabled)
	c.Ordered = slices.Clone(p.Ordered)
	return c
}

// IsEnabled reports whether id is in the enabled set.
func (p Preferences) IsEnabled(id string) bool {
	return slices.Contains(p.Enabled, id)
}

// Toggle adds id to the enabled set, or removes it if already present.
func (p *Preferences) Toggle(id string) {
	if p.IsEnabled(id) {
		p.Enabled = slices.DeleteFunc(p.Enabled, func(e string) bool { return e == id })
		return
	}
	p.Enabled = append(p.Enabled, id)
}

// Enable adds id to the enabled set if it is missing.
func (p *Preferences) Enable(id string) {
	if !p.IsEnabled(id) {
		p.Enabled = append(p.Enabled, id)
	}
}

// Forget drops id from both lists.
func (p *Preferences) Forget(id string) {
	match := func(e string) bool { return e == id }
	p.Enabled = slices.DeleteFunc(p.Enabled, match)
	p.Ordered = slices.DeleteFunc(p.Ordered, match)
}

// normalize turns nil lists into empty ones and removes duplicate ids,
// keeping the first occurrence.
func (p *Preferences) normalize() {
	p.Enabled = dedupe(p.Enabled)
	p.Ordered = dedupe(p.Ordered)
	if p.Shortcut == "" {
		p.Shortcut = DefaultShortcut
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Load reads and parses a preferences file.
func Load(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, apperr.New(apperr.KindFileSystem, "read preferences", err)
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, apperr.New(apperr.KindSerialization, "parse preferences "+path, err)
	}
	p.normalize()
	return p, nil
}

// Save writes p to path atomically: the JSON is written to a temporary file
// in the same directory and renamed over the target.
func Save(path string, p Preferences) error {
	p.normalize()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return apperr.New(apperr.KindSerialization, "encode preferences", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.New(apperr.KindFileSystem, "create preferences directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".preferences-*.json")
	if err != nil {
		return apperr.New(apperr.KindFileSystem, "create temp preferences", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		cleanup()
		return apperr.New(apperr.KindFileSystem, "write preferences", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return apperr.New(apperr.KindFileSystem, "sync preferences", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperr.New(apperr.KindFileSystem, "close preferences", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return apperr.New(apperr.KindFileSystem, fmt.Sprintf("replace %s", path), err)
	}
	return nil
}
