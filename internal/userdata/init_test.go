package userdata

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pointy-labs/pointy/internal/prefs"
)

func setupHome(t *testing.T) string {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "pointy")
	t.Setenv("POINTY_HOME", tmp)
	t.Setenv("POINTY_EXTENSIONS", "")
	return tmp
}

func TestInitGlobal_CreatesStructure(t *testing.T) {
	tmp := setupHome(t)

	var buf bytes.Buffer
	if err := InitGlobal(&buf); err != nil {
		t.Fatalf("InitGlobal failed: %v", err)
	}

	assertDirExists(t, tmp)
	assertDirExists(t, filepath.Join(tmp, "extensions"))

	p, err := prefs.Load(filepath.Join(tmp, "preferences.json"))
	if err != nil {
		t.Fatalf("preferences not readable: %v", err)
	}
	if p.Shortcut != prefs.DefaultShortcut {
		t.Errorf("shortcut = %q", p.Shortcut)
	}

	if !strings.Contains(buf.String(), "[ OK ]") {
		t.Error("expected [ OK ] in output")
	}
}

func TestInitGlobal_Idempotent(t *testing.T) {
	tmp := setupHome(t)

	var buf1 bytes.Buffer
	if err := InitGlobal(&buf1); err != nil {
		t.Fatalf("first InitGlobal failed: %v", err)
	}

	// Customize preferences; the second run must not overwrite them.
	prefsPath := filepath.Join(tmp, "preferences.json")
	if err := prefs.Save(prefsPath, prefs.Preferences{Shortcut: "Alt+Space", Enabled: []string{"qr"}}); err != nil {
		t.Fatal(err)
	}

	var buf2 bytes.Buffer
	if err := InitGlobal(&buf2); err != nil {
		t.Fatalf("second InitGlobal failed: %v", err)
	}
	if strings.Contains(buf2.String(), "[ OK ] Created") {
		t.Errorf("second run created something:\n%s", buf2.String())
	}

	p, err := prefs.Load(prefsPath)
	if err != nil {
		t.Fatal(err)
	}
	if p.Shortcut != "Alt+Space" {
		t.Errorf("preferences were overwritten: %+v", p)
	}
}

func TestInitGlobal_ExtensionsRootIsFile(t *testing.T) {
	tmp := setupHome(t)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "extensions"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := InitGlobal(&buf); err == nil {
		t.Fatal("expected error when extensions root is a file")
	}
}

func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory %s to exist: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory", path)
	}
}
