package platform

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChmod(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "lib.so")
	if err := os.WriteFile(path, []byte("elf"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Chmod(path, 0600); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want %o", perm, 0600)
		}
	}
}

func TestArchiveFileMode(t *testing.T) {
	tests := []struct {
		recorded fs.FileMode
		want     fs.FileMode
	}{
		{0o644, FilePerm},
		{0o755, ExecPerm},
		{0o4777, ExecPerm},
		{0o666, FilePerm},
		{0, FilePerm},
	}
	for _, tt := range tests {
		if got := ArchiveFileMode(tt.recorded); got != tt.want {
			t.Errorf("ArchiveFileMode(%o) = %o, want %o", tt.recorded, got, tt.want)
		}
	}
}
