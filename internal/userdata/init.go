package userdata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/pointy-labs/pointy/internal/prefs"
)

// InitGlobal creates the data directory, the extensions root, and a default
// preferences.json. It prints progress messages to w. Existing items are
// skipped with a message.
func InitGlobal(w io.Writer) error {
	// Create data root.
	if err := ensureDir(w, GetDataRoot(), DirPermNormal); err != nil {
		return err
	}

	// Create extensions root.
	if err := ensureDir(w, GetExtensionsRoot(), DirPermNormal); err != nil {
		return err
	}

	// Create preferences.json with defaults.
	return ensurePreferences(w, GetPreferencesPath())
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(w io.Writer, path string, perm os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	// MkdirAll may not apply exact perms if parent dirs needed creation.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}

// ensurePreferences writes default preferences if the file is missing.
func ensurePreferences(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  [SKIP] %s already exists\n", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	if err := prefs.Save(path, prefs.Default()); err != nil {
		return fmt.Errorf("creating preferences: %w", err)
	}
	fmt.Fprintf(w, "  [ OK ] Created %s\n", path)
	return nil
}
