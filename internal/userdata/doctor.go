package userdata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/pointy-labs/pointy/internal/prefs"
)

// Report counts what a doctor run found.
type Report struct {
	OK       int
	Warnings int
	Missing  int
	Fixed    int
}

// Healthy reports whether nothing needs attention.
func (r Report) Healthy() bool {
	return r.Warnings == 0 && r.Missing == 0
}

type checker struct {
	w      io.Writer
	fix    bool
	report Report
}

func (c *checker) ok(format string, args ...any) {
	c.report.OK++
	fmt.Fprintf(c.w, "  [ OK ] "+format+"\n", args...)
}

func (c *checker) miss(format string, args ...any) {
	c.report.Missing++
	fmt.Fprintf(c.w, "  [MISS] "+format+"\n", args...)
}

func (c *checker) warn(format string, args ...any) {
	c.report.Warnings++
	fmt.Fprintf(c.w, "  [WARN] "+format+"\n", args...)
}

func (c *checker) fixed(format string, args ...any) {
	c.report.Fixed++
	fmt.Fprintf(c.w, "  [FIX ] "+format+"\n", args...)
}

func (c *checker) fail(format string, args ...any) {
	fmt.Fprintf(c.w, "  [FAIL] "+format+"\n", args...)
}

// CheckInstall validates the data directory, preferences.json and every
// installed extension. When fix is true it repairs what it safely can:
// missing directories, unreadable preferences, leftover staging
// directories, and enabled ids that are no longer installed.
func CheckInstall(w io.Writer, fix bool) (Report, error) {
	c := &checker{w: w, fix: fix}
	root := GetDataRoot()

	fmt.Fprintln(w, "Data directory:")
	if _, err := os.Stat(root); os.IsNotExist(err) {
		c.miss("%s does not exist", root)
		if !fix {
			fmt.Fprintf(w, "         Run '%s init' to create\n", branding.CLIName())
			return c.report, nil
		}
		fmt.Fprintln(w, "  [FIX ] Running init...")
		if err := InitGlobal(w); err != nil {
			return c.report, fmt.Errorf("auto-fix init: %w", err)
		}
		c.report.Fixed++
	} else {
		c.ok("%s exists", root)
	}

	extRoot := GetExtensionsRoot()
	c.checkDir(extRoot)

	fmt.Fprintln(w, "Preferences:")
	p := c.checkPreferences(GetPreferencesPath())

	fmt.Fprintln(w, "Extensions:")
	installed := c.checkExtensions(extRoot)
	c.checkDangling(p, installed)

	return c.report, nil
}

func (c *checker) checkDir(path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		c.miss("%s does not exist", path)
		if c.fix {
			if err := os.MkdirAll(path, DirPermNormal); err != nil {
				c.fail("Could not create %s: %v", path, err)
				return
			}
			c.fixed("Created %s", path)
		}
		return
	}
	if err != nil {
		c.fail("%s: %v", path, err)
		return
	}
	if !info.IsDir() {
		c.warn("%s exists but is not a directory", path)
		return
	}
	c.ok("%s exists", path)
}

func (c *checker) checkPreferences(path string) prefs.Preferences {
	p, err := prefs.Load(path)
	if err == nil {
		c.ok("%s (%d enabled, %d ordered)", path, len(p.Enabled), len(p.Ordered))
		return p
	}

	if errors.Is(err, fs.ErrNotExist) {
		c.miss("%s does not exist", path)
	} else {
		c.warn("%s is unreadable: %v", path, err)
	}
	if !c.fix {
		return prefs.Default()
	}

	// Keep the broken file next to the fresh one.
	if _, statErr := os.Stat(path); statErr == nil {
		backup := path + ".bak"
		if err := os.Rename(path, backup); err != nil {
			c.fail("Could not back up %s: %v", path, err)
			return prefs.Default()
		}
		fmt.Fprintf(c.w, "         Moved the old file to %s\n", backup)
	}
	if err := prefs.Save(path, prefs.Default()); err != nil {
		c.fail("Could not write %s: %v", path, err)
		return prefs.Default()
	}
	c.fixed("Wrote default preferences to %s", path)
	return prefs.Default()
}

func (c *checker) checkExtensions(root string) map[string]bool {
	installed := map[string]bool{}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			c.fail("%s: %v", root, err)
		}
		return installed
	}

	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(root, name)
		if !e.IsDir() {
			continue
		}

		if strings.HasPrefix(name, extension.StagingPrefix) || strings.HasPrefix(name, extension.TrashPrefix) {
			c.warn("%s is left over from an interrupted install", path)
			if c.fix {
				if err := os.RemoveAll(path); err != nil {
					c.fail("Could not remove %s: %v", path, err)
					continue
				}
				c.fixed("Removed %s", path)
			}
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue
		}

		if c.checkExtension(name, path) {
			installed[name] = true
		}
	}
	return installed
}

// checkExtension reports whether dir holds a loadable extension.
func (c *checker) checkExtension(name, dir string) bool {
	m, err := manifest.ParseFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		c.warn("%s: %v", name, err)
		return false
	}
	if m.ID != name {
		c.warn("%s: manifest id %q does not match the directory name", name, m.ID)
		return false
	}

	healthy := true
	for _, file := range []string{manifest.IconFileName, platform.LibraryFileName} {
		if _, err := os.Stat(filepath.Join(dir, file)); err != nil {
			c.miss("%s: %s not found", name, file)
			healthy = false
		}
	}
	if healthy {
		c.ok("%s %s", m.ID, m.VersionString())
	}
	return true
}

func (c *checker) checkDangling(p prefs.Preferences, installed map[string]bool) {
	var dangling []string
	for _, id := range p.Enabled {
		if !installed[id] {
			dangling = append(dangling, id)
		}
	}
	if len(dangling) == 0 {
		return
	}

	c.warn("enabled but not installed: %s", strings.Join(dangling, ", "))
	if !c.fix {
		return
	}
	path := GetPreferencesPath()
	for _, id := range dangling {
		p.Forget(id)
	}
	if err := prefs.Save(path, p); err != nil {
		c.fail("Could not update %s: %v", path, err)
		return
	}
	c.fixed("Removed %d dangling id(s) from %s", len(dangling), path)
}
