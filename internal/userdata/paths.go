package userdata

import (
	"os"
	"path/filepath"

	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/config"
	"github.com/pointy-labs/pointy/internal/prefs"
)

// Directory and file name constants for the data directory layout.
const (
	ExtensionsDir     = "extensions"
	PreferencesFile   = prefs.FileName
	RegistryCacheFile = "registry-cache.json"
	UpdateStateFile   = "update-state.json"
)

// Permission constants.
const (
	DirPermNormal  os.FileMode = 0o755
	FilePermNormal os.FileMode = 0o644
)

// GetDataRoot returns the data directory. POINTY_HOME overrides the default
// ~/.pointy.
func GetDataRoot() string {
	return config.Dir()
}

// GetExtensionsRoot returns the directory holding one subdirectory per
// installed extension. It checks POINTY_EXTENSIONS first, then the
// extensions_dir setting, then falls back to <data>/extensions.
func GetExtensionsRoot() string {
	if v := os.Getenv(branding.EnvVar("EXTENSIONS")); v != "" {
		return v
	}
	if v := config.Get(config.KeyExtensionsDir); v != "" {
		return v
	}
	return filepath.Join(GetDataRoot(), ExtensionsDir)
}

// GetExtensionDir returns the directory for a single extension id.
func GetExtensionDir(id string) string {
	return filepath.Join(GetExtensionsRoot(), id)
}

// GetPreferencesPath returns the path to preferences.json.
func GetPreferencesPath() string {
	return filepath.Join(GetDataRoot(), PreferencesFile)
}

// GetRegistryCachePath returns the path of the cached online index.
func GetRegistryCachePath() string {
	return filepath.Join(GetDataRoot(), RegistryCacheFile)
}

// GetUpdateStatePath returns the path of the file recording the last
// automatic update check.
func GetUpdateStatePath() string {
	return filepath.Join(GetDataRoot(), UpdateStateFile)
}
