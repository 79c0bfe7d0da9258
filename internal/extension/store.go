package extension

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/prefs"
	"github.com/rs/zerolog"
)

// Name prefixes of the hidden working directories the installer creates next
// to installed extensions.
const (
	StagingPrefix = ".staging-"
	TrashPrefix   = ".trash-"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidID reports whether id is safe to use as a directory name under the
// extensions root.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Store reads installed extensions from the extensions root.
type Store struct {
	root   string
	logger zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for skipped directories.
func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store over root.
func NewStore(root string, opts ...StoreOption) *Store {
	s := &Store{root: root, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the extensions root directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory of extension id.
func (s *Store) Dir(id string) string { return filepath.Join(s.root, id) }

// Enumerate lists installed extensions, marks the ones enabled in p, and
// sorts them by p.Ordered. Manifests are read from disk on every call.
// A missing root yields an empty list; any other error reading the root is
// returned. Directories without a readable manifest are skipped.
func (s *Store) Enumerate(p prefs.Preferences) ([]Info, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, apperr.New(apperr.KindFileSystem, "read extensions directory", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		dir := filepath.Join(s.root, name)
		m, err := manifest.ParseFile(filepath.Join(dir, manifest.FileName))
		if err != nil {
			s.logger.Debug().Str("dir", dir).Err(err).Msg("skipping extension without a usable manifest")
			continue
		}
		if m.ID != name {
			s.logger.Debug().Str("dir", dir).Str("id", m.ID).Msg("skipping extension whose id does not match its directory")
			continue
		}

		infos = append(infos, Info{
			Manifest: *m,
			IconPath: filepath.Join(dir, manifest.IconFileName),
			Enabled:  p.IsEnabled(m.ID),
		})
	}

	SortByOrder(infos, p.Ordered)
	return infos, nil
}

// Get returns the installed extension id.
func (s *Store) Get(id string) (*manifest.Manifest, error) {
	if !ValidID(id) {
		return nil, apperr.Newf(apperr.KindFileSystem, "lookup extension", "invalid extension id %q: %w", id, os.ErrNotExist)
	}
	return manifest.ParseFile(filepath.Join(s.Dir(id), manifest.FileName))
}

// ReadIcon returns the contents of the extension's icon.svg.
func (s *Store) ReadIcon(id string) (string, error) {
	if !ValidID(id) {
		return "", apperr.Newf(apperr.KindFileSystem, "read icon", "invalid extension id %q: %w", id, os.ErrNotExist)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(id), manifest.IconFileName))
	if err != nil {
		return "", apperr.New(apperr.KindFileSystem, "read icon "+id, err)
	}
	return string(data), nil
}
