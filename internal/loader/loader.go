package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/rs/zerolog"
)

// Exported symbol names.
const (
	// EntryPoint is the function every extension library exports.
	EntryPoint = "run"
	// FreeFunc is an optional export that releases the string returned by
	// EntryPoint. Without it the C allocator's free is used.
	FreeFunc = "free_result"
)

var errNullResult = errors.New("extension returned a null pointer")

// Plugin is an opened extension library.
type Plugin interface {
	// Call invokes the entry point and returns its string, already copied
	// into Go memory and released on the native side.
	Call() (string, error)
	// Close unloads the library.
	Close() error
}

// Opener opens the library at path.
type Opener func(path string) (Plugin, error)

// Loader resolves, opens and calls extension libraries.
type Loader struct {
	root       string
	locks      *extension.Locks
	open       Opener
	keepLoaded bool
	logger     zerolog.Logger

	mu     sync.Mutex
	loaded map[string]Plugin
}

// Option configures a Loader.
type Option func(*Loader)

// WithLocks shares per-extension locks with the installer so a library is
// never replaced while it runs.
func WithLocks(l *extension.Locks) Option {
	return func(ld *Loader) { ld.locks = l }
}

// WithOpener replaces the platform backend.
func WithOpener(open Opener) Option {
	return func(ld *Loader) { ld.open = open }
}

// WithKeepLoaded keeps libraries open after a run instead of closing them.
func WithKeepLoaded(keep bool) Option {
	return func(ld *Loader) { ld.keepLoaded = keep }
}

// WithLogger sets the loader's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New returns a Loader for extensions under root.
func New(root string, opts ...Option) *Loader {
	ld := &Loader{
		root:   root,
		locks:  extension.NewLocks(),
		open:   openLibrary,
		logger: zerolog.Nop(),
		loaded: map[string]Plugin{},
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// LibraryPath returns where the library of extension id is expected.
func (ld *Loader) LibraryPath(id string) string {
	return filepath.Join(ld.root, id, platform.LibraryFileName)
}

// Run loads extension id, calls its entry point and interprets the result.
// A non-empty result is returned as a LibLoading error wrapping
// *apperr.ExtensionError.
func (ld *Loader) Run(id string) error {
	op := "run " + id
	if !extension.ValidID(id) {
		return apperr.Newf(apperr.KindLibLoading, op, "invalid extension id %q", id)
	}

	unlock := ld.locks.Lock(id)
	defer unlock()

	plugin, release, err := ld.acquire(id)
	if err != nil {
		return apperr.New(apperr.KindLibLoading, op, err)
	}
	defer release()

	out, err := plugin.Call()
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return fmt.Errorf("%s: %w", op, err)
		}
		return apperr.New(apperr.KindLibLoading, op, err)
	}

	if out != "" {
		ld.logger.Warn().Str("id", id).Str("message", out).Msg("extension reported an error")
		return apperr.New(apperr.KindLibLoading, op, &apperr.ExtensionError{ID: id, Message: out})
	}
	ld.logger.Debug().Str("id", id).Msg("extension ran")
	return nil
}

// acquire returns an open plugin for id and the function to call when done.
func (ld *Loader) acquire(id string) (Plugin, func(), error) {
	if ld.keepLoaded {
		ld.mu.Lock()
		p, ok := ld.loaded[id]
		ld.mu.Unlock()
		if ok {
			return p, func() {}, nil
		}
	}

	path := ld.LibraryPath(id)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("library not found: %w", err)
	}
	p, err := ld.open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if ld.keepLoaded {
		ld.mu.Lock()
		ld.loaded[id] = p
		ld.mu.Unlock()
		return p, func() {}, nil
	}
	return p, func() {
		if err := p.Close(); err != nil {
			ld.logger.Warn().Str("id", id).Err(err).Msg("closing extension library")
		}
	}, nil
}

// Unload closes a kept library of id, if any, so the next Run opens the
// file currently on disk. Callers must hold the extension's lock; the
// installer calls it through its release hook before replacing or removing
// the extension directory.
func (ld *Loader) Unload(id string) error {
	ld.mu.Lock()
	p, ok := ld.loaded[id]
	delete(ld.loaded, id)
	ld.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Close()
}

// Close unloads every kept library.
func (ld *Loader) Close() error {
	ld.mu.Lock()
	kept := ld.loaded
	ld.loaded = map[string]Plugin{}
	ld.mu.Unlock()

	var errs []error
	for id, p := range kept {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// decode validates the bytes a library returned.
func decode(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", apperr.Newf(apperr.KindConversion, "decode result", "extension returned invalid UTF-8")
	}
	return s, nil
}
