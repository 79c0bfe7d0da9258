package extension

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/rs/zerolog"
)

// Installer replaces extension directories with verified archive contents.
type Installer struct {
	root    string
	locks   *Locks
	release func(id string) error
	logger  zerolog.Logger
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithLocks shares a lock set with other components touching the same
// extensions, such as the plugin loader.
func WithLocks(l *Locks) InstallerOption {
	return func(i *Installer) { i.locks = l }
}

// WithRelease sets a function called with the extension's lock held just
// before its directory is replaced or removed. The loader uses it to close
// a kept library handle.
func WithRelease(fn func(id string) error) InstallerOption {
	return func(i *Installer) { i.release = fn }
}

// WithInstallerLogger sets the installer's logger.
func WithInstallerLogger(l zerolog.Logger) InstallerOption {
	return func(i *Installer) { i.logger = l }
}

// NewInstaller returns an Installer writing under root.
func NewInstaller(root string, opts ...InstallerOption) *Installer {
	i := &Installer{root: root, locks: NewLocks(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Checksum returns the lowercase hex SHA-256 of payload.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum compares payload's SHA-256 with expected. Hex digits are
// compared case-insensitively.
func VerifyChecksum(payload []byte, expected string) error {
	actual := Checksum(payload)
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return apperr.Newf(apperr.KindChecksum, "verify checksum", "expected %s, got %s", expected, actual)
	}
	return nil
}

// Install verifies payload against checksum and replaces the directory of
// extension id with the archive's contents. Nothing on disk changes unless
// the checksum matches. The archive is unpacked into a hidden staging
// directory and swapped in with renames, so readers see either the old or
// the new extension and never a partial one.
func (i *Installer) Install(id string, payload []byte, checksum string) error {
	op := "install " + id

	// Verify before touching the filesystem.
	if err := VerifyChecksum(payload, checksum); err != nil {
		i.logger.Error().Str("id", id).Str("expected", checksum).Str("actual", Checksum(payload)).Msg("checksum mismatch")
		return err
	}
	if !ValidID(id) {
		return apperr.Newf(apperr.KindFileSystem, op, "invalid extension id %q", id)
	}

	unlock := i.locks.Lock(id)
	defer unlock()

	if err := os.MkdirAll(i.root, platform.DirPerm); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}

	// Unpack into staging.
	staging, err := os.MkdirTemp(i.root, StagingPrefix+id+"-")
	if err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}
	keepStaging := false
	defer func() {
		if !keepStaging {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := Extract(payload, staging); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}
	if err := platform.Chmod(staging, platform.DirPerm); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}

	// The archive must carry this extension's manifest.
	m, err := manifest.ParseFile(filepath.Join(staging, manifest.FileName))
	if err != nil {
		return fmt.Errorf("%s: archive manifest: %w", op, err)
	}
	if m.ID != id {
		return apperr.Newf(apperr.KindFileSystem, op, "archive manifest id %q does not match", m.ID)
	}

	i.releaseHandles(id)
	if err := i.swap(id, staging); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}
	keepStaging = true

	i.logger.Info().Str("id", id).Str("version", m.VersionString()).Msg("extension installed")
	return nil
}

// releaseHandles runs the release hook. The caller holds the lock of id.
func (i *Installer) releaseHandles(id string) {
	if i.release == nil {
		return
	}
	if err := i.release(id); err != nil {
		i.logger.Warn().Str("id", id).Err(err).Msg("closing loaded library")
	}
}

// swap moves staging into place as the directory of id.
func (i *Installer) swap(id, staging string) error {
	target := filepath.Join(i.root, id)

	trash := ""
	if _, err := os.Lstat(target); err == nil {
		trash = filepath.Join(i.root, TrashPrefix+id+"-"+uuid.NewString())
		if err := os.Rename(target, trash); err != nil {
			return fmt.Errorf("moving old version aside: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, target); err != nil {
		if trash != "" {
			if rbErr := os.Rename(trash, target); rbErr != nil {
				return fmt.Errorf("activating new version: %w (restore failed: %v)", err, rbErr)
			}
		}
		return fmt.Errorf("activating new version: %w", err)
	}

	if trash != "" {
		if err := os.RemoveAll(trash); err != nil {
			i.logger.Warn().Str("id", id).Str("path", trash).Err(err).Msg("could not remove previous version")
		}
	}
	return nil
}

// Remove deletes the directory of extension id. The directory is first
// renamed out of the way so enumeration never sees it half-deleted.
func (i *Installer) Remove(id string) error {
	op := "remove " + id
	if !ValidID(id) {
		return apperr.Newf(apperr.KindFileSystem, op, "invalid extension id %q: %w", id, os.ErrNotExist)
	}

	unlock := i.locks.Lock(id)
	defer unlock()

	target := filepath.Join(i.root, id)
	if _, err := os.Stat(target); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}

	i.releaseHandles(id)
	trash := filepath.Join(i.root, TrashPrefix+id+"-"+uuid.NewString())
	if err := os.Rename(target, trash); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}
	if err := os.RemoveAll(trash); err != nil {
		return apperr.New(apperr.KindFileSystem, op, err)
	}

	i.logger.Info().Str("id", id).Msg("extension removed")
	return nil
}
