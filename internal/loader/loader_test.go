package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	out    string
	err    error
	calls  atomic.Int32
	closed atomic.Int32
}

func (p *fakePlugin) Call() (string, error) {
	p.calls.Add(1)
	if p.err != nil {
		return "", p.err
	}
	return decode(p.out)
}

func (p *fakePlugin) Close() error {
	p.closed.Add(1)
	return nil
}

// withLibrary creates root/<id>/<library> so path resolution succeeds.
func withLibrary(t *testing.T, id string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, platform.LibraryFileName), []byte("lib"), 0o644))
	return root
}

func fakeOpener(p Plugin, opened *atomic.Int32) Opener {
	return func(string) (Plugin, error) {
		if opened != nil {
			opened.Add(1)
		}
		return p, nil
	}
}

func TestRun_MissingLibrary(t *testing.T) {
	ld := New(t.TempDir())

	var err error
	assert.NotPanics(t, func() { err = ld.Run("missing-ext") })
	assert.ErrorIs(t, err, apperr.ErrLibLoading)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_InvalidID(t *testing.T) {
	err := New(t.TempDir()).Run("../etc")
	assert.ErrorIs(t, err, apperr.ErrLibLoading)
}

func TestRun_NotALibrary(t *testing.T) {
	// The real backend must refuse a file that is not a shared library.
	root := withLibrary(t, "qr")
	err := New(root).Run("qr")
	assert.ErrorIs(t, err, apperr.ErrLibLoading)
}

func TestRun_EmptyResultIsSuccess(t *testing.T) {
	root := withLibrary(t, "qr")
	p := &fakePlugin{}
	ld := New(root, WithOpener(fakeOpener(p, nil)))

	require.NoError(t, ld.Run("qr"))
	assert.EqualValues(t, 1, p.calls.Load())
	assert.EqualValues(t, 1, p.closed.Load(), "library must be closed after a scoped run")
}

func TestRun_NonEmptyResultIsError(t *testing.T) {
	root := withLibrary(t, "qr")
	ld := New(root, WithOpener(fakeOpener(&fakePlugin{out: "clipboard is empty"}, nil)))

	err := ld.Run("qr")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrLibLoading)

	var extErr *apperr.ExtensionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "qr", extErr.ID)
	assert.Equal(t, "clipboard is empty", apperr.Message(err))
}

func TestRun_NullPointer(t *testing.T) {
	root := withLibrary(t, "qr")
	ld := New(root, WithOpener(fakeOpener(&fakePlugin{err: errNullResult}, nil)))

	err := ld.Run("qr")
	assert.ErrorIs(t, err, apperr.ErrLibLoading)
	assert.Contains(t, err.Error(), "null pointer")
}

func TestRun_InvalidUTF8(t *testing.T) {
	root := withLibrary(t, "qr")
	ld := New(root, WithOpener(fakeOpener(&fakePlugin{out: "\xff\xfe"}, nil)))

	err := ld.Run("qr")
	assert.ErrorIs(t, err, apperr.ErrConversion)
}

func TestRun_OpenFailure(t *testing.T) {
	root := withLibrary(t, "qr")
	ld := New(root, WithOpener(func(string) (Plugin, error) {
		return nil, errors.New(`resolving symbol "run": not found`)
	}))

	err := ld.Run("qr")
	assert.ErrorIs(t, err, apperr.ErrLibLoading)
}

func TestRun_KeepLoaded(t *testing.T) {
	root := withLibrary(t, "qr")
	p := &fakePlugin{}
	var opened atomic.Int32
	ld := New(root, WithOpener(fakeOpener(p, &opened)), WithKeepLoaded(true))

	require.NoError(t, ld.Run("qr"))
	require.NoError(t, ld.Run("qr"))
	assert.EqualValues(t, 1, opened.Load())
	assert.EqualValues(t, 2, p.calls.Load())
	assert.EqualValues(t, 0, p.closed.Load())

	require.NoError(t, ld.Unload("qr"))
	assert.EqualValues(t, 1, p.closed.Load())

	require.NoError(t, ld.Run("qr"))
	assert.EqualValues(t, 2, opened.Load())
	require.NoError(t, ld.Close())
	assert.EqualValues(t, 2, p.closed.Load())
}

func TestLibraryPath(t *testing.T) {
	ld := New("/ext")
	assert.Equal(t, filepath.Join("/ext", "qr", platform.LibraryFileName), ld.LibraryPath("qr"))
}
