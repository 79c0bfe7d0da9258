//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pointy-labs/pointy/internal/config"
	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/extension/exttest"
	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/pointy-labs/pointy/internal/userdata"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir       string // POINTY_HOME: preferences, caches
	ExtensionsDir string // POINTY_EXTENSIONS: one directory per extension
}

// setupTestEnv creates isolated temp directories and sets environment variables
// so every launcher operation is sandboxed. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:       t.TempDir(),
		ExtensionsDir: filepath.Join(t.TempDir(), "extensions"),
	}
	t.Setenv("POINTY_HOME", env.HomeDir)
	t.Setenv("POINTY_EXTENSIONS", env.ExtensionsDir)
	return env
}

// releaseHost serves a registry index, latest-release descriptors and
// archives for the current platform.
type releaseHost struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	index    map[string]string
	releases map[string]string
	assets   map[string][]byte
}

func newReleaseHost(t *testing.T) *releaseHost {
	t.Helper()
	h := &releaseHost{
		t:        t,
		index:    map[string]string{},
		releases: map[string]string{},
		assets:   map[string][]byte{},
	}
	h.srv = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *releaseHost) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "index.json":
		entries := make([]string, 0, len(h.index))
		for _, m := range h.index {
			entries = append(entries, m)
		}
		fmt.Fprint(w, "["+strings.Join(entries, ",")+"]")
	case strings.HasSuffix(path, "/latest.json"):
		body, ok := h.releases[strings.TrimSuffix(path, "/latest.json")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	case strings.HasSuffix(path, ".tar.gz"):
		data, ok := h.assets[strings.TrimSuffix(path, ".tar.gz")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

func (h *releaseHost) indexURL() string { return h.srv.URL + "/index.json" }

func (h *releaseHost) latestURL(id string) string { return h.srv.URL + "/" + id + "/latest.json" }

// publish releases files as version of id for the host platform. The
// manifest is generated; files supplies the rest of the archive.
func (h *releaseHost) publish(id, version string, files map[string]string) {
	h.t.Helper()
	if files == nil {
		files = exttest.Files(id, version)
	}
	m := exttest.ManifestJSON(id, version, h.latestURL(id))
	files[manifest.FileName] = m
	archive := exttest.TarGz(h.t, files)

	body, err := json.Marshal(map[string]any{
		"version": version,
		"assets": map[string]any{
			platform.Current(): map[string]string{
				"url":      h.srv.URL + "/" + id + ".tar.gz",
				"checksum": extension.Checksum(archive),
			},
		},
	})
	if err != nil {
		h.t.Fatal(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.index[id] = m
	h.releases[id] = string(body)
	h.assets[id] = archive
}

// newService builds a launcher over env's directories and host's registry.
func newService(t *testing.T, host *releaseHost, opts ...launcher.Option) *launcher.Service {
	t.Helper()
	settings := config.Settings{
		RegistryURL:        host.indexURL(),
		UpdateConcurrency:  4,
		HTTPTimeout:        10 * time.Second,
		AutoUpdateInterval: time.Hour,
		IndexMaxAge:        time.Hour,
	}
	svc, err := launcher.New(launcher.DefaultPaths(), settings, opts...)
	if err != nil {
		t.Fatalf("launcher.New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// installedVersion reads the version from an installed manifest.
func installedVersion(t *testing.T, id string) string {
	t.Helper()
	m, err := manifest.ParseFile(filepath.Join(userdata.GetExtensionDir(id), manifest.FileName))
	if err != nil {
		t.Fatalf("reading %s manifest: %v", id, err)
	}
	return m.VersionString()
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
