// Package exttest builds extension archives and installed extension
// directories for tests.
package exttest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pointy-labs/pointy/internal/platform"
)

// ManifestJSON returns a valid manifest.json body.
func ManifestJSON(id, version, latestURL string) string {
	if latestURL == "" {
		latestURL = "https://extensions.example.com/" + id + "/latest.json"
	}
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "author": "tests",
  "version": %q,
  "description": "test extension %s",
  "latest_url": %q
}`, id, "Extension "+id, version, id, latestURL)
}

// Files returns the file set of a well-formed extension.
func Files(id, version string) map[string]string {
	files := map[string]string{
		"manifest.json": ManifestJSON(id, version, ""),
		"icon.svg":      `<svg xmlns="http://www.w3.org/2000/svg"/>`,
	}
	files[platform.LibraryFileName] = "not really a library"
	return files
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TarGz packs files into a gzip-compressed tarball.
func TarGz(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range sortedNames(files) {
		body := files[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Zip packs files into a zip archive.
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedNames(files) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// WriteInstalled creates root/<id> with the files of a well-formed
// extension at version.
func WriteInstalled(t testing.TB, root, id, version string) string {
	t.Helper()
	return WriteFiles(t, filepath.Join(root, id), Files(id, version))
}

// WriteFiles writes files under dir and returns dir.
func WriteFiles(t testing.TB, dir string, files map[string]string) string {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// Snapshot reads every regular file under dir, keyed by slash path.
func Snapshot(t testing.TB, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return out
}
