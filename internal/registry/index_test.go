package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/extension/exttest"
)

func indexJSON(ids ...string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = exttest.ManifestJSON(id, "1.0.0", "https://example.invalid/"+id+"/latest.json")
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type indexServer struct {
	*httptest.Server
	hits atomic.Int32
	down atomic.Bool
	body atomic.Value
}

func newIndexServer(t *testing.T, body string) *indexServer {
	t.Helper()
	s := &indexServer{}
	s.body.Store(body)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		if s.down.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, s.body.Load().(string))
	}))
	t.Cleanup(s.Close)
	return s
}

func TestFetch_DownloadsAndCaches(t *testing.T) {
	srv := newIndexServer(t, indexJSON("qr", "words"))
	cachePath := filepath.Join(t.TempDir(), "registry-cache.json")
	c := NewClient(srv.URL, WithCachePath(cachePath))

	list, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(list) != 2 || list[0].ID != "qr" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("expected cache file: %v", err)
	}

	// Second call within max age is served from cache.
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestFetch_RefetchesWhenStale(t *testing.T) {
	srv := newIndexServer(t, indexJSON("qr"))
	cachePath := filepath.Join(t.TempDir(), "registry-cache.json")
	now := time.Now()
	c := NewClient(srv.URL, WithCachePath(cachePath), WithMaxAge(time.Minute))
	c.now = func() time.Time { return now }

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv.body.Store(indexJSON("qr", "words"))
	now = now.Add(2 * time.Minute)

	list, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected refreshed index with 2 entries, got %d", len(list))
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestFetch_ServesStaleCacheWhenOffline(t *testing.T) {
	srv := newIndexServer(t, indexJSON("qr"))
	cachePath := filepath.Join(t.TempDir(), "registry-cache.json")
	now := time.Now()
	c := NewClient(srv.URL, WithCachePath(cachePath), WithMaxAge(time.Minute))
	c.now = func() time.Time { return now }

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv.down.Store(true)
	now = now.Add(time.Hour)

	list, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected stale cache, got error: %v", err)
	}
	if len(list) != 1 || list[0].ID != "qr" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestFetch_NetworkErrorWithoutCache(t *testing.T) {
	srv := newIndexServer(t, "")
	srv.down.Store(true)
	c := NewClient(srv.URL)

	_, err := c.Fetch(context.Background())
	if !errors.Is(err, apperr.ErrNetwork) {
		t.Fatalf("expected Network error, got %v", err)
	}
}

func TestFetch_InvalidIndex(t *testing.T) {
	srv := newIndexServer(t, `{"not": "an array"}`)
	c := NewClient(srv.URL)

	_, err := c.Fetch(context.Background())
	if !errors.Is(err, apperr.ErrSerialization) {
		t.Fatalf("expected Serialization error, got %v", err)
	}
}

func TestFetch_IgnoresCacheForOtherURL(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "registry-cache.json")
	first := newIndexServer(t, indexJSON("qr"))
	if _, err := NewClient(first.URL, WithCachePath(cachePath)).Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}

	second := newIndexServer(t, indexJSON("words"))
	list, err := NewClient(second.URL, WithCachePath(cachePath)).Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "words" {
		t.Errorf("expected index from second registry, got %+v", list)
	}
}

func TestRefresh_BypassesCache(t *testing.T) {
	srv := newIndexServer(t, indexJSON("qr"))
	c := NewClient(srv.URL, WithCachePath(filepath.Join(t.TempDir(), "cache.json")))

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
}

func TestLookup(t *testing.T) {
	srv := newIndexServer(t, indexJSON("qr", "words"))
	c := NewClient(srv.URL)

	m, err := c.Lookup(context.Background(), "words")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if m.ID != "words" {
		t.Errorf("ID = %q", m.ID)
	}

	_, err = c.Lookup(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
