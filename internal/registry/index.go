package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/pointy-labs/pointy/internal/platform"
	"github.com/rs/zerolog"
)

// DefaultMaxAge is how long a cached index is served without refetching.
const DefaultMaxAge = time.Hour

const maxIndexSize = 16 << 20

// ErrNotFound is returned by Lookup when the index has no such id.
var ErrNotFound = errors.New("extension not found in registry")

// CachedIndex is the on-disk form of the last index fetched.
type CachedIndex struct {
	Source     string              `json:"source"`
	Extensions []manifest.Manifest `json:"extensions"`
	CachedAt   time.Time           `json:"cached_at"`
}

// Client fetches the online index.
type Client struct {
	url        string
	cachePath  string
	maxAge     time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCachePath enables the on-disk cache at path.
func WithCachePath(path string) Option {
	return func(cl *Client) { cl.cachePath = path }
}

// WithMaxAge sets how long a cached index stays fresh.
func WithMaxAge(d time.Duration) Option {
	return func(cl *Client) { cl.maxAge = d }
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient returns a client for the index served at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		maxAge:     DefaultMaxAge,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the index location.
func (c *Client) URL() string { return c.url }

// Fetch returns the index, from cache while it is fresh. When the download
// fails and any cached copy exists, the stale copy is returned instead.
func (c *Client) Fetch(ctx context.Context) ([]manifest.Manifest, error) {
	cached, _ := c.loadCache()
	if cached != nil && c.now().Sub(cached.CachedAt) < c.maxAge {
		return cached.Extensions, nil
	}

	list, err := c.download(ctx)
	if err != nil {
		if cached != nil {
			c.logger.Warn().Err(err).Time("cached_at", cached.CachedAt).Msg("registry unreachable, serving cached index")
			return cached.Extensions, nil
		}
		return nil, err
	}

	// Best effort: the index is still usable without the cache.
	c.writeCache(list)
	return list, nil
}

// Refresh downloads the index regardless of the cache and stores it.
func (c *Client) Refresh(ctx context.Context) ([]manifest.Manifest, error) {
	list, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(list)
	return list, nil
}

// Lookup returns the index entry for id.
func (c *Client) Lookup(ctx context.Context, id string) (manifest.Manifest, error) {
	list, err := c.Fetch(ctx)
	if err != nil {
		return manifest.Manifest{}, err
	}
	for _, m := range list {
		if m.ID == id {
			return m, nil
		}
	}
	return manifest.Manifest{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (c *Client) download(ctx context.Context) ([]manifest.Manifest, error) {
	op := "GET " + c.url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Newf(apperr.KindNetwork, op, "unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexSize))
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, fmt.Errorf("reading response body: %w", err))
	}
	return manifest.ParseIndex(body)
}

// loadCache reads the cache file. A cache written for another URL is ignored.
func (c *Client) loadCache() (*CachedIndex, error) {
	if c.cachePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, err
	}
	var idx CachedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	if idx.Source != c.url {
		return nil, nil
	}
	return &idx, nil
}

func (c *Client) writeCache(list []manifest.Manifest) {
	if c.cachePath == "" {
		return
	}
	idx := CachedIndex{
		Source:     c.url,
		Extensions: list,
		CachedAt:   c.now(),
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), platform.DirPerm); err != nil {
		c.logger.Debug().Err(err).Msg("registry cache dir")
		return
	}
	if err := os.WriteFile(c.cachePath, data, platform.FilePerm); err != nil {
		c.logger.Debug().Err(err).Msg("registry cache write")
	}
}
