package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/manifest"
)

// maxAssetSize caps how much of a response body is read into memory.
const maxAssetSize = 256 << 20

// Fetcher retrieves release descriptors and asset payloads.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher returns a Fetcher using client, or http.DefaultClient when nil.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{httpClient: client}
}

// FetchLatest downloads and validates the latest-release descriptor at url.
func (f *Fetcher) FetchLatest(ctx context.Context, url string) (*manifest.Release, error) {
	body, err := f.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	release, err := manifest.ParseRelease(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return release, nil
}

// FetchManifest downloads and validates an extension manifest at url.
func (f *Fetcher) FetchManifest(ctx context.Context, url string) (*manifest.Manifest, error) {
	body, err := f.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return m, nil
}

// FetchAsset downloads an asset's payload.
func (f *Fetcher) FetchAsset(ctx context.Context, asset manifest.Asset) ([]byte, error) {
	return f.get(ctx, asset.URL, "application/octet-stream")
}

func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	op := "GET " + url

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", branding.UserAgent())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Newf(apperr.KindNetwork, op, "unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, apperr.New(apperr.KindNetwork, op, fmt.Errorf("reading response body: %w", err))
	}
	if len(body) > maxAssetSize {
		return nil, apperr.Newf(apperr.KindNetwork, op, "response larger than %d bytes", maxAssetSize)
	}
	return body, nil
}
