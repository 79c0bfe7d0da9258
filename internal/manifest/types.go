package manifest

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// FileName is the manifest file inside every extension directory.
const FileName = "manifest.json"

// IconFileName is the icon every extension ships next to its manifest.
const IconFileName = "icon.svg"

// Manifest describes an extension's identity and update source. It is
// re-read from disk on every enumeration and never mutated in memory.
type Manifest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Version     *semver.Version `json:"version"`
	Description string          `json:"description"`
	LatestURL   string          `json:"latest_url"`
}

// Asset is a downloadable, checksummed archive for one platform.
type Asset struct {
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
}

// Release is the latest-release descriptor served at a manifest's
// latest_url. It is fetched on demand and never persisted.
type Release struct {
	Version *semver.Version  `json:"version"`
	Assets  map[string]Asset `json:"assets"`
}

// AssetFor returns the asset published for platform key, if any.
func (r *Release) AssetFor(key string) (Asset, bool) {
	a, ok := r.Assets[key]
	return a, ok
}

// Platforms returns the platform keys the release publishes assets for.
func (r *Release) Platforms() []string {
	keys := make([]string, 0, len(r.Assets))
	for k := range r.Assets {
		keys = append(keys, k)
	}
	return keys
}

// VersionString returns the manifest version or "unknown".
func (m *Manifest) VersionString() string {
	if m.Version == nil {
		return "unknown"
	}
	return m.Version.String()
}

// SearchText is the text fuzzy search matches against.
func (m *Manifest) SearchText() string {
	return strings.ToLower(m.ID + " " + m.Name + " " + m.Description)
}
