package extension

import (
	"math"
	"slices"
	"strings"

	"github.com/pointy-labs/pointy/internal/manifest"
)

// Info is the view of one installed extension sent to the interface layer.
type Info struct {
	Manifest manifest.Manifest `json:"manifest"`
	IconPath string            `json:"icon_path"`
	Enabled  bool              `json:"enabled"`
}

// ID returns the extension id.
func (i Info) ID() string { return i.Manifest.ID }

// SortByOrder sorts infos by each id's first position in ordered. Ids that
// are not listed rank last; ties break by id ascending.
func SortByOrder(infos []Info, ordered []string) {
	rank := make(map[string]int, len(ordered))
	for i, id := range ordered {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	rankOf := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return math.MaxInt
	}

	slices.SortStableFunc(infos, func(a, b Info) int {
		ra, rb := rankOf(a.ID()), rankOf(b.ID())
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID(), b.ID())
	})
}

// Enabled returns the enabled subset of infos, preserving order.
func Enabled(infos []Info) []Info {
	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		if info.Enabled {
			out = append(out, info)
		}
	}
	return out
}
