package registry

import (
	"strings"

	"github.com/pointy-labs/pointy/internal/extension"
	"github.com/pointy-labs/pointy/internal/manifest"
	"github.com/sahilm/fuzzy"
)

// Match is one fuzzy search hit.
type Match struct {
	Manifest       manifest.Manifest `json:"manifest"`
	Score          int               `json:"score"`
	MatchedIndexes []int             `json:"-"`
}

type manifestSource []manifest.Manifest

func (s manifestSource) String(i int) string { return s[i].SearchText() }
func (s manifestSource) Len() int            { return len(s) }

// Search ranks list against query by fuzzy match over id, name and
// description. An empty query returns every entry in index order.
func Search(query string, list []manifest.Manifest) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, len(list))
		for i, m := range list {
			out[i] = Match{Manifest: m}
		}
		return out
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), manifestSource(list))
	out := make([]Match, len(matches))
	for i, fm := range matches {
		out[i] = Match{
			Manifest:       list[fm.Index],
			Score:          fm.Score,
			MatchedIndexes: fm.MatchedIndexes,
		}
	}
	return out
}

// SearchInstalled filters installed extensions by query, best match first.
func SearchInstalled(query string, infos []extension.Info) []extension.Info {
	list := make([]manifest.Manifest, len(infos))
	for i, info := range infos {
		list[i] = info.Manifest
	}
	byID := make(map[string]extension.Info, len(infos))
	for _, info := range infos {
		byID[info.ID()] = info
	}

	matches := Search(query, list)
	out := make([]extension.Info, 0, len(matches))
	for _, m := range matches {
		out = append(out, byID[m.Manifest.ID])
	}
	return out
}
