package docsystem

import (
	"strings"

	"github.com/sahilm/fuzzy"

	models "hrdocs/internal/domain/models/docsystem"
)

// itemSource adapts a slice of items to fuzzy.Source
type itemSource []models.Item

func (s itemSource) String(i int) string { return s[i].Name }
func (s itemSource) Len() int            { return len(s) }

// Search fuzzy-matches item names visible to role, best matches first.
// An empty query returns no results; limit <= 0 means unlimited.
func (x *Index) Search(query string, role models.Role, limit int) []models.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}
	}

	visible := make(itemSource, 0, len(x.items))
	for i := range x.items {
		if x.policy.CanSee(&x.items[i], role) {
			visible = append(visible, x.items[i])
		}
	}

	matches := fuzzy.FindFrom(query, visible)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		item := visible[m.Index]
		results = append(results, models.SearchResult{
			Item:           item,
			Path:           x.PathOf(item.ParentID, role),
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return results
}
