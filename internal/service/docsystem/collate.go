package docsystem

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	models "hrdocs/internal/domain/models/docsystem"
)

// NameCollator orders item names with locale-aware comparison.
// collate.Collator keeps internal buffers, so calls are serialized.
type NameCollator struct {
	mu  sync.Mutex
	col *collate.Collator
}

// NewNameCollator creates a collator for a BCP 47 locale ("en", "de-CH", ...)
func NewNameCollator(locale string) (*NameCollator, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid collation locale %q: %w", locale, err)
	}
	return &NameCollator{col: collate.New(tag)}, nil
}

var defaultCollator = sync.OnceValue(func() *NameCollator {
	return &NameCollator{col: collate.New(language.English)}
})

// Compare returns -1, 0 or 1
func (c *NameCollator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.CompareString(a, b)
}

// SortItems sorts items in place by name, ties broken by id for a stable order
func (c *NameCollator) SortItems(items []models.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(items, func(i, j int) bool {
		if cmp := c.col.CompareString(items[i].Name, items[j].Name); cmp != 0 {
			return cmp < 0
		}
		return items[i].ID < items[j].ID
	})
}
