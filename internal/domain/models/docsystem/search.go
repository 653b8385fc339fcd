package docsystem

// SearchResult is one fuzzy name match within an employee's tree
type SearchResult struct {
	Item           Item   `json:"item"`
	Path           string `json:"path"` // parent folder names joined by "/"
	Score          int    `json:"score"`
	MatchedIndexes []int  `json:"matched_indexes"`
}
