// ABOUTME: Result rows returned by the full-text search index
// ABOUTME: Lower rank values are better matches (bm25 ordering)
package models

// DocumentResult is a document matched by filename.
type DocumentResult struct {
	Document
	Rank float64 `json:"rank"`
}

// InteractionResult is an interaction matched by selected text or response.
type InteractionResult struct {
	Interaction
	Rank     float64 `json:"rank"`
	Snippet  string  `json:"snippet"`
	Filename string  `json:"filename"`
}

// ConceptResult is a concept matched by name.
type ConceptResult struct {
	Concept
	Rank float64 `json:"rank"`
}

// SearchResults is the aggregated output of a cross-entity search.
type SearchResults struct {
	Documents    []DocumentResult    `json:"documents"`
	Interactions []InteractionResult `json:"interactions"`
	Concepts     []ConceptResult     `json:"concepts"`
}

// Total returns the number of rows across all result lists.
func (r *SearchResults) Total() int {
	return len(r.Documents) + len(r.Interactions) + len(r.Concepts)
}
