// ABOUTME: Store-wide counters reported by the stats command
// ABOUTME: Populated with one COUNT query per entity family
package models

// Stats summarizes the store.
type Stats struct {
	Documents     int `json:"documents"`
	Interactions  int `json:"interactions"`
	Concepts      int `json:"concepts"`
	ReviewCards   int `json:"review_cards"`
	DueCards      int `json:"due_cards"`
	Highlights    int `json:"highlights"`
	Bookmarks     int `json:"bookmarks"`
	Conversations int `json:"conversations"`
	SchemaVersion int `json:"schema_version"`
}
