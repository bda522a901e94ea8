// ABOUTME: Concept types and the join rows linking concepts to interactions and documents
// ABOUTME: Concept names are deduplicated case-insensitively after trimming
package models

import "strings"

// Concept is a named idea extracted from AI responses.
type Concept struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

// DocumentConceptCount is a concept as seen from one document.
type DocumentConceptCount struct {
	Concept
	OccurrenceCount int `json:"occurrence_count"`
}

// InteractionConcept records that a concept surfaced in an interaction.
type InteractionConcept struct {
	InteractionID string `json:"interaction_id" yaml:"interaction_id"`
	ConceptID     string `json:"concept_id" yaml:"concept_id"`
}

// DocumentConcept is the running tally of links between a document and a concept.
type DocumentConcept struct {
	DocumentID      string `json:"document_id" yaml:"document_id"`
	ConceptID       string `json:"concept_id" yaml:"concept_id"`
	OccurrenceCount int    `json:"occurrence_count" yaml:"occurrence_count"`
}

// NormalizeConceptName trims surrounding whitespace and collapses inner runs.
func NormalizeConceptName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ConceptKey is the case-folded identity of a concept name.
func ConceptKey(name string) string {
	return strings.ToLower(NormalizeConceptName(name))
}

// UniqueConceptNames normalizes names and drops blanks and case-insensitive
// duplicates, keeping the first spelling seen.
func UniqueConceptNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		norm := NormalizeConceptName(n)
		if norm == "" {
			continue
		}
		key := strings.ToLower(norm)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, norm)
	}
	return out
}
