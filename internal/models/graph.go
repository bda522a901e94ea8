// ABOUTME: Node and edge types for the concept co-occurrence graph
// ABOUTME: Edges are undirected; Source always sorts before Target
package models

// ConceptNode is a concept with its aggregate occurrence counts.
type ConceptNode struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TotalOccurrences int    `json:"total_occurrences"`
	DocumentCount    int    `json:"document_count"`
}

// ConceptEdge connects two concepts that appeared in the same interaction.
// Weight is the number of interactions they share.
type ConceptEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// ConceptGraph is the computed co-occurrence graph.
type ConceptGraph struct {
	Nodes []ConceptNode `json:"nodes"`
	Edges []ConceptEdge `json:"edges"`
}
