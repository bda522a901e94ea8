// ABOUTME: Builds the concept co-occurrence graph from interaction links
// ABOUTME: Two concepts share an edge once per interaction in which both appear
package core

import (
	"sort"

	"github.com/harper/marginalia/internal/models"
)

type edgeKey struct {
	a, b string
}

// BuildConceptGraph groups links by interaction and counts, for every
// unordered pair of distinct concepts, the interactions they share. Edges
// touching a concept absent from nodes are dropped.
func BuildConceptGraph(nodes []models.ConceptNode, links []models.InteractionConcept) *models.ConceptGraph {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	byInteraction := make(map[string][]string)
	for _, l := range links {
		if !known[l.ConceptID] {
			continue
		}
		byInteraction[l.InteractionID] = append(byInteraction[l.InteractionID], l.ConceptID)
	}

	weights := make(map[edgeKey]int)
	for _, concepts := range byInteraction {
		concepts = dedupe(concepts)
		for i := 0; i < len(concepts); i++ {
			for j := i + 1; j < len(concepts); j++ {
				weights[pairKey(concepts[i], concepts[j])]++
			}
		}
	}

	edges := make([]models.ConceptEdge, 0, len(weights))
	for k, w := range weights {
		edges = append(edges, models.ConceptEdge{Source: k.a, Target: k.b, Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})

	if nodes == nil {
		nodes = []models.ConceptNode{}
	}
	return &models.ConceptGraph{Nodes: nodes, Edges: edges}
}

func pairKey(x, y string) edgeKey {
	if x > y {
		x, y = y, x
	}
	return edgeKey{a: x, b: y}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
