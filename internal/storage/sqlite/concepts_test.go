// ABOUTME: Tests for concept storage, join tables and the concept graph
// ABOUTME: Covers case-insensitive dedup, occurrence tallies and edge weights
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConceptDedupIgnoresCaseAndSpace(t *testing.T) {
	s, _ := newTestStorage(t)

	a, err := s.Concepts().GetOrCreate("Entropy")
	require.NoError(t, err)
	b, err := s.Concepts().GetOrCreate("entropy")
	require.NoError(t, err)
	c, err := s.Concepts().GetOrCreate("  ENTROPY  ")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.ID, c.ID)
	assert.Equal(t, "Entropy", c.Name, "first spelling wins")

	byName, err := s.Concepts().GetByName("eNtRoPy")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, a.ID, byName.ID)

	all, err := s.Concepts().List(10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOccurrenceCountAccumulates(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")
	concept, err := s.Concepts().GetOrCreate("Entropy")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Concepts().LinkToDocument(concept.ID, doc.ID))
	}

	counts, err := s.Concepts().ListForDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 3, counts[0].OccurrenceCount)
}

func TestLinkToInteractionIsIdempotent(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")
	in := seedInteraction(t, s, doc.ID, "heat", "energy in transit")
	concept, err := s.Concepts().GetOrCreate("Heat")
	require.NoError(t, err)

	require.NoError(t, s.Concepts().LinkToInteraction(concept.ID, in.ID))
	require.NoError(t, s.Concepts().LinkToInteraction(concept.ID, in.ID))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM interaction_concepts").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSaveForInteractionLinksBothTables(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")
	first := seedInteraction(t, s, doc.ID, "heat death", "maximum entropy")
	second := seedInteraction(t, s, doc.ID, "second law", "entropy never decreases")

	saved, err := s.Concepts().SaveForInteraction([]string{"Entropy", "entropy ", "Heat Death", ""}, first.ID, doc.ID)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	_, err = s.Concepts().SaveForInteraction([]string{"ENTROPY"}, second.ID, doc.ID)
	require.NoError(t, err)

	counts, err := s.Concepts().ListForDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Entropy", counts[0].Name)
	assert.Equal(t, 2, counts[0].OccurrenceCount)
	assert.Equal(t, 1, counts[1].OccurrenceCount)

	related, err := s.Interactions().ListByConcept(saved[0].ID, 10)
	require.NoError(t, err)
	assert.Len(t, related, 2)
}

func TestSaveForInteractionIsAtomic(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")

	_, err := s.Concepts().SaveForInteraction([]string{"Entropy", "Enthalpy"}, "missing-interaction", doc.ID)
	require.Error(t, err)

	all, err := s.Concepts().List(10)
	require.NoError(t, err)
	assert.Empty(t, all, "a failed batch must not leave concepts behind")

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM document_concepts").Scan(&n))
	assert.Zero(t, n)
}

func TestConceptGraphIsSymmetric(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")
	other := seedDocument(t, s, "stat-mech.pdf")

	i1 := seedInteraction(t, s, doc.ID, "one", "first")
	i2 := seedInteraction(t, s, other.ID, "two", "second")
	i3 := seedInteraction(t, s, doc.ID, "three", "third")

	_, err := s.Concepts().SaveForInteraction([]string{"Entropy", "Heat"}, i1.ID, doc.ID)
	require.NoError(t, err)
	_, err = s.Concepts().SaveForInteraction([]string{"heat", "entropy"}, i2.ID, other.ID)
	require.NoError(t, err)
	_, err = s.Concepts().SaveForInteraction([]string{"Entropy"}, i3.ID, doc.ID)
	require.NoError(t, err)

	graph, err := s.Concepts().Graph()
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, 2, graph.Edges[0].Weight)

	entropy := graph.Nodes[0]
	assert.Equal(t, "Entropy", entropy.Name)
	assert.Equal(t, 3, entropy.TotalOccurrences)
	assert.Equal(t, 2, entropy.DocumentCount)

	local, err := s.Concepts().GraphForDocument(other.ID)
	require.NoError(t, err)
	require.Len(t, local.Nodes, 2)
	require.Len(t, local.Edges, 1)
	assert.Equal(t, 1, local.Edges[0].Weight)
	for _, n := range local.Nodes {
		assert.Equal(t, 1, n.TotalOccurrences)
	}
}

func TestConceptGraphEmpty(t *testing.T) {
	s, _ := newTestStorage(t)

	graph, err := s.Concepts().Graph()
	require.NoError(t, err)
	assert.NotNil(t, graph.Nodes)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}
