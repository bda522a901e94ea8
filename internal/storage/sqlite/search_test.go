// ABOUTME: Tests for the full-text search index
// ABOUTME: Covers sanitization, prefix matching, ranking, snippets and scoping
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

func TestEmptyQueryShortCircuits(t *testing.T) {
	s, _ := newTestStorage(t)
	seedDocument(t, s, "anything.pdf")

	for _, q := range []string{"", "   ", "\t\n", `"*()`} {
		docs, err := s.Search().SearchDocuments(q, 10)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	}

	all, err := s.Search().SearchAll("  ", 10)
	require.NoError(t, err)
	assert.Zero(t, all.Total())
}

func TestMalformedQueryNeverFails(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "quantum.pdf")
	seedInteraction(t, s, doc.ID, "superposition", "a sum of states")

	for _, q := range []string{`"unbalanced`, "AND OR NOT", "a:b", "(((", "NEAR(x y)", "super*", "-minus", "^caret"} {
		_, err := s.Search().SearchAll(q, 5)
		assert.NoError(t, err, "query %q", q)
	}
}

func TestSearchDocumentsByPrefix(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermodynamics-primer.pdf")
	seedDocument(t, s, "optics.pdf")

	results, err := s.Search().SearchDocuments("thermo", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].ID)
	assert.Equal(t, doc.Filepath, results[0].Filepath)
}

func TestSearchInteractionsSnippetAndRank(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")
	strong := seedInteraction(t, s, doc.ID, "entropy entropy entropy", "entropy measures disorder")
	seedInteraction(t, s, doc.ID, "temperature", "related to entropy through heat")

	results, err := s.Search().SearchInteractions("entropy", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, strong.ID, results[0].ID, "denser match ranks first")
	assert.LessOrEqual(t, results[0].Rank, results[1].Rank)
	assert.Contains(t, results[0].Snippet, SnippetOpen+"entropy"+SnippetClose)
	assert.Equal(t, "thermo.pdf", results[0].Filename)
}

func TestSearchInteractionsInDocumentIsScoped(t *testing.T) {
	s, _ := newTestStorage(t)
	doc1 := seedDocument(t, s, "one.pdf")
	doc2 := seedDocument(t, s, "two.pdf")
	mine := seedInteraction(t, s, doc1.ID, "x marks the spot", "x")
	seedInteraction(t, s, doc2.ID, "x again", "x elsewhere")
	seedInteraction(t, s, doc2.ID, "more x", "still x")

	results, err := s.Search().SearchInteractionsInDocument(doc1.ID, "x", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ID)
	for _, r := range results {
		assert.Equal(t, doc1.ID, r.DocumentID)
	}

	global, err := s.Search().SearchInteractions("x", 10)
	require.NoError(t, err)
	assert.Len(t, global, 3)
}

func TestSearchIgnoresDiacritics(t *testing.T) {
	s, _ := newTestStorage(t)
	_, err := s.Concepts().GetOrCreate("Café society")
	require.NoError(t, err)

	results, err := s.Search().SearchConcepts("cafe", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Café society", results[0].Name)
}

func TestSearchAllHonoursPerTypeLimit(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "gravity.pdf")
	for i := 0; i < 4; i++ {
		in := seedInteraction(t, s, doc.ID, "gravity well", "gravity bends light")
		_, err := s.Concepts().SaveForInteraction([]string{"Gravity"}, in.ID, doc.ID)
		require.NoError(t, err)
	}

	all, err := s.Search().SearchAll("grav", 2)
	require.NoError(t, err)
	assert.Len(t, all.Documents, 1)
	assert.Len(t, all.Interactions, 2)
	assert.Len(t, all.Concepts, 1)

	none, err := s.Search().SearchAll("zzzz", 2)
	require.NoError(t, err)
	assert.NotNil(t, none.Documents)
	assert.Zero(t, none.Total())
}

func TestSearchReflectsRenames(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "ephemeral.pdf")

	name := "durable.pdf"
	_, err := s.Documents().Update(doc.ID, models.DocumentPatch{Filename: &name})
	require.NoError(t, err)

	results, err := s.Search().SearchDocuments("ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Search().SearchDocuments("durable", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].ID)
}
