// ABOUTME: Tests for document and interaction storage
// ABOUTME: Covers filepath identity, reopen bookkeeping, patches and ordering
package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

func TestGetOrCreateDocumentIsKeyedByPath(t *testing.T) {
	s, clock := newTestStorage(t)

	first, err := s.Documents().GetOrCreate("dune.epub", "/books/dune.epub", intPtr(412))
	require.NoError(t, err)
	assert.Equal(t, clock.Millis(), first.CreatedAt)
	assert.Equal(t, clock.Millis(), first.LastOpenedAt)
	require.NotNil(t, first.TotalPages)
	assert.Equal(t, 412, *first.TotalPages)

	clock.Advance(time.Hour)
	second, err := s.Documents().GetOrCreate("dune.epub", "/books/dune.epub", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, clock.Millis(), second.LastOpenedAt)
	assert.Greater(t, second.LastOpenedAt, first.LastOpenedAt)
	require.NotNil(t, second.TotalPages, "a reopen without page count keeps the old one")
	assert.Equal(t, 412, *second.TotalPages)

	var rows int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM documents WHERE filepath = ?", "/books/dune.epub").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestGetOrCreateDocumentValidates(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Documents().GetOrCreate("name.pdf", "   ", nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Documents().GetOrCreate("", "/x.pdf", nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDocumentNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	doc, err := s.Documents().Get("nope")
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = s.Documents().GetByPath("/nowhere")
	require.NoError(t, err)
	assert.Nil(t, doc)

	updated, err := s.Documents().Update("nope", models.DocumentPatch{TotalPages: intPtr(3)})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestGetByPathTrimsLikeGetOrCreate(t *testing.T) {
	s, _ := newTestStorage(t)

	doc, err := s.Documents().GetOrCreate("a.pdf", "  /lib/a.pdf  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "/lib/a.pdf", doc.Filepath)

	for _, path := range []string{"  /lib/a.pdf  ", "/lib/a.pdf"} {
		got, err := s.Documents().GetByPath(path)
		require.NoError(t, err)
		require.NotNil(t, got, path)
		assert.Equal(t, doc.ID, got.ID)
	}
}

func TestUpdateDocumentWritesOnlyPatchedFields(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "sicp.pdf")

	pos := 0.42
	updated, err := s.Documents().Update(doc.ID, models.DocumentPatch{ScrollPosition: &pos})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.InDelta(t, 0.42, updated.ScrollPosition, 1e-9)
	assert.Equal(t, doc.Filename, updated.Filename)
	assert.Nil(t, updated.TotalPages)

	same, err := s.Documents().Update(doc.ID, models.DocumentPatch{})
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, updated, same)
}

func TestRecentDocumentsOrderByLastOpened(t *testing.T) {
	s, clock := newTestStorage(t)

	a := seedDocument(t, s, "a.pdf")
	clock.Advance(time.Minute)
	b := seedDocument(t, s, "b.pdf")
	clock.Advance(time.Minute)
	_, err := s.Documents().GetOrCreate(a.Filename, a.Filepath, nil)
	require.NoError(t, err)

	recent, err := s.Documents().Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, a.ID, recent[0].ID)
	assert.Equal(t, b.ID, recent[1].ID)

	one, err := s.Documents().Recent(1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestInteractionsListNewestFirst(t *testing.T) {
	s, clock := newTestStorage(t)
	doc := seedDocument(t, s, "origin.pdf")
	other := seedDocument(t, s, "other.pdf")

	first := seedInteraction(t, s, doc.ID, "natural selection", "differential survival")
	clock.Advance(time.Second)
	second := seedInteraction(t, s, doc.ID, "variation", "heritable differences")
	seedInteraction(t, s, other.ID, "unrelated", "elsewhere")

	list, err := s.Interactions().ListByDocument(doc.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	got, err := s.Interactions().Get(first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "differential survival", got.Response)

	missing, err := s.Interactions().Get("missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInteractionKeepsOptionalFields(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "calculus.pdf")

	pos := 0.5
	in, err := s.Interactions().Create(models.NewInteraction{
		DocumentID:     doc.ID,
		ActionType:     models.ActionSummarize,
		SelectedText:   "limits",
		PageContext:    strPtr("chapter one"),
		Response:       "approaching a value",
		PageNumber:     intPtr(7),
		ScrollPosition: &pos,
	})
	require.NoError(t, err)

	got, err := s.Interactions().Get(in.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, got)
}
