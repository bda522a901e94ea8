// ABOUTME: Tests for snapshot export and import
// ABOUTME: Round-trips a populated store through YAML into a fresh one
package sqlite

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

func populate(t *testing.T, s *Storage) *models.Document {
	t.Helper()
	doc := seedDocument(t, s, "walden.pdf")
	out, err := s.RecordCompletion(models.CompletionInput{
		NewInteraction: models.NewInteraction{
			DocumentID:   doc.ID,
			ActionType:   models.ActionExplain,
			SelectedText: "live deliberately",
			Response:     "Choose what matters and drop the rest.",
		},
		Concepts: []string{"Simplicity", "Deliberate Living"},
	})
	require.NoError(t, err)
	_, err = s.ReviewCards().Create(models.NewReviewCard{InteractionID: out.Interaction.ID, Question: "Why the woods?", Answer: "To live deliberately."})
	require.NoError(t, err)
	_, err = s.Highlights().Create(models.NewHighlight{DocumentID: doc.ID, PageNumber: 90, Text: "suck out all the marrow of life"})
	require.NoError(t, err)
	conv, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID, Title: "Pond"})
	require.NoError(t, err)
	_, err = s.Conversations().AddMessage(conv.ID, models.RoleUser, "Why a pond?")
	require.NoError(t, err)
	return doc
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newTestStorage(t)
	populate(t, src)

	snap, err := src.Export()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, snap.SchemaVersion)
	assert.Len(t, snap.Documents, 1)
	assert.Len(t, snap.Concepts, 2)
	assert.Len(t, snap.InteractionConcepts, 2)
	assert.Len(t, snap.Messages, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, snap))
	decoded, err := ReadYAML(&buf)
	require.NoError(t, err)

	dst, _ := newTestStorage(t)
	report, err := dst.Import(decoded)
	require.NoError(t, err)
	assert.Equal(t, 1, report["documents"])
	assert.Equal(t, 1, report["review_cards"])

	again, err := dst.Export()
	require.NoError(t, err)
	again.ExportedAt = snap.ExportedAt
	assert.Equal(t, snap, again)

	results, err := dst.Search().SearchInteractions("deliberately", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1, "imported rows are indexed")

	second, err := dst.Import(decoded)
	require.NoError(t, err)
	assert.Zero(t, second.Total(), "importing twice inserts nothing")
}

func TestImportRemapsExistingDocumentAndConcept(t *testing.T) {
	src, _ := newTestStorage(t)
	populate(t, src)
	snap, err := src.Export()
	require.NoError(t, err)

	dst, _ := newTestStorage(t)
	existing := seedDocument(t, dst, "walden.pdf")
	concept, err := dst.Concepts().GetOrCreate("simplicity")
	require.NoError(t, err)

	_, err = dst.Import(snap)
	require.NoError(t, err)

	docs, err := dst.Documents().Recent(10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, existing.ID, docs[0].ID)

	counts, err := dst.Concepts().ListForDocument(existing.ID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	ids := []string{counts[0].ID, counts[1].ID}
	assert.Contains(t, ids, concept.ID)
}

func TestWriteMarkdown(t *testing.T) {
	s, _ := newTestStorage(t)
	populate(t, s)
	snap, err := s.Export()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, snap))
	out := buf.String()
	assert.Contains(t, out, "## walden.pdf")
	assert.Contains(t, out, "> live deliberately")
	assert.Contains(t, out, "Simplicity")
	assert.Contains(t, out, "Why the woods?")
}

func TestExportToFiles(t *testing.T) {
	s, _ := newTestStorage(t)
	populate(t, s)
	dir := t.TempDir()

	require.NoError(t, s.ExportToYAML(filepath.Join(dir, "out", "library.yaml")))
	require.NoError(t, s.ExportToMarkdown(filepath.Join(dir, "out", "library.md")))
	assert.FileExists(t, filepath.Join(dir, "out", "library.yaml"))
	assert.FileExists(t, filepath.Join(dir, "out", "library.md"))
}
