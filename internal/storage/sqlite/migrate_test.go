// ABOUTME: Tests for migrations, reconciliation and the repair-and-retry wrapper
// ABOUTME: Drops objects behind the store's back and checks they come back without data loss
package sqlite

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

func TestReconcileIsIdempotent(t *testing.T) {
	s, _ := newTestStorage(t)

	first, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.False(t, first.Repaired)

	second, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.False(t, second.Repaired)
	assert.Empty(t, second.Tables)
}

func TestReconcileRecreatesMissingTable(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "thermo.pdf")

	_, err := s.DB().Exec("DROP TABLE bookmarks")
	require.NoError(t, err)

	report, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.True(t, report.Repaired)
	assert.Equal(t, []string{"bookmarks"}, report.Tables)

	got, err := s.Documents().Get(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "existing rows must survive repair")

	again, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.False(t, again.Repaired)
}

func TestReconcileRestoresTriggersAndIndex(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "entropy-notes.pdf")

	_, err := s.DB().Exec("DROP TABLE documents_fts")
	require.NoError(t, err)
	_, err = s.DB().Exec("DROP TRIGGER documents_fts_insert")
	require.NoError(t, err)

	report, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.Contains(t, report.Tables, "documents_fts")
	assert.Contains(t, report.Objects, "documents_fts_insert")

	results, err := s.Search().SearchDocuments("entropy", 10)
	require.NoError(t, err)
	require.Len(t, results, 1, "rebuilt index should contain rows that predate the repair")
	assert.Equal(t, doc.ID, results[0].ID)

	seedDocument(t, s, "entropy-sequel.pdf")
	results, err = s.Search().SearchDocuments("entropy", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2, "restored trigger should index new rows")
}

func TestReconcileRestoresSchemaVersion(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.DB().Exec("DROP TABLE schema_version")
	require.NoError(t, err)

	report, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.Contains(t, report.Tables, "schema_version")

	version, err := s.DB().SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestOperationRepairsMissingTable(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "optics.pdf")

	_, err := s.DB().Exec("DROP TABLE highlights")
	require.NoError(t, err)

	h, err := s.Highlights().Create(models.NewHighlight{DocumentID: doc.ID, PageNumber: 3, Text: "refraction"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultHighlightColor, h.Color)

	list, err := s.Highlights().ListByDocument(doc.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConstraintViolationIsNotRetried(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Interactions().Create(models.NewInteraction{
		DocumentID:   "missing-document",
		ActionType:   models.ActionDefine,
		SelectedText: "orphan",
	})
	require.Error(t, err)
	assert.False(t, isMissingObject(err))
	assert.NotContains(t, err.Error(), "after schema repair")
}

func TestWithRepairRetriesOnlyOnce(t *testing.T) {
	s, _ := newTestStorage(t)

	calls := 0
	_, err := withRepair(s.DB(), func() (int, error) {
		calls++
		return 0, errors.New("no such table: phantom")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "a table that stays missing is retried once, not looped")
	assert.Contains(t, err.Error(), "after schema repair")

	_, err = s.DB().Exec("DROP TABLE bookmarks")
	require.NoError(t, err)

	calls = 0
	_, err = withRepair(s.DB(), func() (int, error) {
		calls++
		return 0, errors.New("no such table: phantom")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "after schema repair")
}

func TestMigrateFromVersionOne(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "relativity.pdf")

	for i := len(schemaObjects) - 1; i >= 0; i-- {
		o := schemaObjects[i]
		if o.since < 2 {
			continue
		}
		_, err := s.DB().Exec("DROP " + o.kind + " IF EXISTS " + o.name)
		require.NoError(t, err)
	}
	_, err := s.DB().Exec("DELETE FROM schema_version WHERE version > 1")
	require.NoError(t, err)

	version, err := s.DB().SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, 1, version)

	version, err = s.DB().Migrate()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	results, err := s.Search().SearchDocuments("relativity", 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "migration should index documents created under version 1")
	assert.Equal(t, doc.ID, results[0].ID)

	report, err := s.DB().Reconcile()
	require.NoError(t, err)
	assert.False(t, report.Repaired)
}

func TestMigrateAtCurrentVersionIsNoop(t *testing.T) {
	s, _ := newTestStorage(t)

	version, err := s.DB().Migrate()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	var rows int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, CurrentSchemaVersion, rows)
}

func TestMigrateRollsBackOnFailedStep(t *testing.T) {
	s, _ := newTestStorage(t)

	for i := len(schemaObjects) - 1; i >= 0; i-- {
		o := schemaObjects[i]
		if o.since < 2 {
			continue
		}
		_, err := s.DB().Exec("DROP " + o.kind + " IF EXISTS " + o.name)
		require.NoError(t, err)
	}
	_, err := s.DB().Exec("DELETE FROM schema_version WHERE version > 1")
	require.NoError(t, err)

	// A table squatting on an index name makes a late version 2 step fail.
	_, err = s.DB().Exec("CREATE TABLE idx_bookmarks_document (x INTEGER)")
	require.NoError(t, err)

	version, err := s.DB().Migrate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")
	assert.Equal(t, 1, version)

	exists, err := objectExists(s.DB().conn, kindTable, "highlights")
	require.NoError(t, err)
	assert.False(t, exists, "steps before the failure must roll back")

	version, err = s.DB().SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestConcurrentSearchRepairsOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorageWithPath(filepath.Join(dir, "repair.db"), WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	doc := seedDocument(t, s, "entropy.pdf")
	in := seedInteraction(t, s, doc.ID, "entropy always grows", "second law")
	_, err = s.Concepts().SaveForInteraction([]string{"Entropy"}, in.ID, doc.ID)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		for _, table := range []string{"documents_fts", "interactions_fts", "concepts_fts"} {
			_, err := s.DB().Exec("DROP TABLE " + table)
			require.NoError(t, err)
		}

		results, err := s.Search().SearchAll("entropy", 5)
		require.NoError(t, err, "iteration %d", i)
		assert.Len(t, results.Documents, 1)
		assert.Len(t, results.Interactions, 1)
		assert.Len(t, results.Concepts, 1)
	}
}
