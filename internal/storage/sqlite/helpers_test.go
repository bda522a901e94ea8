// ABOUTME: Shared fixtures for storage tests
// ABOUTME: A controllable clock and seeded in-memory storage
package sqlite

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *testClock) Millis() int64 { return c.now.UnixMilli() }

func newTestStorage(t *testing.T) (*Storage, *testClock) {
	t.Helper()
	clock := newTestClock()
	store, err := NewStorageInMemory(WithClock(clock.Now), WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func seedDocument(t *testing.T, s *Storage, name string) *models.Document {
	t.Helper()
	doc, err := s.Documents().GetOrCreate(name, "/library/"+name, nil)
	require.NoError(t, err)
	return doc
}

func seedInteraction(t *testing.T, s *Storage, documentID, selected, response string) *models.Interaction {
	t.Helper()
	in, err := s.Interactions().Create(models.NewInteraction{
		DocumentID:   documentID,
		ActionType:   models.ActionExplain,
		SelectedText: selected,
		Response:     response,
	})
	require.NoError(t, err)
	return in
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
