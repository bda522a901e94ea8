// ABOUTME: Tests for conversation and message storage
// ABOUTME: Covers message ordering, updated_at bumps and cascade delete
package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/marginalia/internal/models"
)

func TestAddMessageOrdersAndTouchesConversation(t *testing.T) {
	s, clock := newTestStorage(t)
	doc := seedDocument(t, s, "meditations.pdf")

	conv, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID, Title: "Stoicism"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	m1, err := s.Conversations().AddMessage(conv.ID, models.RoleUser, "What is the dichotomy of control?")
	require.NoError(t, err)
	m2, err := s.Conversations().AddMessage(conv.ID, models.RoleAssistant, "Some things are up to us.")
	require.NoError(t, err)
	assert.Equal(t, 1, m1.Position)
	assert.Equal(t, 2, m2.Position)

	got, err := s.Conversations().Get(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, clock.Millis(), got.UpdatedAt)
	assert.Greater(t, got.UpdatedAt, conv.CreatedAt)

	messages, err := s.Conversations().ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, m1.ID, messages[0].ID)
	assert.Equal(t, m2.ID, messages[1].ID)
}

func TestAddMessageValidatesAndHandlesMissingConversation(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Conversations().AddMessage("any", "system", "hello")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Conversations().AddMessage("any", models.RoleUser, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	msg, err := s.Conversations().AddMessage("missing", models.RoleUser, "hello")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestRecentConversationsOrderByActivity(t *testing.T) {
	s, clock := newTestStorage(t)
	doc := seedDocument(t, s, "republic.pdf")

	older, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID, Title: "Cave"})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	newer, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID, Title: "Ring of Gyges"})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.Conversations().AddMessage(older.ID, models.RoleUser, "Back to the cave")
	require.NoError(t, err)

	recent, err := s.Conversations().Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, older.ID, recent[0].ID)
	assert.Equal(t, newer.ID, recent[1].ID)

	clock.Advance(time.Minute)
	renamed, err := s.Conversations().Update(newer.ID, models.ConversationPatch{Title: strPtr("Gyges")})
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "Gyges", renamed.Title)

	byDoc, err := s.Conversations().ListByDocument(doc.ID, 10)
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
	assert.Equal(t, newer.ID, byDoc[0].ID)
}

func TestDeleteConversationCascadesMessages(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "symposium.pdf")

	conv, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID})
	require.NoError(t, err)
	for _, content := range []string{"one", "two", "three"} {
		_, err := s.Conversations().AddMessage(conv.ID, models.RoleUser, content)
		require.NoError(t, err)
	}

	deleted, err := s.Conversations().Delete(conv.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM conversation_messages WHERE conversation_id = ?", conv.ID).Scan(&n))
	assert.Zero(t, n)

	deleted, err = s.Conversations().Delete(conv.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeletingHighlightDetachesConversation(t *testing.T) {
	s, _ := newTestStorage(t)
	doc := seedDocument(t, s, "phaedo.pdf")

	h, err := s.Highlights().Create(models.NewHighlight{DocumentID: doc.ID, PageNumber: 1, Text: "the soul"})
	require.NoError(t, err)
	conv, err := s.Conversations().Create(models.NewConversation{DocumentID: doc.ID, HighlightID: &h.ID})
	require.NoError(t, err)

	_, err = s.Highlights().Delete(h.ID)
	require.NoError(t, err)

	got, err := s.Conversations().Get(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.HighlightID)
}
