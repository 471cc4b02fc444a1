package memory

import (
	"context"
	"testing"
	"time"

	"qms-compliance-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSessionRepositoryCopies(t *testing.T) {
	repo := NewChatSessionRepository()
	ctx := context.Background()

	empty, err := repo.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	sessions := []*entity.ChatSession{{
		Id:        uuid.New(),
		Title:     "New conversation",
		Messages:  []*entity.ChatMessage{{Id: uuid.New(), Role: entity.ChatRoleUser, Content: "hi"}},
		CreatedAt: time.Now(),
	}}
	require.NoError(t, repo.Save(ctx, "owner-1", sessions))

	// Mutating the caller's slice must not leak into the store.
	sessions[0].Title = "changed"
	sessions[0].Messages[0].Content = "changed"

	loaded, err := repo.Load(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "New conversation", loaded[0].Title)
	assert.Equal(t, "hi", loaded[0].Messages[0].Content)

	loaded[0].Messages = append(loaded[0].Messages, &entity.ChatMessage{Role: entity.ChatRoleAssistant})
	again, err := repo.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, again[0].Messages, 1)

	other, err := repo.Load(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestChatSessionRepositoryNeverExpires(t *testing.T) {
	repo := NewChatSessionRepository().(*ChatSessionRepository)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "owner-1", []*entity.ChatSession{{Id: uuid.New(), Title: "kept"}}))

	items := repo.cache.Items()
	require.Contains(t, items, "qms-chat-sessions:owner-1")
	assert.Zero(t, items["qms-chat-sessions:owner-1"].Expiration)

	_, expiresAt, found := repo.cache.GetWithExpiration("qms-chat-sessions:owner-1")
	require.True(t, found)
	assert.True(t, expiresAt.IsZero())
}
