package contract

import (
	"context"

	"qms-compliance-be/internal/entity"
)

// ChatSessionStore persists an owner's chat session list as a whole.
// Load returns an empty slice, not an error, when nothing was saved yet.
type ChatSessionStore interface {
	Load(ctx context.Context, ownerKey string) ([]*entity.ChatSession, error)
	Save(ctx context.Context, ownerKey string, sessions []*entity.ChatSession) error
}
