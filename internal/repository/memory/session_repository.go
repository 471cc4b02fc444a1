package memory

import (
	"context"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ChatSessionRepository keeps chat sessions in process memory. Entries are
// deep-copied on the way in and out so callers never share slices with the cache.
type ChatSessionRepository struct {
	cache *cache.Cache
}

func NewChatSessionRepository() contract.ChatSessionStore {
	// Sessions live until deleted or the process restarts.
	c := cache.New(cache.NoExpiration, 0)
	return &ChatSessionRepository{
		cache: c,
	}
}

func (r *ChatSessionRepository) Load(ctx context.Context, ownerKey string) ([]*entity.ChatSession, error) {
	if x, found := r.cache.Get(key(ownerKey)); found {
		return cloneSessions(x.([]*entity.ChatSession)), nil
	}
	return []*entity.ChatSession{}, nil
}

func (r *ChatSessionRepository) Save(ctx context.Context, ownerKey string, sessions []*entity.ChatSession) error {
	r.cache.Set(key(ownerKey), cloneSessions(sessions), cache.NoExpiration)
	return nil
}

func key(ownerKey string) string {
	return constant.ChatSessionStorageKey + ":" + ownerKey
}

func cloneSessions(sessions []*entity.ChatSession) []*entity.ChatSession {
	out := make([]*entity.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		cp := *s
		cp.Messages = make([]*entity.ChatMessage, 0, len(s.Messages))
		for _, m := range s.Messages {
			msg := *m
			cp.Messages = append(cp.Messages, &msg)
		}
		out = append(out, &cp)
	}
	return out
}
