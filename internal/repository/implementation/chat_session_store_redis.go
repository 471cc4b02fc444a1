package implementation

import (
	"context"
	"errors"

	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

type ChatSessionStoreRedis struct {
	rdb *redis.Client
}

func NewChatSessionStoreRedis(rdb *redis.Client) contract.ChatSessionStore {
	return &ChatSessionStoreRedis{rdb: rdb}
}

func (s *ChatSessionStoreRedis) Load(ctx context.Context, ownerKey string) ([]*entity.ChatSession, error) {
	raw, err := s.rdb.Get(ctx, chatSessionKey(ownerKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []*entity.ChatSession{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChatSessions(raw)
}

func (s *ChatSessionStoreRedis) Save(ctx context.Context, ownerKey string, sessions []*entity.ChatSession) error {
	raw, err := encodeChatSessions(sessions)
	if err != nil {
		return err
	}
	// No expiry: the list lives until the owner deletes sessions.
	return s.rdb.Set(ctx, chatSessionKey(ownerKey), raw, 0).Err()
}
