package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/model"
	"qms-compliance-be/internal/repository/contract"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatSessionStoreGorm keeps each owner's sessions as one JSON row.
type ChatSessionStoreGorm struct {
	db *gorm.DB
}

func NewChatSessionStoreGorm(db *gorm.DB) contract.ChatSessionStore {
	return &ChatSessionStoreGorm{db: db}
}

func chatSessionKey(ownerKey string) string {
	return constant.ChatSessionStorageKey + ":" + ownerKey
}

func (s *ChatSessionStoreGorm) Load(ctx context.Context, ownerKey string) ([]*entity.ChatSession, error) {
	var doc model.ChatSessionDocument
	err := s.db.WithContext(ctx).Where("storage_key = ?", chatSessionKey(ownerKey)).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []*entity.ChatSession{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChatSessions(doc.Sessions)
}

func (s *ChatSessionStoreGorm) Save(ctx context.Context, ownerKey string, sessions []*entity.ChatSession) error {
	raw, err := encodeChatSessions(sessions)
	if err != nil {
		return err
	}
	doc := model.ChatSessionDocument{
		StorageKey: chatSessionKey(ownerKey),
		Sessions:   datatypes.JSON(raw),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"sessions", "updated_at"}),
	}).Create(&doc).Error
}

func encodeChatSessions(sessions []*entity.ChatSession) ([]byte, error) {
	if sessions == nil {
		sessions = []*entity.ChatSession{}
	}
	raw, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("encode chat sessions: %w", err)
	}
	return raw, nil
}

func decodeChatSessions(raw []byte) ([]*entity.ChatSession, error) {
	sessions := []*entity.ChatSession{}
	if len(raw) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode chat sessions: %w", err)
	}
	return sessions, nil
}
