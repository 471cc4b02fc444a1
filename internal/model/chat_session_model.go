package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatSessionDocument stores one owner's whole session list as a JSON document.
type ChatSessionDocument struct {
	StorageKey string         `gorm:"type:varchar(255);primaryKey"`
	Sessions   datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (ChatSessionDocument) TableName() string {
	return "chat_session_documents"
}
