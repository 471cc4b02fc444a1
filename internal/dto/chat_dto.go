package dto

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatSessionSummaryResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ChatSessionResponse struct {
	Id              uuid.UUID              `json:"id"`
	Title           string                 `json:"title"`
	TitleCustomized bool                   `json:"title_customized"`
	Messages        []*ChatMessageResponse `json:"messages"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type RenameChatSessionRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}

type SendChatMessageRequest struct {
	Content string `json:"content" validate:"required"`
}
