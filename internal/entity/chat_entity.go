package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Id        uuid.UUID `json:"id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is append-only except for the assistant message currently
// being streamed, which is mutated in place until the stream ends.
type ChatSession struct {
	Id              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	TitleCustomized bool           `json:"title_customized"`
	Messages        []*ChatMessage `json:"messages"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
