package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"qms-compliance-be/internal/constant"
	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/entity"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/repository/contract"
	"qms-compliance-be/pkg/llm"
	"qms-compliance-be/pkg/sse"

	"github.com/google/uuid"
)

var (
	ErrSessionBusy         = errors.New("a reply is already being generated for this conversation")
	ErrChatSessionNotFound = errors.New("chat session not found")
	ErrEmptyChatMessage    = errors.New("message is empty")
	ErrEmptyChatTitle      = errors.New("title is empty")
)

// The in-flight assistant message is written back to the store at most this
// often while a reply streams.
const chatProgressSaveInterval = 250 * time.Millisecond

type IChatService interface {
	ListSessions(ctx context.Context, ownerKey string) ([]*dto.ChatSessionSummaryResponse, error)
	CreateSession(ctx context.Context, ownerKey string) (*dto.ChatSessionResponse, error)
	GetSession(ctx context.Context, ownerKey string, sessionId uuid.UUID) (*dto.ChatSessionResponse, error)
	RenameSession(ctx context.Context, ownerKey string, sessionId uuid.UUID, title string) (*dto.ChatSessionResponse, error)
	DeleteSession(ctx context.Context, ownerKey string, sessionId uuid.UUID) error
	// SendMessage appends the user's message, streams the assistant reply into
	// sink and persists it. Terminal callbacks reach sink after the session is
	// saved. Errors that prevent streaming from starting are returned and not
	// sent to sink.
	SendMessage(ctx context.Context, ownerKey string, sessionId uuid.UUID, content string, sink sse.Sink) error
	IsStreaming(ownerKey string, sessionId uuid.UUID) bool
}

type chatService struct {
	store    contract.ChatSessionStore
	provider llm.StreamingProvider
	logger   logger.ILogger
	options  []llm.Option
	now      func() time.Time

	ownerLocks sync.Map // ownerKey -> *sync.Mutex, serializes load/modify/save

	mu        sync.Mutex
	streaming map[string]struct{}
}

func NewChatService(
	store contract.ChatSessionStore,
	provider llm.StreamingProvider,
	logger logger.ILogger,
	options ...llm.Option,
) IChatService {
	return &chatService{
		store:     store,
		provider:  provider,
		logger:    logger,
		options:   options,
		now:       time.Now,
		streaming: make(map[string]struct{}),
	}
}

func (cs *chatService) ListSessions(ctx context.Context, ownerKey string) ([]*dto.ChatSessionSummaryResponse, error) {
	sessions, err := cs.store.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatSessionSummaryResponse, 0, len(sessions))
	// Newest first.
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		res = append(res, &dto.ChatSessionSummaryResponse{
			Id:           s.Id,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return res, nil
}

func (cs *chatService) CreateSession(ctx context.Context, ownerKey string) (*dto.ChatSessionResponse, error) {
	now := cs.now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		Title:     constant.ChatSessionDefaultTitle,
		Messages:  []*entity.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := cs.mutate(ctx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		return append(sessions, session), nil
	})
	if err != nil {
		return nil, err
	}
	return toChatSessionResponse(session), nil
}

func (cs *chatService) GetSession(ctx context.Context, ownerKey string, sessionId uuid.UUID) (*dto.ChatSessionResponse, error) {
	sessions, err := cs.store.Load(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	session := findChatSession(sessions, sessionId)
	if session == nil {
		return nil, ErrChatSessionNotFound
	}
	return toChatSessionResponse(session), nil
}

func (cs *chatService) RenameSession(ctx context.Context, ownerKey string, sessionId uuid.UUID, title string) (*dto.ChatSessionResponse, error) {
	title = collapseWhitespace(title)
	if title == "" {
		return nil, ErrEmptyChatTitle
	}

	var renamed *entity.ChatSession
	err := cs.mutate(ctx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		session := findChatSession(sessions, sessionId)
		if session == nil {
			return nil, ErrChatSessionNotFound
		}
		session.Title = title
		session.TitleCustomized = true
		session.UpdatedAt = cs.now()
		renamed = session
		return sessions, nil
	})
	if err != nil {
		return nil, err
	}
	return toChatSessionResponse(renamed), nil
}

func (cs *chatService) DeleteSession(ctx context.Context, ownerKey string, sessionId uuid.UUID) error {
	if cs.IsStreaming(ownerKey, sessionId) {
		return ErrSessionBusy
	}
	return cs.mutate(ctx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		for i, s := range sessions {
			if s.Id == sessionId {
				return append(sessions[:i], sessions[i+1:]...), nil
			}
		}
		return nil, ErrChatSessionNotFound
	})
}

func (cs *chatService) SendMessage(ctx context.Context, ownerKey string, sessionId uuid.UUID, content string, sink sse.Sink) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyChatMessage
	}

	if !cs.acquire(ownerKey, sessionId) {
		return ErrSessionBusy
	}
	defer cs.release(ownerKey, sessionId)

	assistantId := uuid.New()
	var history []llm.Message

	err := cs.mutate(ctx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		session := findChatSession(sessions, sessionId)
		if session == nil {
			return nil, ErrChatSessionNotFound
		}

		now := cs.now()
		session.Messages = append(session.Messages, &entity.ChatMessage{
			Id:        uuid.New(),
			Role:      entity.ChatRoleUser,
			Content:   content,
			Timestamp: now,
		})
		if !session.TitleCustomized && countUserMessages(session) == 1 {
			session.Title = DeriveChatTitle(content)
		}

		history = buildChatHistory(session.Messages)

		session.Messages = append(session.Messages, &entity.ChatMessage{
			Id:        assistantId,
			Role:      entity.ChatRoleAssistant,
			Content:   "",
			Timestamp: now,
		})
		session.UpdatedAt = now
		return sessions, nil
	})
	if err != nil {
		return err
	}

	// The request context may be gone before the reply ends; saves outlive it.
	saveCtx := context.WithoutCancel(ctx)

	var reply strings.Builder
	var streamErr error
	var lastSaved time.Time
	collector := sse.SinkFuncs{
		Delta: func(text string) {
			reply.WriteString(text)
			if now := cs.now(); lastSaved.IsZero() || now.Sub(lastSaved) >= chatProgressSaveInterval {
				lastSaved = now
				cs.saveProgress(saveCtx, ownerKey, sessionId, assistantId, reply.String())
			}
			sink.OnDelta(text)
		},
		Error: func(err error) {
			streamErr = err
		},
	}

	// Stream reports the terminal outcome through the collector; its return
	// value carries the same error.
	if err := cs.provider.Stream(ctx, history, collector, cs.options...); err != nil && streamErr == nil {
		streamErr = err
	}

	saveErr := cs.mutate(saveCtx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		session := findChatSession(sessions, sessionId)
		if session == nil {
			// Deleted while streaming; nothing to save.
			return sessions, nil
		}
		finishAssistantMessage(session, assistantId, reply.String())
		session.UpdatedAt = cs.now()
		return sessions, nil
	})
	if saveErr != nil {
		cs.logger.Error("CHAT", "Failed to save assistant reply", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      saveErr.Error(),
		})
	}

	if streamErr != nil {
		cs.logger.Warn("CHAT", "Assistant stream ended with an error", map[string]interface{}{
			"session_id":    sessionId.String(),
			"partial_chars": reply.Len(),
			"error":         streamErr.Error(),
		})
		sink.OnError(streamErr)
		return nil
	}
	sink.OnDone()
	return nil
}

// saveProgress writes the reply received so far into the in-flight assistant
// message so readers see it grow.
func (cs *chatService) saveProgress(ctx context.Context, ownerKey string, sessionId, assistantId uuid.UUID, text string) {
	err := cs.mutate(ctx, ownerKey, func(sessions []*entity.ChatSession) ([]*entity.ChatSession, error) {
		session := findChatSession(sessions, sessionId)
		if session == nil {
			return sessions, nil
		}
		for _, m := range session.Messages {
			if m.Id == assistantId {
				m.Content = text
				break
			}
		}
		return sessions, nil
	})
	if err != nil {
		cs.logger.Warn("CHAT", "Failed to save partial assistant reply", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

// mutate runs a load/modify/save cycle while holding the owner's lock.
func (cs *chatService) mutate(ctx context.Context, ownerKey string, fn func([]*entity.ChatSession) ([]*entity.ChatSession, error)) error {
	lock, _ := cs.ownerLocks.LoadOrStore(ownerKey, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	sessions, err := cs.store.Load(ctx, ownerKey)
	if err != nil {
		return err
	}
	sessions, err = fn(sessions)
	if err != nil {
		return err
	}
	return cs.store.Save(ctx, ownerKey, sessions)
}

func streamKey(ownerKey string, sessionId uuid.UUID) string {
	return ownerKey + "/" + sessionId.String()
}

func (cs *chatService) acquire(ownerKey string, sessionId uuid.UUID) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	key := streamKey(ownerKey, sessionId)
	if _, busy := cs.streaming[key]; busy {
		return false
	}
	cs.streaming[key] = struct{}{}
	return true
}

func (cs *chatService) release(ownerKey string, sessionId uuid.UUID) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.streaming, streamKey(ownerKey, sessionId))
}

func (cs *chatService) IsStreaming(ownerKey string, sessionId uuid.UUID) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	_, busy := cs.streaming[streamKey(ownerKey, sessionId)]
	return busy
}

// DeriveChatTitle turns the first user message into a session title.
func DeriveChatTitle(content string) string {
	title := collapseWhitespace(content)
	if title == "" {
		return constant.ChatSessionDefaultTitle
	}
	if utf8.RuneCountInString(title) <= constant.ChatSessionTitleMaxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:constant.ChatSessionTitleMaxRunes])) + "..."
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findChatSession(sessions []*entity.ChatSession, id uuid.UUID) *entity.ChatSession {
	for _, s := range sessions {
		if s.Id == id {
			return s
		}
	}
	return nil
}

func countUserMessages(session *entity.ChatSession) int {
	n := 0
	for _, m := range session.Messages {
		if m.Role == entity.ChatRoleUser {
			n++
		}
	}
	return n
}

// buildChatHistory prepends the system prompt and skips empty messages left
// behind by failed replies.
func buildChatHistory(messages []*entity.ChatMessage) []llm.Message {
	history := make([]llm.Message, 0, len(messages)+1)
	history = append(history, llm.Message{Role: "system", Content: constant.ChatAssistantSystemPrompt})
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return history
}

// finishAssistantMessage stores the final text, or drops the placeholder
// when nothing was received.
func finishAssistantMessage(session *entity.ChatSession, assistantId uuid.UUID, text string) {
	for i, m := range session.Messages {
		if m.Id != assistantId {
			continue
		}
		if text == "" {
			session.Messages = append(session.Messages[:i], session.Messages[i+1:]...)
			return
		}
		m.Content = text
		return
	}
}

func toChatSessionResponse(s *entity.ChatSession) *dto.ChatSessionResponse {
	messages := make([]*dto.ChatMessageResponse, 0, len(s.Messages))
	for _, m := range s.Messages {
		messages = append(messages, &dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return &dto.ChatSessionResponse{
		Id:              s.Id,
		Title:           s.Title,
		TitleCustomized: s.TitleCustomized,
		Messages:        messages,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
