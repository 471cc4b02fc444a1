package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/pkg/serverutils"
	"qms-compliance-be/internal/service"
	"qms-compliance-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, logger logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		logger:      logger,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/chat/v1/sessions")
	h.Use(auth)
	h.Get("", c.ListSessions)
	h.Post("", c.CreateSession)
	h.Get(":id", c.GetSession)
	h.Put(":id", c.RenameSession)
	h.Delete(":id", c.DeleteSession)
	h.Post(":id/messages", c.SendMessage)
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListSessions(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return chatFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list chat sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.chatService.CreateSession(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return chatFailure(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.CreatedResponse("Success create chat session", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetSession(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return chatFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat session", res))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameChatSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.RenameSession(ctx.UserContext(), serverutils.UserID(ctx), id, req.Title)
	if err != nil {
		return chatFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename chat session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := c.chatService.DeleteSession(ctx.UserContext(), serverutils.UserID(ctx), id); err != nil {
		return chatFailure(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete chat session", nil))
}

// SendMessage answers with a text/event-stream relaying the assistant reply.
// Problems found before the stream opens get a normal JSON error.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	owner := serverutils.UserID(ctx)
	if _, err := c.chatService.GetSession(ctx.UserContext(), owner, id); err != nil {
		return chatFailure(ctx, err)
	}
	if c.chatService.IsStreaming(owner, id) {
		return chatFailure(ctx, service.ErrSessionBusy)
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber ctx is recycled once the handler returns; the stream gets its own.
	streamCtx, cancel := context.WithCancel(context.Background())
	content := req.Content

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		sink := &eventStreamSink{w: w, cancel: cancel}
		if err := c.chatService.SendMessage(streamCtx, owner, id, content, sink); err != nil {
			c.logger.Warn("CHAT", "Chat message rejected", map[string]interface{}{
				"session_id": id.String(),
				"error":      err.Error(),
			})
			sink.writeError(chatErrorKind(err), err.Error())
		}
	})
	return nil
}

// eventStreamSink writes deltas in the OpenAI chunk shape. A failed flush
// means the client left, which cancels the upstream request.
type eventStreamSink struct {
	w      *bufio.Writer
	cancel context.CancelFunc
}

type chunkDelta struct {
	Content string `json:"content"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

type chunk struct {
	Choices []chunkChoice `json:"choices"`
}

func (s *eventStreamSink) OnDelta(text string) {
	payload, _ := json.Marshal(chunk{Choices: []chunkChoice{{Delta: chunkDelta{Content: text}}}})
	fmt.Fprintf(s.w, "data: %s\n\n", payload)
	s.flush()
}

func (s *eventStreamSink) OnDone() {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flush()
}

func (s *eventStreamSink) OnError(err error) {
	var streamErr *sse.StreamError
	if errors.As(err, &streamErr) {
		s.writeError(string(streamErr.Kind), streamErr.Message())
		return
	}
	s.writeError(string(sse.KindTransport), sse.MessageTransport)
}

func (s *eventStreamSink) writeError(kind, message string) {
	payload, _ := json.Marshal(map[string]string{"kind": kind, "message": message})
	fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", payload)
	s.flush()
}

func (s *eventStreamSink) flush() {
	if err := s.w.Flush(); err != nil {
		s.cancel()
	}
}

func chatErrorKind(err error) string {
	switch {
	case errors.Is(err, service.ErrSessionBusy):
		return "SESSION_BUSY"
	case errors.Is(err, service.ErrChatSessionNotFound):
		return "SESSION_NOT_FOUND"
	case errors.Is(err, service.ErrEmptyChatMessage), errors.Is(err, service.ErrEmptyChatTitle):
		return "INVALID_INPUT"
	}
	return "CHAT_FAILED"
}

func chatFailure(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrChatSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, service.ErrSessionBusy):
		code = fiber.StatusConflict
	case errors.Is(err, service.ErrEmptyChatMessage), errors.Is(err, service.ErrEmptyChatTitle):
		code = fiber.StatusBadRequest
	default:
		return err
	}
	return ctx.Status(code).JSON(serverutils.TypedErrorResponse(code, chatErrorKind(err), err.Error()))
}
