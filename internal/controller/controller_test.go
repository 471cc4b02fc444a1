package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qms-compliance-be/internal/dto"
	"qms-compliance-be/internal/model"
	"qms-compliance-be/internal/pkg/logger"
	"qms-compliance-be/internal/pkg/serverutils"
	"qms-compliance-be/internal/repository/memory"
	"qms-compliance-be/internal/repository/unitofwork"
	"qms-compliance-be/internal/service"
	"qms-compliance-be/pkg/database"
	pkgEvents "qms-compliance-be/pkg/events"
	"qms-compliance-be/pkg/llm"
	"qms-compliance-be/pkg/sse"
	"qms-compliance-be/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

type echoProvider struct{}

func (echoProvider) Stream(ctx context.Context, history []llm.Message, sink sse.Sink, options ...llm.Option) error {
	last := history[len(history)-1].Content
	sink.OnDelta("You said: ")
	sink.OnDelta(last)
	sink.OnDone()
	return nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.NewSQLiteDB("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllCapaModels()...))

	store, err := storage.NewLocalStore(t.TempDir(), "capa-attachments", "/files")
	require.NoError(t, err)

	log := logger.NewNopLogger()
	factory := unitofwork.NewRepositoryFactory(db)
	opts := service.CapaWorkflowOptions{AtomicChains: true, AttachmentURLExpiry: time.Minute}
	workflow := service.NewCapaWorkflowService(factory, store, service.NewCapaEventPublisher(pkgEvents.NopPublisher, log), log, opts)
	query := service.NewCapaQueryService(factory, store, log, opts)
	chat := service.NewChatService(memory.NewChatSessionRepository(), echoProvider{}, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	auth := serverutils.NewJwtMiddleware(testSecret)
	NewCapaController(workflow, query).RegisterRoutes(api, auth)
	NewChatController(chat, log).RegisterRoutes(api, auth)
	return app
}

func bearer(t *testing.T, userId string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1"))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func TestCapaRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/capa/v1/collections", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCapaHTTPFlow(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/capa/v1/audits", map[string]interface{}{"title": "A1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var audit struct {
		Audit    struct{ Id uuid.UUID } `json:"audit"`
		CapaPlan struct{ Id uuid.UUID } `json:"capa_plan"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	require.NotEqual(t, uuid.Nil, audit.CapaPlan.Id)

	resp, env = doJSON(t, app, http.MethodPost, "/api/capa/v1/non-conformities", map[string]interface{}{
		"capa_plan_id": audit.CapaPlan.Id,
		"title":        "NC1",
		"severity":     "critical",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var nc struct {
		NonConformity struct{ Id uuid.UUID } `json:"non_conformity"`
		InitialAction struct {
			Id         uuid.UUID `json:"id"`
			ActionType string    `json:"action_type"`
		} `json:"initial_action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &nc))
	assert.Equal(t, "corrective", nc.InitialAction.ActionType)

	// Multipart action with an attachment.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("non_conformity_id", nc.NonConformity.Id.String()))
	require.NoError(t, mw.WriteField("action_type", "preventive"))
	require.NoError(t, mw.WriteField("description", "update SOP"))
	require.NoError(t, mw.WriteField("due_date", "2024-06-01"))
	fw, err := mw.CreateFormFile("attachment", "sop.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/capa/v1/actions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &env))
	var action struct {
		Action struct {
			Id          uuid.UUID `json:"id"`
			DueDate     time.Time `json:"due_date"`
			Attachments []struct {
				ObjectPath string `json:"object_path"`
				URL        string `json:"url"`
			} `json:"attachments"`
		} `json:"action"`
		Warnings []interface{} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &action))
	assert.Empty(t, action.Warnings)
	require.Len(t, action.Action.Attachments, 1)
	assert.True(t, strings.HasSuffix(action.Action.Attachments[0].ObjectPath, ".pdf"))
	assert.Equal(t, 2024, action.Action.DueDate.Year())

	resp, env = doJSON(t, app, http.MethodPatch, "/api/capa/v1/actions/"+action.Action.Id.String()+"/status", map[string]string{"status": "closed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPatch, "/api/capa/v1/actions/"+action.Action.Id.String()+"/status", map[string]string{"status": "finished"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorType)

	resp, env = doJSON(t, app, http.MethodGet, "/api/capa/v1/audits/"+audit.Audit.Id.String()+"/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		NonConformities []struct {
			Actions []interface{} `json:"actions"`
		} `json:"non_conformities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.NonConformities, 1)
	assert.Len(t, view.NonConformities[0].Actions, 2)

	resp, env = doJSON(t, app, http.MethodGet, "/api/capa/v1/integrity", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"audits_without_capa_plan":[],"non_conformities_without_corrective_action":[]}`, string(env.Data))

	resp, env = doJSON(t, app, http.MethodPost, "/api/capa/v1/audits/"+audit.Audit.Id.String()+"/repair", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"created":false`)
}

func TestCapaErrorMapping(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/capa/v1/non-conformities", map[string]interface{}{
		"capa_plan_id": uuid.New(),
		"title":        "NC1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(service.CapaPlanNotFound), env.ErrorType)

	resp, env = doJSON(t, app, http.MethodGet, "/api/capa/v1/audits/"+uuid.NewString()+"/view", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(service.AuditNotFound), env.ErrorType)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/capa/v1/actions/not-a-uuid", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/capa/v1/audits", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorType)
}

func TestChatHTTPFlow(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/chat/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		Id uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	req := httptest.NewRequest(http.MethodPost, "/api/chat/v1/sessions/"+session.Id.String()+"/messages",
		strings.NewReader(`{"content":"what is a CAPA?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	stream := string(raw)
	assert.Contains(t, stream, `data: {"choices":[{"delta":{"content":"You said: "}}]}`)
	assert.True(t, strings.HasSuffix(stream, "data: [DONE]\n\n"))

	text, err := sse.Collect(context.Background(), strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "You said: what is a CAPA?", text)

	resp, env = doJSON(t, app, http.MethodGet, "/api/chat/v1/sessions/"+session.Id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored struct {
		Title    string        `json:"title"`
		Messages []interface{} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, "what is a CAPA?", stored.Title)
	assert.Len(t, stored.Messages, 2)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/chat/v1/sessions/"+session.Id.String(), map[string]string{"title": "CAPA basics"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPost, "/api/chat/v1/sessions/"+uuid.NewString()+"/messages", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", env.ErrorType)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/chat/v1/sessions/"+session.Id.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/chat/v1/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(env.Data))
}

// streamingChat reports every session as busy with a reply.
type streamingChat struct {
	service.IChatService
}

func (streamingChat) GetSession(ctx context.Context, ownerKey string, sessionId uuid.UUID) (*dto.ChatSessionResponse, error) {
	return &dto.ChatSessionResponse{Id: sessionId}, nil
}

func (streamingChat) IsStreaming(ownerKey string, sessionId uuid.UUID) bool { return true }

func TestChatSendWhileStreamingConflicts(t *testing.T) {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewChatController(streamingChat{}, logger.NewNopLogger()).RegisterRoutes(app.Group("/api"), serverutils.NewJwtMiddleware(testSecret))

	resp, env := doJSON(t, app, http.MethodPost, "/api/chat/v1/sessions/"+uuid.NewString()+"/messages", map[string]string{"content": "again"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
	assert.Equal(t, "SESSION_BUSY", env.ErrorType)
	assert.False(t, env.Success)
}
