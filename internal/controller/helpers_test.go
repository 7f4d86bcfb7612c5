package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testJwtSecret = "controller-test-secret"

func newTestApp(t *testing.T, register func(fiber.Router)) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testJwtSecret)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	register(api)
	return app
}

func bearerToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJwtSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, res *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// --- stub services ---

type stubChatService struct {
	createFn      func(ctx context.Context, userId *uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error)
	listFn        func(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSummaryResponse, error)
	showFn        func(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) (*dto.ChatDetailResponse, error)
	messagesFn    func(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) ([]*dto.MessageResponse, error)
	deleteFn      func(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) error
	saveMessageFn func(ctx context.Context, userId *uuid.UUID, req *dto.SaveMessageRequest) (*dto.SaveMessageResponse, error)
}

func (s *stubChatService) Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error) {
	return s.createFn(ctx, userId, req)
}

func (s *stubChatService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSummaryResponse, error) {
	return s.listFn(ctx, userId)
}

func (s *stubChatService) Show(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) (*dto.ChatDetailResponse, error) {
	return s.showFn(ctx, userId, chatId)
}

func (s *stubChatService) Messages(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) ([]*dto.MessageResponse, error) {
	return s.messagesFn(ctx, userId, chatId)
}

func (s *stubChatService) Delete(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) error {
	return s.deleteFn(ctx, userId, chatId)
}

func (s *stubChatService) SaveMessage(ctx context.Context, userId *uuid.UUID, req *dto.SaveMessageRequest) (*dto.SaveMessageResponse, error) {
	return s.saveMessageFn(ctx, userId, req)
}

type stubShareService struct {
	createFn func(ctx context.Context, userId *uuid.UUID, req *dto.CreateShareRequest) (*dto.ShareResponse, error)
	readFn   func(ctx context.Context, shareToken string) (*dto.SharedChatResponse, error)
	importFn func(ctx context.Context, userId uuid.UUID, req *dto.ImportChatRequest) (*dto.ImportChatResponse, error)
}

func (s *stubShareService) Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateShareRequest) (*dto.ShareResponse, error) {
	return s.createFn(ctx, userId, req)
}

func (s *stubShareService) Read(ctx context.Context, shareToken string) (*dto.SharedChatResponse, error) {
	return s.readFn(ctx, shareToken)
}

func (s *stubShareService) Import(ctx context.Context, userId uuid.UUID, req *dto.ImportChatRequest) (*dto.ImportChatResponse, error) {
	return s.importFn(ctx, userId, req)
}

type stubStreamService struct {
	streamFn func(ctx context.Context, userId *uuid.UUID, req *dto.StreamChatRequest, onEvent func(dto.StreamEvent) error) error
}

func (s *stubStreamService) Stream(ctx context.Context, userId *uuid.UUID, req *dto.StreamChatRequest, onEvent func(dto.StreamEvent) error) error {
	return s.streamFn(ctx, userId, req, onEvent)
}
