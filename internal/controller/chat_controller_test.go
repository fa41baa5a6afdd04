package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/chat/broker"
	"ai-chat-be/pkg/embedding"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatService struct {
	streamErr error
}

func (s *stubChatService) SendChatStream(ctx context.Context, userId uuid.UUID, req *dto.SendChatStreamRequest) (uuid.UUID, <-chan dto.StreamFragment, error) {
	if s.streamErr != nil {
		return uuid.Nil, nil, s.streamErr
	}
	out := make(chan dto.StreamFragment)
	close(out)
	return uuid.New(), out, nil
}

func (s *stubChatService) CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	return &dto.CreateConversationResponse{Id: uuid.New()}, nil
}

func (s *stubChatService) GetAllConversations(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllConversationsResponse, error) {
	return nil, nil
}

func (s *stubChatService) GetTurnHistory(ctx context.Context, userId, conversationId uuid.UUID) ([]*dto.GetTurnHistoryResponse, error) {
	return nil, nil
}

func (s *stubChatService) DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	return nil
}

func (s *stubChatService) EditTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID, req *dto.EditTurnRequest) error {
	return nil
}

func (s *stubChatService) DeleteTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID) error {
	return nil
}

func newChatTestApp(svc service.IChatService) *fiber.App {
	app := fiber.New()
	NewChatController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func signTestToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func postStream(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"model": "qwen2.5", "prompt": "hi"})
	req := httptest.NewRequest("POST", "/api/chat/v1/stream", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestStream_MissingTokenIsUnauthorized(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newChatTestApp(&stubChatService{})
	assert.Equal(t, 401, postStream(t, app, ""))
}

func TestStream_PreStreamErrorStatuses(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token := signTestToken(t, "test-secret")

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown conversation", service.ErrConversationNotFound, 404},
		{"unknown user", service.ErrUserNotFound, 404},
		{"no subscription", service.ErrSubscriptionRequired, 403},
		{"bad api key", service.ErrInvalidApiKey, 403},
		{"probe failure", broker.ErrInferenceUnavailable, 502},
		{"wrapped probe failure", fmt.Errorf("chat backend probe failed: %w", broker.ErrInferenceUnavailable), 502},
		{"embedding down", fmt.Errorf("prompt embedding failed: %w", embedding.ErrUnavailable), 502},
		{"validation failure", errors.New("field Prompt failed on required"), 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newChatTestApp(&stubChatService{streamErr: tc.err})
			assert.Equal(t, tc.status, postStream(t, app, token))
		})
	}
}
