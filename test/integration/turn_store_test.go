package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTurnRoundTrip stores a turn with its embedding against a real Postgres
// instance and reads it back through FindRecent. Requires
// DB_CONNECTION_STRING and a migrated schema (cmd/migrate); skipped
// otherwise.
func TestTurnRoundTrip(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(os.Getenv("DB_CONNECTION_STRING"))
	require.NoError(t, err, "Failed to connect to DB")

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	userId := uuid.New()
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "round trip",
		CreatedAt: time.Now(),
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))
	t.Cleanup(func() {
		_ = uow.TurnRepository().DeleteAllByConversationId(ctx, conversation.Id)
		_ = uow.ConversationRepository().Delete(ctx, conversation.Id)
	})

	// The stored vector must come back element-for-element identical; the
	// column is float4 so float32 values round-trip exactly.
	vector := make([]float32, 768)
	for i := range vector {
		vector[i] = float32(i%17) * 0.25
	}

	turn := &entity.Turn{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		UserId:         userId,
		Role:           constant.TurnRoleUser,
		Content:        "cà phê sữa đá ngon nhất ở đâu?",
		Embedding:      vector,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, uow.TurnRepository().Create(ctx, turn))

	recent, err := uow.TurnRepository().FindRecent(ctx, conversation.Id, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	assert.Equal(t, turn.Id, got.Id)
	assert.Equal(t, turn.Content, got.Content)
	require.Len(t, got.Embedding, len(vector))
	assert.Equal(t, vector, got.Embedding)
}

// TestUpdateContentIsIdempotent replays the same edit twice and expects the
// stored row to converge to the same content and vector.
func TestUpdateContentIsIdempotent(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("DB_CONNECTION_STRING not set, skipping integration test")
	}

	db, err := database.NewGormDBFromDSN(os.Getenv("DB_CONNECTION_STRING"))
	require.NoError(t, err, "Failed to connect to DB")

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	userId := uuid.New()
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     "edit twice",
		CreatedAt: time.Now(),
	}
	require.NoError(t, uow.ConversationRepository().Create(ctx, conversation))
	t.Cleanup(func() {
		_ = uow.TurnRepository().DeleteAllByConversationId(ctx, conversation.Id)
		_ = uow.ConversationRepository().Delete(ctx, conversation.Id)
	})

	turn := &entity.Turn{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		UserId:         userId,
		Role:           constant.TurnRoleUser,
		Content:        "original",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, uow.TurnRepository().Create(ctx, turn))

	edited := "edited content"
	vector := make([]float32, 768)
	for i := range vector {
		vector[i] = float32(i%13) * 0.5
	}

	require.NoError(t, uow.TurnRepository().UpdateContent(ctx, turn.Id, edited, vector))
	first, err := uow.TurnRepository().FindOne(ctx, specification.ByID{ID: turn.Id})
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, uow.TurnRepository().UpdateContent(ctx, turn.Id, edited, vector))
	second, err := uow.TurnRepository().FindOne(ctx, specification.ByID{ID: turn.Id})
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, edited, second.Content)
	assert.Equal(t, first.Embedding, second.Embedding)
	assert.Equal(t, vector, second.Embedding)
}
