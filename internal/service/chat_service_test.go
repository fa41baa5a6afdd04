package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/chat/augment"
	"ai-chat-be/pkg/chat/broker"
	"ai-chat-be/pkg/chat/contextwin"
	"ai-chat-be/pkg/chat/prompt"
	"ai-chat-be/pkg/embedding"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/search"
	"ai-chat-be/pkg/tokenizer"
)

// callLog records cross-collaborator call order so tests can assert on the
// persist-before-probe sequencing of a chat turn.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *callLog) indexOf(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

type fakeUserRepo struct {
	user *entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (f *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	return f.user, nil
}
func (f *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeUserRepo) ActivateUser(ctx context.Context, userId uuid.UUID) error { return nil }
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	return nil
}
func (f *fakeUserRepo) SaveOauthState(ctx context.Context, userId uuid.UUID, state string) error {
	return nil
}
func (f *fakeUserRepo) SaveGoogleTokens(ctx context.Context, userId uuid.UUID, accessToken, refreshToken string, expiry *time.Time) error {
	return nil
}
func (f *fakeUserRepo) CreateActivationCode(ctx context.Context, code *entity.ActivationCode) error {
	return nil
}
func (f *fakeUserRepo) FindActivationCode(ctx context.Context, specs ...specification.Specification) (*entity.ActivationCode, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteActivationCodesForUser(ctx context.Context, userId uuid.UUID) error {
	return nil
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	store map[uuid.UUID]*entity.Conversation
}

func (f *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *conversation
	f.store[conversation.Id] = &clone
	return nil
}
func (f *fakeConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	return f.Create(ctx, conversation)
}
func (f *fakeConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, id)
	return nil
}
func (f *fakeConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var id, userId *uuid.UUID
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			want := v.ID
			id = &want
		case specification.ByUserID:
			want := v.UserID
			userId = &want
		}
	}
	for _, c := range f.store {
		if id != nil && c.Id != *id {
			continue
		}
		if userId != nil && c.UserId != *userId {
			continue
		}
		clone := *c
		return &clone, nil
	}
	return nil, nil
}
func (f *fakeConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Conversation, 0, len(f.store))
	for _, c := range f.store {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}
func (f *fakeConversationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.store)), nil
}

type fakeTurnRepo struct {
	log   *callLog
	mu    sync.Mutex
	turns []*entity.Turn
}

func (f *fakeTurnRepo) Create(ctx context.Context, turn *entity.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *turn
	f.turns = append(f.turns, &clone)
	f.log.add("turn.create:" + turn.Role)
	return nil
}
func (f *fakeTurnRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var id, conversationId *uuid.UUID
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			want := v.ID
			id = &want
		case specification.ByConversationID:
			want := v.ConversationID
			conversationId = &want
		}
	}
	for _, t := range f.turns {
		if id != nil && t.Id != *id {
			continue
		}
		if conversationId != nil && t.ConversationId != *conversationId {
			continue
		}
		clone := *t
		return &clone, nil
	}
	return nil, nil
}
func (f *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Turn, 0, len(f.turns))
	for _, t := range f.turns {
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}
func (f *fakeTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.turns)), nil
}
func (f *fakeTurnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.turns[:0]
	for _, t := range f.turns {
		if t.Id != id {
			kept = append(kept, t)
		}
	}
	f.turns = kept
	return nil
}
func (f *fakeTurnRepo) DeleteAllByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.turns[:0]
	for _, t := range f.turns {
		if t.ConversationId != conversationId {
			kept = append(kept, t)
		}
	}
	f.turns = kept
	return nil
}
func (f *fakeTurnRepo) FindRecent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Turn, 0, limit)
	for i := len(f.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if f.turns[i].ConversationId != conversationId {
			continue
		}
		clone := *f.turns[i]
		out = append(out, &clone)
	}
	return out, nil
}
func (f *fakeTurnRepo) UpdateContent(ctx context.Context, turnId uuid.UUID, content string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.turns {
		if t.Id == turnId {
			t.Content = content
			t.Embedding = append([]float32(nil), embedding...)
			f.log.add("turn.update")
			return nil
		}
	}
	return errors.New("turn not found")
}
func (f *fakeTurnRepo) UpdateEmbedding(ctx context.Context, turnId uuid.UUID, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.turns {
		if t.Id == turnId {
			t.Embedding = append([]float32(nil), embedding...)
			return nil
		}
	}
	return errors.New("turn not found")
}

func (f *fakeTurnRepo) get(id uuid.UUID) *entity.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.turns {
		if t.Id == id {
			clone := *t
			return &clone
		}
	}
	return nil
}

type fakeSubscriptionRepo struct {
	sub *entity.Subscription
}

func (f *fakeSubscriptionRepo) CreatePlan(ctx context.Context, plan *entity.Plan) error { return nil }
func (f *fakeSubscriptionRepo) FindPlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	return nil, nil
}
func (f *fakeSubscriptionRepo) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	return nil, nil
}
func (f *fakeSubscriptionRepo) FindVoucher(ctx context.Context, specs ...specification.Specification) (*entity.Voucher, error) {
	return nil, nil
}
func (f *fakeSubscriptionRepo) IncrementVoucherUsage(ctx context.Context, voucherId uuid.UUID) error {
	return nil
}
func (f *fakeSubscriptionRepo) Create(ctx context.Context, subscription *entity.Subscription) error {
	return nil
}
func (f *fakeSubscriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	return f.sub, nil
}
func (f *fakeSubscriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	return nil, nil
}
func (f *fakeSubscriptionRepo) CreateUsageRecord(ctx context.Context, record *entity.UsageRecord) error {
	return nil
}
func (f *fakeSubscriptionRepo) FindUsageRecords(ctx context.Context, specs ...specification.Specification) ([]*entity.UsageRecord, error) {
	return nil, nil
}

type fakeUnitOfWork struct {
	users         *fakeUserRepo
	conversations *fakeConversationRepo
	turns         *fakeTurnRepo
	subscriptions *fakeSubscriptionRepo
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error                   { return nil }
func (f *fakeUnitOfWork) Rollback() error                 { return nil }
func (f *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return f.users
}
func (f *fakeUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return f.conversations
}
func (f *fakeUnitOfWork) TurnRepository() contract.TurnRepository {
	return f.turns
}
func (f *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return f.subscriptions
}

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeSubscriptionService struct {
	log     *callLog
	apiSub  *entity.Subscription
	apiErr  error
	mu      sync.Mutex
	records []*entity.UsageRecord
}

func (f *fakeSubscriptionService) GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	return nil, nil
}
func (f *fakeSubscriptionService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	return nil, nil
}
func (f *fakeSubscriptionService) PurchasePlan(ctx context.Context, userId uuid.UUID, req *dto.PurchasePlanRequest) (*dto.PurchasePlanResponse, error) {
	return nil, nil
}
func (f *fakeSubscriptionService) HandlePaymentNotification(ctx context.Context, orderId, transactionStatus, statusCode, grossAmount, signatureKey string) error {
	return nil
}
func (f *fakeSubscriptionService) GetMySubscriptions(ctx context.Context, userId uuid.UUID) ([]*dto.SubscriptionResponse, error) {
	return nil, nil
}
func (f *fakeSubscriptionService) ValidateApiKey(ctx context.Context, apiKey string) (*entity.Subscription, error) {
	return f.apiSub, f.apiErr
}
func (f *fakeSubscriptionService) RecordUsage(ctx context.Context, record *entity.UsageRecord) error {
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()
	f.log.add("usage.record")
	return nil
}
func (f *fakeSubscriptionService) GetUsageSummary(ctx context.Context, userId uuid.UUID) ([]*dto.UsageSummaryResponse, error) {
	return nil, nil
}

// fakeEmbedProvider derives a deterministic vector from the text bytes, so
// two embeds of the same content always produce equal vectors.
type fakeEmbedProvider struct {
	log  *callLog
	fail bool
}

func (f *fakeEmbedProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, embedding.ErrUnavailable
	}
	f.log.add("embed")
	v := make([]float32, 4)
	for i, b := range []byte(text) {
		v[i%4] += float32(b)
	}
	return v, nil
}

type fakeChatProvider struct {
	log    *callLog
	chunks []string
}

func (f *fakeChatProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.log.add("llm.probe")
	return "Here is the answer.", nil
}

func (f *fakeChatProvider) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamChunk, error) {
	f.log.add("llm.stream")
	out := make(chan llm.StreamChunk, len(f.chunks)+1)
	for _, c := range f.chunks {
		out <- llm.StreamChunk{Content: c}
	}
	out <- llm.StreamChunk{Done: true}
	close(out)
	return out, nil
}

func (f *fakeChatProvider) Generate(ctx context.Context, promptText string, opts ...llm.Option) (string, error) {
	return "", nil
}

type emptySearcher struct{}

func (emptySearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Document, error) {
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type chatHarness struct {
	service       IChatService
	userId        uuid.UUID
	log           *callLog
	turns         *fakeTurnRepo
	conversations *fakeConversationRepo
	subscriptions *fakeSubscriptionRepo
	subService    *fakeSubscriptionService
	embedder      *fakeEmbedProvider
}

func newChatHarness(chunks []string) *chatHarness {
	events := &callLog{}
	userId := uuid.New()

	userRepo := &fakeUserRepo{user: &entity.User{Id: userId, Username: "tester", IsActive: true}}
	conversationRepo := &fakeConversationRepo{store: map[uuid.UUID]*entity.Conversation{}}
	turnRepo := &fakeTurnRepo{log: events}
	subscriptionRepo := &fakeSubscriptionRepo{sub: &entity.Subscription{
		Id:        uuid.New(),
		UserId:    userId,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}}
	uow := &fakeUnitOfWork{
		users:         userRepo,
		conversations: conversationRepo,
		turns:         turnRepo,
		subscriptions: subscriptionRepo,
	}

	subService := &fakeSubscriptionService{log: events}
	embedder := &fakeEmbedProvider{log: events}
	provider := &fakeChatProvider{log: events, chunks: chunks}
	quiet := log.New(io.Discard, "", 0)

	counter := &tokenizer.Counter{}
	augmenter := augment.NewAugmenter(provider, emptySearcher{}, "", 3, []string{`\bnever-signals\b`}, quiet)
	chatSvc := NewChatService(
		&fakeRepositoryFactory{uow: uow},
		subService,
		embedding.NewService(embedder, nil, quiet),
		counter,
		contextwin.NewBudgeter(counter, 32000, 10, quiet),
		augmenter,
		prompt.NewBuilder(constant.DefaultPersona),
		broker.NewBroker(provider, augmenter, quiet),
		nil,
		"",
		50,
		false,
		nopLogger{},
	)

	return &chatHarness{
		service:       chatSvc,
		userId:        userId,
		log:           events,
		turns:         turnRepo,
		conversations: conversationRepo,
		subscriptions: subscriptionRepo,
		subService:    subService,
		embedder:      embedder,
	}
}

func drain(t *testing.T, fragments <-chan dto.StreamFragment) []dto.StreamFragment {
	t.Helper()
	var out []dto.StreamFragment
	for f := range fragments {
		out = append(out, f)
	}
	return out
}

func TestSendChatStreamPromptEmbedFailureAborts(t *testing.T) {
	h := newChatHarness([]string{"hello"})
	h.embedder.fail = true

	_, fragments, err := h.service.SendChatStream(context.Background(), h.userId, &dto.SendChatStreamRequest{
		Model:  "qwen2.5",
		Prompt: "what is the capital of France?",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, embedding.ErrUnavailable))
	assert.Nil(t, fragments)

	// Fatal before any side effect past the conversation row: no turn
	// stored, no model call.
	assert.Empty(t, h.turns.turns)
	assert.Equal(t, -1, h.log.indexOf("llm.probe"))
}

func TestSendChatStreamPersistsUserTurnBeforeProbe(t *testing.T) {
	h := newChatHarness([]string{"Paris", " is the capital."})

	conversationId, fragments, err := h.service.SendChatStream(context.Background(), h.userId, &dto.SendChatStreamRequest{
		Model:  "qwen2.5",
		Prompt: "what is the capital of France?",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, conversationId)

	received := drain(t, fragments)

	userCreate := h.log.indexOf("turn.create:" + constant.TurnRoleUser)
	probe := h.log.indexOf("llm.probe")
	stream := h.log.indexOf("llm.stream")
	assistantCreate := h.log.indexOf("turn.create:" + constant.TurnRoleAssistant)

	require.NotEqual(t, -1, userCreate)
	require.NotEqual(t, -1, probe)
	assert.Less(t, userCreate, probe, "user turn must be on record before inference starts")
	assert.Less(t, probe, stream)
	assert.Less(t, stream, assistantCreate)

	// Fragments carry the deltas in order, then the done marker.
	require.Len(t, received, 3)
	assert.Equal(t, "Paris", received[0].Message.Content)
	assert.Equal(t, " is the capital.", received[1].Message.Content)
	assert.True(t, received[2].Done)

	// The assistant turn holds the full accumulated reply and usage was
	// metered once.
	turns, err := h.turns.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "Paris is the capital.", turns[1].Content)
	assert.NotEmpty(t, turns[1].Embedding)
	require.Len(t, h.subService.records, 1)
	assert.Equal(t, conversationId, h.subService.records[0].ConversationId)
}

func TestSendChatStreamRequiresActiveSubscription(t *testing.T) {
	h := newChatHarness(nil)
	h.subscriptions.sub = nil

	_, _, err := h.service.SendChatStream(context.Background(), h.userId, &dto.SendChatStreamRequest{
		Model:  "qwen2.5",
		Prompt: "hi",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubscriptionRequired))
	assert.Empty(t, h.turns.turns)
}

func TestEditTurnIsIdempotent(t *testing.T) {
	h := newChatHarness(nil)

	conversationId := uuid.New()
	turnId := uuid.New()
	require.NoError(t, h.conversations.Create(context.Background(), &entity.Conversation{
		Id:     conversationId,
		UserId: h.userId,
		Title:  "geo",
	}))
	require.NoError(t, h.turns.Create(context.Background(), &entity.Turn{
		Id:             turnId,
		ConversationId: conversationId,
		UserId:         h.userId,
		Role:           constant.TurnRoleUser,
		Content:        "what is the capital of Franse?",
	}))

	edit := &dto.EditTurnRequest{Content: "what is the capital of France?"}
	require.NoError(t, h.service.EditTurn(context.Background(), h.userId, conversationId, turnId, edit))
	first := h.turns.get(turnId)
	require.NotNil(t, first)
	assert.Equal(t, edit.Content, first.Content)
	require.NotEmpty(t, first.Embedding)

	require.NoError(t, h.service.EditTurn(context.Background(), h.userId, conversationId, turnId, edit))
	second := h.turns.get(turnId)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.Embedding, second.Embedding, "re-running the same edit must store the same vector")
}

func TestEditTurnRejectsAssistantTurns(t *testing.T) {
	h := newChatHarness(nil)

	conversationId := uuid.New()
	turnId := uuid.New()
	require.NoError(t, h.conversations.Create(context.Background(), &entity.Conversation{
		Id:     conversationId,
		UserId: h.userId,
	}))
	require.NoError(t, h.turns.Create(context.Background(), &entity.Turn{
		Id:             turnId,
		ConversationId: conversationId,
		UserId:         h.userId,
		Role:           constant.TurnRoleAssistant,
		Content:        "Paris.",
	}))

	err := h.service.EditTurn(context.Background(), h.userId, conversationId, turnId, &dto.EditTurnRequest{Content: "edited"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "user turns"))

	unchanged := h.turns.get(turnId)
	assert.Equal(t, "Paris.", unchanged.Content)
}
