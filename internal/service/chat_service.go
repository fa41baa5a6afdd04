// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/chat/augment"
	"ai-chat-be/pkg/chat/broker"
	"ai-chat-be/pkg/chat/contextwin"
	"ai-chat-be/pkg/chat/prompt"
	"ai-chat-be/pkg/embedding"
	"ai-chat-be/pkg/tokenizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IChatService interface {
	// SendChatStream runs one full turn and returns the fragment stream.
	// An error return means nothing was streamed; past that point failures
	// arrive as an error fragment.
	SendChatStream(ctx context.Context, userId uuid.UUID, req *dto.SendChatStreamRequest) (uuid.UUID, <-chan dto.StreamFragment, error)

	CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	GetAllConversations(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllConversationsResponse, error)
	GetTurnHistory(ctx context.Context, userId, conversationId uuid.UUID) ([]*dto.GetTurnHistoryResponse, error)
	DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error
	EditTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID, req *dto.EditTurnRequest) error
	DeleteTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID) error
}

type chatService struct {
	uowFactory          unitofwork.RepositoryFactory
	subscriptionService ISubscriptionService
	embeddingService    *embedding.Service
	counter             *tokenizer.Counter
	budgeter            *contextwin.Budgeter
	augmenter           *augment.Augmenter
	promptBuilder       *prompt.Builder
	broker              *broker.Broker
	backfillPub         *gochannel.GoChannel
	backfillTopic       string
	recencyLimit        int
	translateFirst      bool
	log                 logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	subscriptionService ISubscriptionService,
	embeddingService *embedding.Service,
	counter *tokenizer.Counter,
	budgeter *contextwin.Budgeter,
	augmenter *augment.Augmenter,
	promptBuilder *prompt.Builder,
	chatBroker *broker.Broker,
	backfillPub *gochannel.GoChannel,
	backfillTopic string,
	recencyLimit int,
	translateFirst bool,
	log logger.ILogger,
) IChatService {
	if recencyLimit <= 0 {
		recencyLimit = 50
	}
	return &chatService{
		uowFactory:          uowFactory,
		subscriptionService: subscriptionService,
		embeddingService:    embeddingService,
		counter:             counter,
		budgeter:            budgeter,
		augmenter:           augmenter,
		promptBuilder:       promptBuilder,
		broker:              chatBroker,
		backfillPub:         backfillPub,
		backfillTopic:       backfillTopic,
		recencyLimit:        recencyLimit,
		translateFirst:      translateFirst,
		log:                 log,
	}
}

func conversationTitleFromPrompt(p string) string {
	runes := []rune(p)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return p
}

func (s *chatService) SendChatStream(ctx context.Context, userId uuid.UUID, req *dto.SendChatStreamRequest) (uuid.UUID, <-chan dto.StreamFragment, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return uuid.Nil, nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return uuid.Nil, nil, ErrUserNotFound
	}

	// Every turn needs a live subscription: resolved by API key when one is
	// sent, otherwise by the caller's own active subscription.
	var subscription *entity.Subscription
	if req.ApiKey != "" {
		subscription, err = s.subscriptionService.ValidateApiKey(ctx, req.ApiKey)
		if err != nil {
			return uuid.Nil, nil, err
		}
	} else {
		subscription, err = uow.SubscriptionRepository().FindOne(ctx,
			specification.ByUserID{UserID: userId},
			specification.ActiveAt{At: time.Now()},
		)
		if err != nil {
			return uuid.Nil, nil, err
		}
		if subscription == nil {
			return uuid.Nil, nil, ErrSubscriptionRequired
		}
	}

	conversation, err := s.resolveConversation(ctx, uow, userId, req)
	if err != nil {
		return uuid.Nil, nil, err
	}

	// Embed the prompt up front; the context window and the stored user
	// turn both need the vector.
	promptVec, err := s.embeddingService.Embed(ctx, req.Prompt, s.translateFirst)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("prompt embedding failed: %w", err)
	}

	recent, err := uow.TurnRepository().FindRecent(ctx, conversation.Id, s.recencyLimit)
	if err != nil {
		return uuid.Nil, nil, err
	}

	history := s.budgeter.Select(recent, promptVec)

	searchContext := s.augmenter.BuildSearchContext(ctx, req.Prompt)
	systemPrompt := s.promptBuilder.SystemPrompt(user.Username, time.Now(), searchContext)
	messages := s.promptBuilder.Messages(systemPrompt, history, req.Prompt)

	var subscriptionId *uuid.UUID
	if subscription != nil {
		subscriptionId = &subscription.Id
	}

	// The user turn is appended before inference starts; a failed turn
	// still leaves the question on record.
	userTurn := &entity.Turn{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		UserId:         userId,
		SubscriptionId: subscriptionId,
		Role:           constant.TurnRoleUser,
		Content:        req.Prompt,
		Embedding:      promptVec,
		CreatedAt:      time.Now(),
	}
	if err := uow.TurnRepository().Create(ctx, userTurn); err != nil {
		return uuid.Nil, nil, err
	}

	promptTokens := 0
	for _, m := range messages {
		promptTokens += s.counter.Count(m.Content)
	}

	persist := func(persistCtx context.Context, content string) {
		s.persistAssistantTurn(persistCtx, conversation.Id, userId, subscriptionId, req.Model, content, promptTokens)
	}

	fragments, err := s.broker.Run(ctx, req.Model, messages, req.Prompt, persist)
	if err != nil {
		return uuid.Nil, nil, err
	}

	out := make(chan dto.StreamFragment)
	go func() {
		defer close(out)
		for f := range fragments {
			if f.Err != nil {
				out <- dto.StreamFragment{ConversationId: conversation.Id, Error: f.Err.Error()}
				return
			}
			out <- dto.StreamFragment{
				ConversationId: conversation.Id,
				Message:        &dto.StreamMessage{Content: f.Content},
			}
		}
		out <- dto.StreamFragment{ConversationId: conversation.Id, Done: true}
	}()

	return conversation.Id, out, nil
}

func (s *chatService) resolveConversation(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, req *dto.SendChatStreamRequest) (*entity.Conversation, error) {
	if req.ConversationId != nil {
		conversation, err := uow.ConversationRepository().FindOne(ctx,
			specification.ByID{ID: *req.ConversationId},
			specification.ByUserID{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if conversation == nil {
			return nil, ErrConversationNotFound
		}
		return conversation, nil
	}

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     conversationTitleFromPrompt(req.Prompt),
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// persistAssistantTurn stores the accumulated reply, meters usage, and
// queues the embedding backfill when the synchronous embed fails. Runs on a
// context detached from the client connection.
func (s *chatService) persistAssistantTurn(ctx context.Context, conversationId, userId uuid.UUID, subscriptionId *uuid.UUID, model, content string, promptTokens int) {
	turn := &entity.Turn{
		Id:             uuid.New(),
		ConversationId: conversationId,
		UserId:         userId,
		SubscriptionId: subscriptionId,
		Role:           constant.TurnRoleAssistant,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	// Assistant replies are embedded as-is, no translation pass.
	vector, err := s.embeddingService.Embed(ctx, content, false)
	if err != nil {
		s.log.Warn("chat", "assistant embedding unavailable, queuing backfill", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	} else {
		turn.Embedding = vector
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TurnRepository().Create(ctx, turn); err != nil {
		s.log.Error("chat", "failed to persist assistant turn", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
		return
	}

	if len(turn.Embedding) == 0 && s.backfillPub != nil {
		payload, _ := json.Marshal(dto.PublishEmbedTurnMessage{TurnId: turn.Id, Translate: false})
		if err := s.backfillPub.Publish(s.backfillTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
			s.log.Warn("chat", "failed to queue embedding backfill", map[string]interface{}{
				"turn_id": turn.Id.String(),
				"error":   err.Error(),
			})
		}
	}

	record := &entity.UsageRecord{
		Id:               uuid.New(),
		UserId:           userId,
		SubscriptionId:   subscriptionId,
		ConversationId:   conversationId,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: s.counter.Count(content),
		Details: map[string]interface{}{
			"assistant_chars": len(content),
		},
		CreatedAt: time.Now(),
	}
	if err := s.subscriptionService.RecordUsage(ctx, record); err != nil {
		s.log.Warn("chat", "failed to record usage", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

// Conversation CRUD

func (s *chatService) CreateConversation(ctx context.Context, userId uuid.UUID, req *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}
	return &dto.CreateConversationResponse{Id: conversation.Id}, nil
}

func (s *chatService) GetAllConversations(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllConversationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetAllConversationsResponse, 0, len(conversations))
	for _, c := range conversations {
		result = append(result, &dto.GetAllConversationsResponse{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return result, nil
}

func (s *chatService) GetTurnHistory(ctx context.Context, userId, conversationId uuid.UUID) ([]*dto.GetTurnHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	turns, err := uow.TurnRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.GetTurnHistoryResponse, 0, len(turns))
	for _, t := range turns {
		result = append(result, &dto.GetTurnHistoryResponse{
			Id:        t.Id,
			Role:      t.Role,
			Content:   t.Content,
			CreatedAt: t.CreatedAt,
		})
	}
	return result, nil
}

func (s *chatService) DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.TurnRepository().DeleteAllByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) findOwnedTurn(ctx context.Context, uow unitofwork.UnitOfWork, userId, conversationId, turnId uuid.UUID) (*entity.Turn, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	turn, err := uow.TurnRepository().FindOne(ctx,
		specification.ByID{ID: turnId},
		specification.ByConversationID{ConversationID: conversationId},
	)
	if err != nil {
		return nil, err
	}
	if turn == nil {
		return nil, ErrTurnNotFound
	}
	return turn, nil
}

// EditTurn replaces a user turn's content and re-embeds it. Assistant turns
// are immutable; re-running the same edit converges to the same stored state.
func (s *chatService) EditTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID, req *dto.EditTurnRequest) error {
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	turn, err := s.findOwnedTurn(ctx, uow, userId, conversationId, turnId)
	if err != nil {
		return err
	}
	if turn.Role != constant.TurnRoleUser {
		return errors.New("only user turns can be edited")
	}

	vector, err := s.embeddingService.Embed(ctx, req.Content, s.translateFirst)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	return uow.TurnRepository().UpdateContent(ctx, turnId, req.Content, vector)
}

func (s *chatService) DeleteTurn(ctx context.Context, userId, conversationId, turnId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	turn, err := s.findOwnedTurn(ctx, uow, userId, conversationId, turnId)
	if err != nil {
		return err
	}
	return uow.TurnRepository().Delete(ctx, turn.Id)
}
