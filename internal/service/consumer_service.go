// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService backfills turn embeddings off the request path. The chat
// turn persists immediately; the vector lands whenever the embedding
// backend cooperates.
type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	uowFactory       unitofwork.RepositoryFactory
	embeddingService *embedding.Service
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingService *embedding.Service,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		uowFactory:       uowFactory,
		embeddingService: embeddingService,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedTurnMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal backfill message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	turn, err := uow.TurnRepository().FindOne(ctx, specification.ByID{ID: payload.TurnId})
	if err != nil {
		log.Printf("[ERROR] Failed to get turn %s: %v", payload.TurnId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if turn == nil {
		log.Printf("[WARN] Turn not found (deleted?): %s", payload.TurnId)
		msg.Ack()
		return
	}
	if len(turn.Embedding) > 0 {
		// Raced with a retry that already succeeded
		msg.Ack()
		return
	}

	vector, err := cs.embeddingService.Embed(ctx, turn.Content, payload.Translate)
	if err != nil {
		log.Printf("[ERROR] Failed to generate embedding for turn %s: %v", turn.Id, err)
		msg.Nack()
		return
	}

	if err := uow.TurnRepository().UpdateEmbedding(ctx, turn.Id, vector); err != nil {
		log.Printf("[ERROR] Failed to store embedding for turn %s: %v", turn.Id, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Backfilled embedding for turn %s", turn.Id)
	msg.Ack()
}
