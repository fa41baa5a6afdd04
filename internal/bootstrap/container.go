package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/mailer"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"

	"ai-chat-be/pkg/chat/augment"
	"ai-chat-be/pkg/chat/broker"
	"ai-chat-be/pkg/chat/contextwin"
	"ai-chat-be/pkg/chat/prompt"
	"ai-chat-be/pkg/embedding"
	llmOllama "ai-chat-be/pkg/llm/ollama"
	pkgNats "ai-chat-be/pkg/nats"
	"ai-chat-be/pkg/search"
	"ai-chat-be/pkg/tokenizer"
	"ai-chat-be/pkg/translate"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	OAuthController controller.IOAuthController
	ChatController  controller.IChatController
	PlanController  controller.IPlanController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := log.Default()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. Inference + Context Pipeline
	llmProvider := llmOllama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.ChatModel, time.Duration(cfg.Ai.RequestTimeout)*time.Second)
	log.Printf("[INFO] Using LLM Provider: OLLAMA (%s)", cfg.Ai.ChatModel)

	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel, 30*time.Second)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	translator := translate.NewLLMTranslator(llmProvider, cfg.Ai.QueryModel)
	embeddingService := embedding.NewService(embeddingProvider, translator, pipelineLogger)

	counter := tokenizer.NewCounter()
	budgeter := contextwin.NewBudgeter(counter, cfg.Ai.TokenCeiling, cfg.Ai.SimilarityTopK, pipelineLogger)

	searcher := search.NewDuckDuckGoSearcher()
	augmenter := augment.NewAugmenter(
		llmProvider,
		searcher,
		cfg.Ai.QueryModel,
		cfg.Ai.SearchMaxResults,
		constant.NeedMoreInfoPatterns,
		pipelineLogger,
	)

	promptBuilder := prompt.NewBuilder(constant.DefaultPersona)
	chatBroker := broker.NewBroker(llmProvider, augmenter, pipelineLogger)

	// 4. Services
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.BackfillTopic,
		uowFactory,
		embeddingService,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	subscriptionService := service.NewSubscriptionService(uowFactory, rdb, natsPub, cfg.Payment.MidtransIsProd)

	chatService := service.NewChatService(
		uowFactory,
		subscriptionService,
		embeddingService,
		counter,
		budgeter,
		augmenter,
		promptBuilder,
		chatBroker,
		pubSub,
		cfg.Ai.BackfillTopic,
		cfg.Ai.RecencyLimit,
		cfg.Ai.TranslateFirst,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		OAuthController: controller.NewOAuthController(oauthService),
		ChatController:  controller.NewChatController(chatService),
		PlanController:  controller.NewPlanController(subscriptionService),

		ConsumerService: consumerService,
	}
}
