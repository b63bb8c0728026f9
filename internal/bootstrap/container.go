package bootstrap

import (
	"context"
	"log"

	"docchat-be/internal/config"
	"docchat-be/internal/constant"
	"docchat-be/internal/controller"
	"docchat-be/internal/handler"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/internal/service"
	"docchat-be/internal/websocket"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/llm/factory"
	"docchat-be/pkg/rag/engine"
	"docchat-be/pkg/rag/sources"
	"docchat-be/pkg/rag/vision"

	pktNats "docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := log.Default()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.App.SupportEmail,
	)

	// In-process queue between the ingest endpoint and the embedding worker
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}

	providerCfg := factory.ProviderConfig{
		Provider:    cfg.Ai.LLMProvider,
		BaseURL:     cfg.Ai.OllamaBaseURL,
		APIKey:      cfg.Ai.OpenAIAPIKey,
		ModelName:   cfg.Ai.LLMModel,
		VisionModel: cfg.Ai.VisionModel,
	}
	llmProvider, err := factory.NewLLMProvider(providerCfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	visionProvider, err := factory.NewVisionProvider(providerCfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Vision Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Turn engine
	preprocessor := vision.NewPreprocessor(visionProvider)
	sourceResolver := sources.NewResolver(cfg.App.DocumentsDir)
	turnEngine := engine.NewEngine(preprocessor, sourceResolver, ragLogger)

	// In-memory session storage
	sessionRepo := memory.NewSessionRepository()

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
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

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Services
	publisherService := service.NewPublisherService(pubSub, constant.EmbedDocumentTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.EmbedDocumentTopic,
		uowFactory,
		embeddingProvider,
	)

	authService := service.NewAuthService(uowFactory)
	oauthService := service.NewOAuthService(uowFactory, cfg.OAuth, sysLogger)

	chatService := service.NewChatService(
		uowFactory,
		sessionRepo,
		turnEngine,
		embeddingProvider,
		llmProvider,
		emailService,
		wsHub,
		natsPub,
		publisherService,
		ragLogger,
		sysLogger,
	)
	documentService := service.NewDocumentService(uowFactory, publisherService, sysLogger)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	streamHandler := handler.NewStreamHandler(wsHub, wsLogger)

	return &Container{
		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService, cfg.App.ClientURL),
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),

		ConsumerService: consumerService,

		StreamHandler: streamHandler,
		WebSocketHub:  wsHub,
	}
}
