package bootstrap

import (
	"context"
	"log"
	"time"

	"insurance-intake-be/internal/config"
	"insurance-intake-be/internal/controller"
	"insurance-intake-be/internal/pkg/logger"
	"insurance-intake-be/internal/repository/contract"
	"insurance-intake-be/internal/repository/implementation"
	"insurance-intake-be/internal/repository/memory"
	"insurance-intake-be/internal/repository/redisstore"
	"insurance-intake-be/internal/service"
	"insurance-intake-be/internal/websocket"
	"insurance-intake-be/pkg/crm"
	"insurance-intake-be/pkg/escalation"
	"insurance-intake-be/pkg/llm/factory"
	"insurance-intake-be/pkg/policy"

	pktNats "insurance-intake-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. External Clients
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	evaluator := escalation.NewEvaluator(llmProvider, cfg.Ai.EvaluatorModel)

	crmClient := crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIKey)
	policyClient := policy.NewClient(
		cfg.Policy.Endpoint,
		cfg.Policy.AgencyNo,
		cfg.Policy.Username,
		cfg.Policy.Password,
	)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
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

	// Session Registry
	var sessionRegistry contract.SessionRegistry
	if cfg.App.SessionStore == "redis" {
		sessionRegistry = redisstore.NewSessionRegistry(rdb, time.Duration(cfg.Chat.SessionTTLMin)*time.Minute)
		log.Printf("[INFO] Using Redis session store (TTL %dm)", cfg.Chat.SessionTTLMin)
	} else {
		sessionRegistry = memory.NewSessionRegistry()
		log.Printf("[INFO] Using in-memory session store")
	}

	// WebSocket Hub (handover feed)
	wsLogger := logger.NewIsolatedLogger("logs/handover.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Repositories
	transcriptRepo := implementation.NewTranscriptRepository(db)
	quoteRepo := implementation.NewQuoteRequestRepository(db)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Chat.TranscriptTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Chat.TranscriptTopic,
		transcriptRepo,
	)

	toolsService := service.NewIntakeToolsService(crmClient, policyClient, quoteRepo, sysLogger)

	chatService := service.NewChatService(
		sessionRegistry,
		llmProvider,
		toolsService.Registry(),
		evaluator,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Ai.MaxToolTurns,
	)

	// Handover notices: NATS -> hub -> connected operators
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	// 6. Controllers
	return &Container{
		ChatController:  controller.NewChatController(chatService, wsHub),
		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}
