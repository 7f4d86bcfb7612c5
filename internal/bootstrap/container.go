package bootstrap

import (
	"context"
	"log"

	"ai-chat-be/internal/config"
	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/controller"
	"ai-chat-be/internal/handler"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/mailer"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/service"
	"ai-chat-be/internal/websocket"
	"ai-chat-be/pkg/llm/registry"

	pktNats "ai-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	OAuthController  controller.IOAuthController
	ChatController   controller.IChatController
	ShareController  controller.IShareController
	StreamController controller.IStreamController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

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

	// Model Registry
	modelRegistry := registry.New(registry.Config{
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		GroqAPIKey:    cfg.Keys.Groq,
		GroqBaseURL:   cfg.Ai.GroqBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
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

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(pubSub, constant.ChatActivityTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.ChatActivityTopic,
		uowFactory,
		wsHub,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory, sysLogger)

	chatService := service.NewChatService(uowFactory, publisherService, natsPub)
	shareService := service.NewShareService(uowFactory, publisherService, natsPub)
	streamService := service.NewStreamService(uowFactory, modelRegistry, publisherService, sysLogger)

	// Handler
	eventsHandler := handler.NewEventsHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		EventsHandler: eventsHandler,
		WebSocketHub:  wsHub,

		AuthController:   controller.NewAuthController(authService),
		OAuthController:  controller.NewOAuthController(oauthService, cfg),
		ChatController:   controller.NewChatController(chatService),
		ShareController:  controller.NewShareController(shareService),
		StreamController: controller.NewStreamController(streamService),

		ConsumerService: consumerService,
	}
}
