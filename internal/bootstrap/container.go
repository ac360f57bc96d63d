package bootstrap

import (
	"context"
	"log"

	"notesnap-gateway/internal/appstate"
	"notesnap-gateway/internal/config"
	"notesnap-gateway/internal/controller"
	"notesnap-gateway/internal/handler"
	"notesnap-gateway/internal/pkg/logger"
	"notesnap-gateway/internal/pkg/mailer"
	"notesnap-gateway/internal/repository/memory"
	"notesnap-gateway/internal/service"
	"notesnap-gateway/internal/websocket"
	"notesnap-gateway/pkg/authapi"
	"notesnap-gateway/pkg/chat"
	"notesnap-gateway/pkg/extraction"
	"notesnap-gateway/pkg/storage/appwrite"

	pktNats "notesnap-gateway/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	AuthController       controller.IAuthController
	SessionController    controller.ISessionController
	PreferenceController controller.IPreferenceController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	SessionEventHandler *handler.SessionEventHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
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
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/session_events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Collaborator Clients
	storageClient := appwrite.NewClient(
		cfg.Storage.Endpoint,
		cfg.Storage.ProjectId,
		cfg.Storage.BucketId,
		cfg.Storage.APIKey,
	)
	extractionClient := extraction.NewClient(cfg.Extraction.BaseURL)
	chatClient := chat.NewClient(cfg.Chat.BaseURL)
	authClient := authapi.NewClient(cfg.Auth.BaseURL)

	// 4. State
	workspaceRepo := memory.NewWorkspaceRepository()
	stateStore := appstate.NewStore(rdb)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.EventTopic, wsHub)

	sessionService := service.NewSessionService(
		workspaceRepo,
		storageClient,
		extractionClient,
		chatClient,
		publisherService,
		natsPub,
		sysLogger,
	)
	authService := service.NewAuthService(authClient, stateStore, emailService, natsPub, sysLogger)
	preferenceService := service.NewPreferenceService(stateStore)

	// 6. Controllers
	return &Container{
		AuthController:       controller.NewAuthController(authService),
		SessionController:    controller.NewSessionController(sessionService),
		PreferenceController: controller.NewPreferenceController(preferenceService),

		ConsumerService:     consumerService,
		SessionEventHandler: handler.NewSessionEventHandler(wsHub, wsLogger),
		WebSocketHub:        wsHub,
	}
}
