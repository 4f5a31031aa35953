package main

import (
	"os"
	"time"

	"go.uber.org/zap"

	"mailpilot/internal/config"
	"mailpilot/internal/db"
	"mailpilot/internal/handler"
	"mailpilot/internal/httpserver"
	"mailpilot/internal/mq"
	redisclient "mailpilot/internal/redis"
	"mailpilot/internal/repository"
	"mailpilot/internal/service"
	"mailpilot/internal/util"
	"mailpilot/pkg/logger"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, log)
	summaryCache := repository.NewSummaryCache(rdb, time.Hour, log)

	// Init RabbitMQ publisher. Event fan-out is best effort; the API
	// still serves without a broker.
	var publisher service.EventPublisher
	mqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Warn("RabbitMQ unavailable, operation events will not be published", zap.Error(err))
	} else {
		defer mqPublisher.Close()
		publisher = mqPublisher
	}

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	mailboxRepo := repository.NewMailboxRepository(dbConn)
	eventRepo := repository.NewEventRepository(dbConn)

	// Init Services
	recorder := service.NewEventRecorder(log, publisher, eventRepo)
	oracle := service.NewOracleClient(cfg.Oracle, log)
	intentService := service.NewIntentService(oracle, log)
	aiService := service.NewAIService(oracle, summaryCache, log)
	classifyService := service.NewClassifyService()
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	commandService := service.NewCommandService(
		mailboxRepo,
		intentService,
		aiService,
		classifyService,
		recorder,
		deduper,
		cfg.Retry,
		log,
	)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService)
	commandHandler := handler.NewCommandHandler(commandService)
	emailHandler := handler.NewEmailHandler(commandService)

	// Router
	router := httpserver.NewRouter(authHandler, commandHandler, emailHandler, cfg.JWT.Secret)

	log.Info("Starting mailpilot API", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
