package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fixly-app/fixly-backend/internal/config"
	"github.com/fixly-app/fixly-backend/internal/db"
	"github.com/fixly-app/fixly-backend/internal/goroutine"
	httpHandlers "github.com/fixly-app/fixly-backend/internal/http/handlers"
	httpRouter "github.com/fixly-app/fixly-backend/internal/http/router"
	"github.com/fixly-app/fixly-backend/internal/logger"
	"github.com/fixly-app/fixly-backend/internal/payments"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/service"
	"github.com/fixly-app/fixly-backend/internal/storage"
	"github.com/fixly-app/fixly-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	gateway := payments.NewGateway(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentCurrency)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	quoteRepo := repository.NewQuoteRepository(dbConn)
	gigRepo := repository.NewGigRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	agentRepo := repository.NewAgentRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	requestService := service.NewRequestService(requestRepo)
	quoteService := service.NewQuoteService(quoteRepo, requestRepo, orderRepo, cfg.PlatformFeePercent)
	gigService := service.NewGigService(gigRepo, orderRepo, cfg.PlatformFeePercent)
	orderService := service.NewOrderService(orderRepo, disputeRepo, paymentRepo, gateway, reviewRepo, agentRepo)
	paymentService := service.NewPaymentService(paymentRepo, gateway, orderRepo, orderService)
	disputeService := service.NewDisputeService(disputeRepo, orderRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo)
	agentService := service.NewAgentService(agentRepo, userRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Вебсокеты: hub рассылает события и сохраняет их в ленту уведомлений.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	goroutine.SafeGo(hub.Run)

	orderService.SetHub(hub)
	disputeService.SetHub(hub)

	// HTTP хэндлеры.
	h := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Request:      httpHandlers.NewRequestHandler(requestService),
		Quote:        httpHandlers.NewQuoteHandler(quoteService),
		Gig:          httpHandlers.NewGigHandler(gigService),
		Order:        httpHandlers.NewOrderHandler(orderService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Review:       httpHandlers.NewReviewHandler(reviewService),
		Agent:        httpHandlers.NewAgentHandler(agentService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Media:        httpHandlers.NewMediaHandler(mediaStorage, mediaRepo),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
		Health:       httpHandlers.NewHealthHandler(dbConn),
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
