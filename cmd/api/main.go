package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fix-it/marketplace/internal/api/http"
	"github.com/fix-it/marketplace/internal/api/http/handlers"
	"github.com/fix-it/marketplace/internal/auth"
	"github.com/fix-it/marketplace/internal/config"
	"github.com/fix-it/marketplace/internal/events"
	"github.com/fix-it/marketplace/internal/observability"
	"github.com/fix-it/marketplace/internal/persistence"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/service"
	"github.com/fix-it/marketplace/internal/verification"
	"github.com/fix-it/marketplace/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	handymanRepo := repository.NewHandymanRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	sessions := auth.NewRedisSessionVersions(redis.Client)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	flow := verification.NewFlow(cfg.Verification, cfg.Auth.BcryptCost, verification.FlowDependencies{
		Store:      verification.NewRedisStore(redis.Client),
		Identities: service.NewIdentityStore(userRepo),
		Notifier:   notificationService,
		Sessions:   sessions,
	}, logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		HandymanRepo: handymanRepo,
		Flow:         flow,
		Sessions:     sessions,
		Dispatcher:   dispatcher,
	}, logger)

	catalogService := service.NewCatalogService(service.CatalogDependencies{
		CategoryRepo: categoryRepo,
		ServiceRepo:  serviceRepo,
		HandymanRepo: handymanRepo,
		UserRepo:     userRepo,
		RatingRepo:   ratingRepo,
	})

	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:    orderRepo,
		HandymanRepo: handymanRepo,
		ServiceRepo:  serviceRepo,
		RatingRepo:   ratingRepo,
		Dispatcher:   dispatcher,
	}, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, sessions)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Handymen:       handlers.NewHandymenHandler(catalogService),
		Orders:         handlers.NewOrdersHandler(orderService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
