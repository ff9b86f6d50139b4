package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tiendafacil/api/internal/handlers"
	"github.com/tiendafacil/api/internal/platform/auth"
	"github.com/tiendafacil/api/internal/platform/config"
	pfirestore "github.com/tiendafacil/api/internal/platform/firestore"
	"github.com/tiendafacil/api/internal/platform/jobs"
	"github.com/tiendafacil/api/internal/platform/observability"
	"github.com/tiendafacil/api/internal/repositories"
	firestoreRepo "github.com/tiendafacil/api/internal/repositories/firestore"
	"github.com/tiendafacil/api/internal/services"
)

const bootstrapTimeout = 30 * time.Second

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	userRepo, err := firestoreRepo.NewUserRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise user repository", zap.Error(err))
	}
	customerRepo, err := firestoreRepo.NewCustomerRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise customer repository", zap.Error(err))
	}
	saleRepo, err := firestoreRepo.NewSaleRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise sale repository", zap.Error(err))
	}
	catalogRepo, err := firestoreRepo.NewCatalogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}

	tokenManager, err := auth.NewTokenManager(cfg.Auth.SigningSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("failed to initialise token manager", zap.Error(err))
	}

	dependencyChecks := []repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(probeCtx context.Context) error {
				_, err := firestoreClient.Collection("products").Limit(1).Documents(probeCtx).GetAll()
				return err
			},
		},
	}

	var eventPublisher services.OrderEventPublisher
	if cfg.Events.Topic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		topic := pubsubClient.Topic(cfg.Events.Topic)
		defer topic.Stop()

		publisher, err := jobs.NewPubSubOrderEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		eventPublisher = publisher

		dependencyChecks = append(dependencyChecks, repositories.DependencyCheck{
			Name: "pubsub",
			Check: func(probeCtx context.Context) error {
				exists, err := topic.Exists(probeCtx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("topic %s does not exist", cfg.Events.Topic)
				}
				return nil
			},
		})
	}

	healthRepo, err := repositories.NewDependencyHealthRepository(dependencyChecks)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Sales:           saleRepo,
		Customers:       customerRepo,
		RestockOnCancel: cfg.Orders.RestockOnCancel,
		Events:          eventPublisher,
		Logger:          observability.FieldLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: catalogRepo,
		Logger:  observability.FieldLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	sessionService, err := services.NewSessionService(services.SessionServiceDeps{
		Users:  userRepo,
		Tokens: tokenManager,
		Logger: observability.FieldLogger(logger.Named("sessions")),
	})
	if err != nil {
		logger.Fatal("failed to initialise session service", zap.Error(err))
	}

	systemService, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: healthRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise system service", zap.Error(err))
	}

	bootstrapService, err := services.NewBootstrapService(services.BootstrapServiceDeps{
		Users:          userRepo,
		Catalog:        catalogRepo,
		AdminUsername:  cfg.Bootstrap.AdminUsername,
		AdminPassword:  cfg.Bootstrap.AdminPassword,
		SeedSampleData: cfg.Bootstrap.SeedSampleData,
		Logger:         observability.FieldLogger(logger.Named("bootstrap")),
	})
	if err != nil {
		logger.Fatal("failed to initialise bootstrap service", zap.Error(err))
	}

	bootstrapCtx, cancelBootstrap := context.WithTimeout(ctx, bootstrapTimeout)
	if err := bootstrapService.Run(bootstrapCtx); err != nil {
		cancelBootstrap()
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	cancelBootstrap()

	sessionHandlers := handlers.NewSessionHandlers(sessionService)
	publicHandlers := handlers.NewPublicHandlers(orderService, catalogService)
	saleHandlers := handlers.NewSaleHandlers(tokenManager, orderService)
	customerHandlers := handlers.NewCustomerHandlers(tokenManager, orderService)
	catalogHandlers := handlers.NewCatalogHandlers(tokenManager, catalogService)
	healthHandlers := handlers.NewHealthHandlers(handlers.WithHealthSystemService(systemService))

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceContextMiddleware(),
			middleware.Recoverer,
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithSessionRoutes(sessionHandlers.Routes),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithSalesRoutes(saleHandlers.Routes),
		handlers.WithCustomerRoutes(customerHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("tiendafacil api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
