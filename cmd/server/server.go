package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/config"
	"github.com/aquagas/utility-readings-service/internal/db"
	"github.com/aquagas/utility-readings-service/internal/httpapi"
	"github.com/aquagas/utility-readings-service/internal/mq"
	"github.com/aquagas/utility-readings-service/internal/repository"
	"github.com/aquagas/utility-readings-service/internal/service"
	"github.com/aquagas/utility-readings-service/internal/validator"
)

// startServer wires the gin engine into an http.Server managed by the fx
// lifecycle. Listening happens synchronously in OnStart so a bad port fails
// startup instead of surfacing later.
func startServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	handler *httpapi.Handler,
) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(httpapi.RequestLogger(logger), httpapi.Recovery(logger))
	handler.Register(router)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServicePort),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			logger.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("http server terminated unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}

// registerMigrations runs the idempotent schema migration before the server
// hook starts accepting traffic.
func registerMigrations(lc fx.Lifecycle, pool *db.Pool, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.Migrate(ctx, pool, logger)
		},
	})
}

// ProvideDBPool creates the database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepository creates the repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvideValidator creates the request validator instance
func ProvideValidator() *validator.Validator {
	return validator.NewValidator()
}

// ProvideEventPublisher creates the confirmation-event publisher. Without a
// configured broker the service gets a no-op publisher and handles requests
// exactly the same.
func ProvideEventPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (service.EventPublisher, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, confirmation events disabled")
		return mq.NopPublisher{}, nil
	}

	conn, err := mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.EventsExchange, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

// ProvideReadingsService creates the readings service instance
func ProvideReadingsService(
	repo *repository.Repository,
	publisher service.EventPublisher,
	validator *validator.Validator,
	cfg *config.Config,
	logger *zap.Logger,
) *service.ReadingsService {
	return service.NewReadingsService(repo, publisher, validator, cfg, logger)
}

// ProvideHandler creates the HTTP handler instance
func ProvideHandler(
	readings *service.ReadingsService,
	validator *validator.Validator,
	logger *zap.Logger,
) *httpapi.Handler {
	return httpapi.NewHandler(readings, validator, logger)
}
