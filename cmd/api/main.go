// @title Event Lottery API
// @version 1.0
// @description Waitlist, lottery and registration core for capacity-limited events.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventlottery/config"
	_ "eventlottery/docs"
	"eventlottery/internal/adapters/auth"
	"eventlottery/internal/adapters/email"
	"eventlottery/internal/adapters/feed"
	"eventlottery/internal/adapters/queue"
	"eventlottery/internal/app"
	"eventlottery/internal/domain"
	"eventlottery/internal/metrics"
	"eventlottery/internal/repository/memory"
	"eventlottery/internal/repository/postgres"
	"eventlottery/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	changeFeed := domain.ChangeFeed(feed.NewLocal())
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		client, err := feed.NewRedisClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, using in-process change feed", "err", err)
		} else {
			defer client.Close()
			changeFeed = feed.NewRedis(client, logger)
			logger.Info("redis change feed enabled", "addr", cfg.RedisAddr)
		}
	}

	var publisher domain.NotificationPublisher
	if cfg.RabbitMQURL != "" {
		pub := queue.NewPublisher(cfg.RabbitMQURL, logger)
		defer pub.Close()
		publisher = pub

		mailer, err := email.NewMailer(email.MailerConfig{
			Provider:    cfg.Email.Provider,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			SES: email.SESConfig{
				Region:             cfg.Email.SESRegion,
				AccessKeyID:        cfg.Email.SESAccessKeyID,
				SecretAccessKey:    cfg.Email.SESSecretAccessKey,
				InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
			},
		}, logger)
		if err != nil {
			logger.Error("create mailer", "err", err)
			os.Exit(1)
		}
		handler := services.NewNotificationMailer(stores.Users, services.NewEmailService(mailer, email.NewTemplateRenderer(), logger), logger)
		consumer := queue.NewConsumer(cfg.RabbitMQURL, handler.Handle, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("notification consumer stopped", "err", err)
			}
		}()
	}

	a := app.New(app.Deps{
		Stores:         stores,
		Feed:           changeFeed,
		Publisher:      publisher,
		Locator:        services.NewLastKnownLocator(stores.Waitlist),
		Verifier:       auth.NewJWTVerifier(cfg.JWTSecret),
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		LotteryLockTTL: cfg.LotteryLockTTL,
		AutoReplace:    cfg.LotteryAutoReplace,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", "err", err)
	}
	logger.Info("server stopped")
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.Stores, func(), error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return app.MemoryStores(memory.NewStore()), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return services.Stores{}, nil, err
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(startupCtx); err != nil {
		_ = db.Close()
		return services.Stores{}, nil, err
	}
	if err := postgres.Migrate(startupCtx, db); err != nil {
		_ = db.Close()
		return services.Stores{}, nil, err
	}
	return app.PostgresStores(db), func() { _ = db.Close() }, nil
}
