package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/database"
	"github.com/iliyamo/store-rating-api/internal/router"
	"github.com/iliyamo/store-rating-api/internal/service"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Usage:

	store-rating-api serve [--migrate]

The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, migrateFirst bool) error {
	cfg, log, err := setup("app.log")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if migrateFirst {
		if err := database.MigrateUp(dbOptions(cfg)); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	db, err := database.Open(dbOptions(cfg))
	if err != nil {
		log.Error("database connection failed", zap.Error(err))
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable: token revocation, rate limiting and caching are disabled")
	} else {
		defer rdb.Close()
	}
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set: auth events are not published")
	}

	e := router.New(router.Deps{
		Log:       log,
		DB:        db,
		Redis:     rdb,
		Issuer:    utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Hasher:    utils.NewHasher(cfg.BcryptCost),
		Events:    service.NewPublisher(cfg.RabbitMQURL),
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
	})
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
