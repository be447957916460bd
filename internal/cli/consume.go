package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/logger"
	"github.com/iliyamo/store-rating-api/internal/queue"
)

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume auth events into the audit log",
		Long: `Consume auth events from RabbitMQ and append them to
LOG_PATH/auth_audit.log. Runs until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsume(cmd.Context())
		},
	}
}

func runConsume(ctx context.Context) error {
	cfg, log, err := setup("consumer.log")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required to consume auth events")
	}

	audit, err := logger.New(cfg.LogPath, "auth_audit.log", false)
	if err != nil {
		return err
	}
	defer func() { _ = audit.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = queue.NewConsumer(cfg.RabbitMQURL, audit, log).Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("consumer stopped")
		return nil
	}
	if err != nil {
		log.Error("consumer failed", zap.Error(err))
	}
	return err
}
