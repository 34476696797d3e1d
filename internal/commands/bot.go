package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"max.ks1230/spendings/internal/clients/kafka"
	"max.ks1230/spendings/internal/clients/tg"
	"max.ks1230/spendings/internal/config"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/expenses"
	"max.ks1230/spendings/internal/model/messages"
	"max.ks1230/spendings/internal/model/reports"
	"max.ks1230/spendings/internal/tracing"
)

func newBotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runBot(ctx)
		},
	}
}

func runBot(ctx context.Context) error {
	logger.Info("Bot init - start")
	defer logger.Sync()

	conf, err := config.New()
	if err != nil {
		return errors.Wrap(err, "init config")
	}
	if conf.Telegram().Token() == "" {
		return errors.New("telegram.token (or TELEGRAM_TOKEN) is required to run the bot")
	}

	closer, err := tracing.Init(conf.Jaeger(), "bot")
	if err != nil {
		return err
	}
	defer closer.Close()

	var publisher expenses.EventPublisher
	if conf.Kafka().Enabled() {
		producer, err := kafka.NewProducer(conf.Kafka())
		if err != nil {
			return errors.Wrap(err, "init kafka producer")
		}
		defer producer.Close()
		publisher = producer
	}

	ledger, closeLedger, err := newLedger(conf, publisher)
	if err != nil {
		return err
	}
	defer closeLedger()

	client, err := tg.New(conf.Telegram())
	if err != nil {
		return errors.Wrap(err, "init telegram client")
	}
	msgService := messages.NewService(client, ledger, reports.NewAggregator(ledger), conf.App())

	logger.Info("Bot init - end")

	client.ListenUpdates(ctx, msgService)
	return nil
}
