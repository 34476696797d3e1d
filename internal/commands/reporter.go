package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"max.ks1230/spendings/internal/clients/kafka"
	"max.ks1230/spendings/internal/config"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/reports"
	"max.ks1230/spendings/internal/tracing"
)

func newReporterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reporter",
		Short: "Recompute summaries on ledger changes and push them to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runReporter(ctx)
		},
	}
}

func runReporter(ctx context.Context) error {
	logger.Info("Reporter init - start")
	defer logger.Sync()

	conf, err := config.New()
	if err != nil {
		return errors.Wrap(err, "init config")
	}
	if conf.App().StorageBackend() == config.BackendMemory {
		return errors.New("reporter needs a shared ledger, app.backend memory is per process")
	}
	if !conf.Kafka().Enabled() {
		return errors.New("kafka.brokers are required to run the reporter")
	}

	closer, err := tracing.Init(conf.Jaeger(), "reporter")
	if err != nil {
		return err
	}
	defer closer.Close()

	ledger, closeLedger, err := newLedger(conf, nil)
	if err != nil {
		return err
	}
	defer closeLedger()

	sender, err := reports.NewSender(conf.Acceptor().TargetAddr())
	if err != nil {
		return errors.Wrap(err, "init summary sender")
	}
	defer sender.Close()

	consumer, err := kafka.NewConsumer(conf.Kafka(), reports.NewAggregator(ledger), sender, conf.App().Location())
	if err != nil {
		return errors.Wrap(err, "init kafka consumer")
	}
	defer consumer.Close()

	logger.Info("Reporter init - end")

	return consumer.StartConsuming(ctx)
}
