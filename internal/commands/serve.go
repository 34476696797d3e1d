package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"max.ks1230/spendings/internal/api"
	"max.ks1230/spendings/internal/clients/kafka"
	"max.ks1230/spendings/internal/config"
	"max.ks1230/spendings/internal/logger"
	"max.ks1230/spendings/internal/model/expenses"
	"max.ks1230/spendings/internal/model/reports"
	"max.ks1230/spendings/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the summary acceptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	logger.Info("Server init - start")
	defer logger.Sync()

	conf, err := config.New()
	if err != nil {
		return errors.Wrap(err, "init config")
	}
	if len(conf.App().JWTSecret()) == 0 {
		return errors.New("app.jwt-secret (or JWT_SECRET) is required to serve")
	}

	closer, err := tracing.Init(conf.Jaeger(), "server")
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
	} else {
		logger.Warn("kafka not configured, live summaries disabled")
	}

	ledger, closeLedger, err := newLedger(conf, publisher)
	if err != nil {
		return err
	}
	defer closeLedger()

	hub := api.NewHub()
	server := api.NewServer(conf.HTTP(), conf.App(), reports.NewAggregator(ledger), ledger, hub)

	acceptor, err := reports.NewServer(conf.Acceptor().ListenAddr(), hub)
	if err != nil {
		return errors.Wrap(err, "init summary acceptor")
	}

	logger.Info("Server init - end")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Serve)
	g.Go(acceptor.Serve)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		acceptor.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
