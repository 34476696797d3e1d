package kafka

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/logger"
)

const unavailableMessage = "summary unavailable"

type consumerConfig interface {
	producerConfig
	ConsumerGroup() string
}

type summarizer interface {
	Summarize(ctx context.Context, userID int64, today time.Time) (*summary.Report, error)
}

type summarySender interface {
	SendSummary(ctx context.Context, update *summary.Update) error
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	summarizer    summarizer
	sender        summarySender
	location      *time.Location
	now           func() time.Time
}

func NewConsumer(cfg consumerConfig, summarizer summarizer, sender summarySender, location *time.Location) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.ConsumerGroup(), config)
	if err != nil {
		return nil, errors.Wrap(err, "new consumer group")
	}
	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.Topic(),
		summarizer:    summarizer,
		sender:        sender,
		location:      location,
		now:           time.Now,
	}, nil
}

func (c *Consumer) StartConsuming(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
			if err != nil {
				return errors.Wrapf(err, "consume from %s", c.topic)
			}
		}
	}
}

func (c *Consumer) Close() {
	if err := c.consumerGroup.Close(); err != nil {
		logger.Error("failed to close consumer group", zap.Error(err))
	}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - setup")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - cleanup")
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		event, err := decodeEvent(message.Value)
		if err != nil {
			logger.Error("cannot decode kafka message", zap.Error(err))
		} else {
			logger.Info(
				"received ledger change",
				zap.ByteString("key", message.Key),
				zap.Int64("userID", event.UserID),
				zap.String("reason", event.Reason),
			)
			c.processEvent(session.Context(), event)
		}
		session.MarkMessage(message, "")
	}

	return nil
}

// processEvent pushes a fresh summary, or an explicit failure, for the changed ledger.
func (c *Consumer) processEvent(ctx context.Context, event LedgerEvent) {
	update := &summary.Update{UserID: event.UserID, GeneratedAt: c.now()}

	report, err := c.summarizer.Summarize(ctx, event.UserID, c.now().In(c.location))
	if err != nil {
		logger.Error("failed to summarize", zap.Int64("userID", event.UserID), zap.Error(err))
		update.Error = unavailableMessage
	} else {
		update.Report = report
	}

	if err = c.sender.SendSummary(ctx, update); err != nil {
		logger.Error("failed to send summary", zap.Int64("userID", event.UserID), zap.Error(err))
	}
}
