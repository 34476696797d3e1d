package messages

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/logger"
)

const somethingWrongMessage = "Sorry, something went wrong. Try later"

type messageSender interface {
	SendMessage(text string, userID int64) error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, text string, telegramID int64) (string, error)
}

// Service answers every incoming Telegram message exactly once.
type Service struct {
	tgClient messageSender
	handler  MessageHandler
}

func NewService(tgClient messageSender, ledger ledger, summaries summarizer, cfg config) *Service {
	return &Service{
		tgClient: tgClient,
		handler:  newHandler(ledger, summaries, cfg),
	}
}

// Message is an incoming text; UserID is the sender's Telegram id.
type Message struct {
	Text   string
	UserID int64
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	command := commandLabel(msg.Text)

	span, ctx := opentracing.StartSpanFromContext(ctx, "bot "+command)
	defer span.Finish()
	span.SetTag("telegramID", msg.UserID)

	start := time.Now()
	err := s.reply(ctx, msg)
	observeResponse(command, time.Since(start), err != nil)

	if err != nil {
		ext.Error.Set(span, true)
		logger.Error("bot command failed",
			zap.String("command", command), zap.Int64("telegramID", msg.UserID), zap.Error(err))
	}
	return err
}

// reply sends the handler's answer. A failed command still gets an answer, so the user is never left waiting.
func (s *Service) reply(ctx context.Context, msg Message) error {
	answer, err := s.handler.HandleMessage(ctx, msg.Text, msg.UserID)
	if answer == "" {
		answer = somethingWrongMessage
	}
	if sendErr := s.tgClient.SendMessage(answer, msg.UserID); sendErr != nil {
		if err != nil {
			return errors.Wrapf(err, "reply not delivered: %v", sendErr)
		}
		return errors.Wrap(sendErr, "send reply")
	}
	return err
}
