package reports

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/logger"
)

type Sender struct {
	conn *grpc.ClientConn
}

func NewSender(addr string, opts ...grpc.DialOption) (*Sender, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.Dial(addr, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot initiate new connection")
	}
	return &Sender{conn}, nil
}

func (s *Sender) Close() {
	err := s.conn.Close()
	if err != nil {
		logger.Error("failed to close grpc connection", zap.Error(err))
	}
}

func (s *Sender) SendSummary(ctx context.Context, update *summary.Update) error {
	logger.Info("SendSummary - start", zap.Int64("userID", update.UserID))
	defer logger.Info("SendSummary - end")

	var ack Ack
	err := s.conn.Invoke(ctx, acceptFullMethod, update, &ack)
	if err != nil {
		return errors.Wrap(err, "send summary")
	}
	if !ack.Success {
		return errors.Errorf("summary rejected: %s", ack.Error)
	}
	return nil
}
