package reports

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"max.ks1230/spendings/internal/entity/summary"
	"max.ks1230/spendings/internal/logger"
)

const (
	serviceName      = "spendings.SummaryAcceptor"
	acceptMethod     = "AcceptSummary"
	acceptFullMethod = "/" + serviceName + "/" + acceptMethod
)

// Ack is the reply to a pushed summary.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type summaryAcceptorServer interface {
	AcceptSummary(ctx context.Context, in *summary.Update) (*Ack, error)
}

var acceptorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*summaryAcceptorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: acceptMethod, Handler: acceptSummaryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spendings/summary_acceptor",
}

func acceptSummaryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(summary.Update)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(summaryAcceptorServer).AcceptSummary(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: acceptFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(summaryAcceptorServer).AcceptSummary(ctx, req.(*summary.Update))
	}
	return interceptor(ctx, in, info, handler)
}

type summaryAcceptor interface {
	AcceptSummary(ctx context.Context, update *summary.Update) error
}

type AcceptorServer struct {
	acceptor summaryAcceptor
	server   *grpc.Server
	lis      net.Listener
}

func NewServer(addr string, acceptor summaryAcceptor) (*AcceptorServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create server")
	}
	return newServer(lis, acceptor), nil
}

func newServer(lis net.Listener, acceptor summaryAcceptor) *AcceptorServer {
	rpcServer := grpc.NewServer()
	service := &AcceptorServer{
		acceptor: acceptor,
		server:   rpcServer,
		lis:      lis,
	}
	rpcServer.RegisterService(&acceptorServiceDesc, service)
	return service
}

func (s *AcceptorServer) Serve() error {
	logger.Info("gRPC server listening", zap.Any("addr", s.lis.Addr()))
	err := s.server.Serve(s.lis)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return errors.Wrap(err, "serve gRPC")
	}
	return nil
}

func (s *AcceptorServer) Shutdown() {
	s.server.GracefulStop()
	logger.Info("grpc server stopped")
}

func (s *AcceptorServer) AcceptSummary(ctx context.Context, in *summary.Update) (*Ack, error) {
	err := s.acceptor.AcceptSummary(ctx, in)
	if err != nil {
		return &Ack{Success: false, Error: err.Error()}, err
	}
	return &Ack{Success: true}, nil
}
