package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/signupd/internal/logging"
	pb "github.com/dmitrijs2005/signupd/internal/proto"
	"github.com/dmitrijs2005/signupd/internal/server/models"
	"github.com/dmitrijs2005/signupd/internal/server/services"
)

// Signup is the part of services.SignupService the transport calls.
type Signup interface {
	Begin(ctx context.Context, req services.Request) (*services.Attempt, error)
	Confirm(ctx context.Context, attemptID, code string) (string, error)
	Resend(ctx context.Context, attemptID string) (time.Time, error)
	Cancel(ctx context.Context, attemptID string) error
	Accounts(ctx context.Context) ([]models.Account, error)
}

type GRPCServer struct {
	pb.UnimplementedSignupServiceServer
	address   string
	signup    Signup
	logger    logging.Logger
	jwtSecret []byte

	// adminToken gates ListAccounts; empty refuses every caller.
	adminToken []byte
}

func NewGRPCServer(a string, l logging.Logger, s Signup, secretKey, adminToken string) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		signup:     s,
		jwtSecret:  []byte(secretKey),
		adminToken: []byte(adminToken),
	}
}

// Register attaches the service to srv. Run does this itself; tests use it
// with their own listener.
func (s *GRPCServer) Register(srv *grpc.Server) {
	pb.RegisterSignupServiceServer(srv, s)
}

func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.adminInterceptor, s.ticketInterceptor))
	s.Register(srv)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
