package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/logging"
	"github.com/dmitrijs2005/gophdirectory/internal/rpc"
	"github.com/dmitrijs2005/gophdirectory/internal/server/models"
	"github.com/dmitrijs2005/gophdirectory/internal/server/services"
	"google.golang.org/grpc"
)

// directorySvc is the part of services.DirectoryService the handlers use.
type directorySvc interface {
	GetUser(ctx context.Context, idOrUsername string) (*services.Profile, error)
	SearchByUsername(ctx context.Context, query string) ([]*services.Profile, error)
	SearchByPaymentAddress(ctx context.Context, address string) ([]*services.Profile, error)
	PutUser(ctx context.Context, u *models.User) (*services.Profile, error)
	IssueTimestamp(ctx context.Context) (time.Time, string, error)
	SubmitReport(ctx context.Context, r *models.Report, token string) (*models.Report, error)
	AvatarUploadURL(ctx context.Context, userID string) (string, string, error)
}

type GRPCServer struct {
	rpc.UnimplementedDirectoryServer
	address   string
	directory directorySvc
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, ds directorySvc) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		directory: ds,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	rpc.RegisterDirectoryServer(srv, s)
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

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
