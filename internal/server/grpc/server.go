// Package grpc runs the gRPC endpoint. It serves the standard health
// service so orchestrators can probe the API process, and resolves bearer
// tokens for any service registered next to it.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator resolves an access token into an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type GRPCServer struct {
	address  string
	identity Authenticator
	health   *health.Server
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, identity Authenticator) *GRPCServer {
	return &GRPCServer{
		address:  a,
		identity: identity,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	// registers services
	healthpb.RegisterHealthServer(srv, s.health)
	s.setServing(true)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.setServing(false)
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
