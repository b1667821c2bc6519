package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/common"
	"github.com/dmitrijs2005/yamdb/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const actorKey ctxKey = "actor"

const healthPrefix = "/grpc.health.v1.Health/"

// ActorFromContext returns the user resolved by the interceptor, nil for
// anonymous calls.
func ActorFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(actorKey).(*models.User)
	return u
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}

// accessTokenInterceptor resolves the authorization metadata into the call
// actor. Calls without it continue anonymously; health probes skip it.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if strings.HasPrefix(info.FullMethod, healthPrefix) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}
	if header == "" {
		return handler(ctx, req)
	}

	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return nil, status.Error(codes.Unauthenticated, "malformed authorization metadata")
	}

	user, err := s.identity.Authenticate(ctx, strings.TrimSpace(token))
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return nil, status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken):
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	case err != nil:
		return nil, status.Error(codes.Internal, "authentication failed")
	}

	return handler(context.WithValue(ctx, actorKey, user), req)
}
