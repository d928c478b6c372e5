package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// isPublic reports whether method may be called without a token.
func isPublic(method string) bool {
	return strings.HasPrefix(method, healthServicePrefix)
}

// authorize verifies the "authorization" metadata and returns a context
// carrying the claims.
func (s *GRPCServer) authorize(ctx context.Context) (context.Context, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(strings.ToLower(common.AuthorizationHeaderName))
		if len(values) > 0 {
			header = values[0]
		}
	}

	claims, err := auth.ClaimsFromHeader(header, s.tokens)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, auth.ErrInvalidToken.Error())
	}

	return auth.WithClaims(ctx, claims), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	ctx, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	return handler(ctx, req)
}

// authorizedStream substitutes the context of a guarded stream.
type authorizedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authorizedStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if isPublic(info.FullMethod) {
		return handler(srv, ss)
	}

	ctx, err := s.authorize(ss.Context())
	if err != nil {
		return err
	}

	return handler(srv, &authorizedStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "latency", time.Since(start))
	return resp, err
}
