package http

import (
	"context"
	"log/slog"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/logging"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity returns a derived context carrying the signed-in caller.
func ContextWithIdentity(ctx context.Context, identity *application.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the signed-in caller, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *application.Identity {
	identity, _ := ctx.Value(identityContextKey).(*application.Identity)
	return identity
}

// ContextWithLogger attaches the request logger so services log with request attributes.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
