package logger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type relayIDKey struct{}

// NewRelayID returns a fresh id correlating the log lines of one webhook
// delivery.
func NewRelayID() string {
	return uuid.NewString()
}

// WithRelayID stores id in ctx.
func WithRelayID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, relayIDKey{}, id)
}

// RelayID returns the id stored by WithRelayID, or "".
func RelayID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(relayIDKey{}).(string)
	return id
}

// FromContext scopes log with the relay id carried by ctx, if any.
func FromContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	if id := RelayID(ctx); id != "" {
		return log.With(slog.String("relay_id", id))
	}
	return log
}
