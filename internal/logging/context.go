package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// FromContext extracts the logger from ctx.
// If no logger is attached, returns a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// WithComponent creates a child logger with a component field.
func WithComponent(ctx context.Context, component string) context.Context {
	logger := FromContext(ctx)
	child := logger.With().Str("component", component).Logger()
	return WithContext(ctx, child)
}

// WithRequestID creates a child logger with a request_id field.
func WithRequestID(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx)
	child := logger.With().Str("request_id", id).Logger()
	return WithContext(ctx, child)
}

// WithInvoice creates a child logger with an invoice field.
func WithInvoice(ctx context.Context, number string) context.Context {
	logger := FromContext(ctx)
	child := logger.With().Str("invoice", number).Logger()
	return WithContext(ctx, child)
}
