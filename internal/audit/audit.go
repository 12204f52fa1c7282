// Package audit records administrative actions as structured log events.
// Entries go through the service logger, so they land in the same sink as
// the rest of the logs and can be filtered on the "audit" marker.
package audit

import (
	"context"

	"go.uber.org/zap"

	"campusboard.org/internal/auth"
)

type requestIDKey struct{}

// WithRequestID stashes the request id for later audit entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Log writes audit events.
type Log struct {
	logger *zap.Logger
}

// New constructs an audit log on top of the given logger.
func New(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("audit")}
}

// Event records one administrative action. Actor and request id are pulled
// from the context when present.
func (l *Log) Event(ctx context.Context, action string, fields ...zap.Field) {
	if l == nil {
		return
	}
	out := make([]zap.Field, 0, len(fields)+4)
	out = append(out, zap.Bool("audit", true), zap.String("action", action))
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		out = append(out, zap.String("actor_id", p.ID), zap.String("actor_role", p.Role))
	}
	if id := RequestIDFromContext(ctx); id != "" {
		out = append(out, zap.String("request_id", id))
	}
	out = append(out, fields...)
	l.logger.Info("audit event", out...)
}
