// Package audit carries the correlation identifiers linking every log, audit,
// and security event produced by one logical operation.
package audit

import (
	"context"

	"github.com/google/uuid"
)

// CorrelationHeader is the inbound header callers use to supply their own
// correlation ID.
const CorrelationHeader = "X-Correlation-Id"

// Audit sources identifying the origin of an operation.
const (
	SourceWeb    = "web"
	SourceAPI    = "api"
	SourceAdmin  = "admin"
	SourceSystem = "system"
)

// NewCorrelationID generates a fresh correlation ID. UUIDv7 keeps the IDs
// time-sortable in log storage.
func NewCorrelationID() string {
	return uuid.Must(uuid.NewV7()).String()
}

type contextKey string

const correlationKey contextKey = "correlation_id"

// WithCorrelationID stores the correlation ID on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the correlation ID from the context, or "" if none
// was attached.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}
