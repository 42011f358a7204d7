package adapter

import (
	"context"

	"noor-community/internal/domain/model"
)

// AuditSink receives decision events from the core. Implementations are
// fire-and-forget: Record must never block the caller on sink failures,
// and a lost event never fails the operation that produced it.
type AuditSink interface {
	Record(ctx context.Context, e *model.AuditEvent)
}
