package billing

import (
	"go.uber.org/zap"

	"rental-service/pkg/logger"
)

// AuditEvent describes a committed mutation. Events are handed to the
// audit collaborator only after the underlying transaction has
// committed, never speculatively.
type AuditEvent struct {
	Entity    string      `json:"entity"`
	EntityID  uint        `json:"entity_id"`
	Action    string      `json:"action"`
	CompanyID uint        `json:"company_id"`
	ActorID   uint        `json:"actor_id"`
	Before    interface{} `json:"before,omitempty"`
	After     interface{} `json:"after,omitempty"`
}

// AuditRecorder receives post-commit audit events
type AuditRecorder interface {
	Record(event AuditEvent)
}

// ZapAuditRecorder writes audit events to the structured log
type ZapAuditRecorder struct{}

// NewZapAuditRecorder returns the default log-backed recorder
func NewZapAuditRecorder() *ZapAuditRecorder {
	return &ZapAuditRecorder{}
}

func (r *ZapAuditRecorder) Record(event AuditEvent) {
	logger.GetLogger().Info("audit",
		zap.String("entity", event.Entity),
		zap.Uint("entity_id", event.EntityID),
		zap.String("action", event.Action),
		zap.Uint("company_id", event.CompanyID),
		zap.Uint("actor_id", event.ActorID),
		zap.Any("before", event.Before),
		zap.Any("after", event.After),
	)
}
