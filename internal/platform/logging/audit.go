package logging

import (
	"context"

	"github.com/provenance-io/warehouse-facility/internal/core"
)

// AuditRecorder writes audit entries as structured log lines.
type AuditRecorder struct {
	logger *Logger
}

var _ core.AuditRecorder = (*AuditRecorder)(nil)

// NewAuditRecorder returns an AuditRecorder writing to logger under the "audit" name.
func NewAuditRecorder(logger *Logger) *AuditRecorder {
	return &AuditRecorder{logger: logger.Named("audit")}
}

// Record implements core.AuditRecorder. Rejected mutations are logged at warn.
func (a *AuditRecorder) Record(ctx context.Context, entry core.AuditEntry) {
	args := []any{
		"operation", entry.Operation,
		"entity", string(entry.Entity),
		"entity_id", entry.EntityID,
		"sender", entry.Sender,
		"status", string(entry.Status),
		"effects", entry.Effects,
		"duration", entry.Duration,
		"timestamp", entry.Timestamp,
	}
	logger := a.logger.WithContext(ctx)
	if entry.Status == core.AuditStatusError {
		logger.Warn("audit", append(args, "code", entry.Code, "error", entry.Error)...)
		return
	}
	logger.Info("audit", args...)
}
