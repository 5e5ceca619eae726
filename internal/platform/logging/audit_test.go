package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

func TestAuditRecorderLevels(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.DebugLevel)
	audit := NewAuditRecorder(logger)

	audit.Record(context.Background(), core.AuditEntry{
		Operation: "propose_pledge",
		Entity:    domain.EntityPledge,
		EntityID:  "p1",
		Sender:    "tp1originator",
		Status:    core.AuditStatusSuccess,
		Effects:   3,
		Duration:  time.Millisecond,
	})
	audit.Record(context.Background(), core.AuditEntry{
		Operation: "accept_pledge",
		Status:    core.AuditStatusError,
		Code:      "UNAUTHORIZED",
		Error:     "unauthorized",
	})

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "audit", entries[0].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "p1", entries[0].ContextMap()["entity_id"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["effects"])
	assert.NotContains(t, entries[0].ContextMap(), "code")
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "UNAUTHORIZED", entries[1].ContextMap()["code"])
}

func TestAuditRecorderWithServiceRejections(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.DebugLevel)
	svc := core.NewInMemoryService(nil, core.WithAuditRecorder(NewAuditRecorder(logger)), core.WithLogger(logger))
	_, err := svc.Execute(context.Background(), domain.MessageInfo{Sender: "tp1x"}, domain.AcceptPledge{ID: "6a0a6f1e-7c8b-4f3e-9d2a-1b5c3e7f9a01"})
	require.Error(t, err)
	audits := observed.FilterLoggerName("audit").All()
	require.Len(t, audits, 1)
	assert.Equal(t, "error", audits[0].ContextMap()["status"])
}
