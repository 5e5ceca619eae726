package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)
	return Wrap(zap.New(core)), observed
}

func TestNewValidatesConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "console debug", cfg: Config{Level: "debug", Format: FormatConsole}},
		{name: "json upper", cfg: Config{Level: "WARN", Format: "JSON"}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger.Raw())
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level.Level())
	level, err = ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, level.Level())
}

func TestStructuredLoggingMethods(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.DebugLevel)
	logger.Debug("d", "sequence", 1)
	logger.Info("i", "action", "propose_pledge")
	logger.Warn("w")
	logger.Error("e", "error", "boom")

	entries := observed.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["sequence"])
	assert.Equal(t, "propose_pledge", entries[1].ContextMap()["action"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestLevelFiltering(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.WarnLevel)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.Equal(t, 1, observed.Len())
}

func TestWithContextAddsTraceCorrelation(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.WithContext(ctx).Info("traced")
	logger.WithContext(context.Background()).Info("untraced")

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, traceID.String(), entries[0].ContextMap()["trace_id"])
	assert.Equal(t, spanID.String(), entries[0].ContextMap()["span_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)
	logger.With("request_id", "r1").Info("child")
	logger.Info("parent")
	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	var nilLogger *Logger
	assert.NotPanics(t, func() {
		nilLogger.Info("message")
		nilLogger.With("k", "v").Warn("message")
		_ = nilLogger.Sync()
	})
}
