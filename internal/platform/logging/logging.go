// Package logging adapts go.uber.org/zap to the core.Logger interface.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/provenance-io/warehouse-facility/internal/core"
)

// Format selects the zap encoder.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Config holds logger construction inputs.
type Config struct {
	Level  string // debug|info|warn|error (default info)
	Format Format // json|console (default json)
}

// Logger is a structured zap logger implementing core.Logger.
type Logger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

var _ core.Logger = (*Logger)(nil)

// New builds a logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var zcfg zap.Config
	switch Format(strings.ToLower(string(cfg.Format))) {
	case "", FormatJSON:
		zcfg = zap.NewProductionConfig()
		zcfg.Encoding = string(FormatJSON)
	case FormatConsole:
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Encoding = string(FormatConsole)
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	zcfg.Level = level
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	built, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{logger: built, level: level}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(logger *zap.Logger) *Logger {
	return &Logger{logger: logger, level: zap.NewAtomicLevel()}
}

// ParseLevel parses a level name. Empty selects info.
func ParseLevel(name string) (zap.AtomicLevel, error) {
	if strings.TrimSpace(name) == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	var parsed zapcore.Level
	if err := parsed.Set(name); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return zap.NewAtomicLevelAt(parsed), nil
}

func (l *Logger) must() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// Debug implements core.Logger.
func (l *Logger) Debug(msg string, args ...any) { l.must().Sugar().Debugw(msg, args...) }

// Info implements core.Logger.
func (l *Logger) Info(msg string, args ...any) { l.must().Sugar().Infow(msg, args...) }

// Warn implements core.Logger.
func (l *Logger) Warn(msg string, args ...any) { l.must().Sugar().Warnw(msg, args...) }

// Error implements core.Logger.
func (l *Logger) Error(msg string, args ...any) { l.must().Sugar().Errorw(msg, args...) }

// With returns a child logger carrying the key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	var level zap.AtomicLevel
	if l != nil {
		level = l.level
	}
	return &Logger{logger: l.must().Sugar().With(args...).Desugar(), level: level}
}

// Named returns a child logger with name appended to the logger name.
func (l *Logger) Named(name string) *Logger {
	var level zap.AtomicLevel
	if l != nil {
		level = l.level
	}
	return &Logger{logger: l.must().Named(name), level: level}
}

// WithContext returns a child logger annotated with the trace and span ids
// of the active span in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

// Level returns the runtime-adjustable level handle.
func (l *Logger) Level() zap.AtomicLevel { return l.level }

// Raw returns the underlying zap logger.
func (l *Logger) Raw() *zap.Logger { return l.must() }

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.must().Sync() }
