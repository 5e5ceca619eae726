// Package effects delivers committed outbox batches to the collaborators that
// execute them. Delivery is at-least-once; sinks must tolerate redelivery of a
// batch whose dispatch mark was lost.
package effects

import (
	"context"
	"errors"

	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Sink receives committed effect batches in sequence order.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, batch domain.EffectBatch) error
}

// LogSink writes every effect of a batch to a logger.
type LogSink struct {
	logger core.Logger
}

// NewLogSink returns a LogSink. A nil logger discards output.
func NewLogSink(logger core.Logger) *LogSink {
	if logger == nil {
		return &LogSink{logger: nopLogger{}}
	}
	return &LogSink{logger: logger}
}

// Name implements Sink.
func (*LogSink) Name() string { return "log" }

// Deliver implements Sink.
func (s *LogSink) Deliver(_ context.Context, batch domain.EffectBatch) error {
	for i, effect := range batch.Effects {
		s.logger.Info("effect dispatched",
			"sequence", batch.Sequence,
			"index", i,
			"action", batch.Action,
			"entity_id", batch.EntityID,
			"collaborator", string(effect.Collaborator()),
			"kind", string(effect.Kind),
			"denom", effect.Denom,
			"amount", effect.Amount,
		)
	}
	return nil
}

// MultiSink fans a batch out to several sinks in order, stopping at the first failure.
type MultiSink []Sink

// Name implements Sink.
func (MultiSink) Name() string { return "multi" }

// Deliver implements Sink.
func (m MultiSink) Deliver(ctx context.Context, batch domain.EffectBatch) error {
	for _, sink := range m {
		if err := sink.Deliver(ctx, batch); err != nil {
			return &SinkError{Sink: sink.Name(), Sequence: batch.Sequence, Err: err}
		}
	}
	return nil
}

// SinkError reports which sink failed for which batch.
type SinkError struct {
	Sink     string
	Sequence uint64
	Err      error
}

func (e *SinkError) Error() string {
	return "sink " + e.Sink + " failed for batch " + formatSequence(e.Sequence) + ": " + e.Err.Error()
}

func (e *SinkError) Unwrap() error { return e.Err }

// ErrNoSink is returned when a relay is constructed without a sink.
var ErrNoSink = errors.New("effects: sink required")

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
