package effects

import (
	"context"
	"fmt"
	"time"

	"github.com/provenance-io/warehouse-facility/internal/core"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Outbox is the store side of the relay. core.Service satisfies it.
type Outbox interface {
	PendingEffectBatches(ctx context.Context) ([]domain.EffectBatch, error)
	MarkEffectBatchDispatched(ctx context.Context, sequence uint64) error
}

var _ Outbox = (*core.Service)(nil)

// DefaultInterval is the polling period used by Run when none is given.
const DefaultInterval = 2 * time.Second

// DispatchResult captures one dispatch cycle outcome.
type DispatchResult struct {
	Pending    int
	Dispatched int
}

// Relay moves pending outbox batches to a sink.
type Relay struct {
	outbox Outbox
	sink   Sink
	logger core.Logger
}

// RelayOption customises a Relay.
type RelayOption func(*Relay)

// WithRelayLogger sets the logger used for dispatch failures and progress.
func WithRelayLogger(logger core.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRelay constructs a relay over outbox delivering to sink.
func NewRelay(outbox Outbox, sink Sink, opts ...RelayOption) (*Relay, error) {
	if outbox == nil {
		return nil, fmt.Errorf("effects: outbox required")
	}
	if sink == nil {
		return nil, ErrNoSink
	}
	r := &Relay{outbox: outbox, sink: sink, logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// DispatchOnce delivers pending batches in sequence order. A batch is marked
// dispatched only after the sink accepted it, and the cycle stops at the first
// failure so later batches never overtake an undelivered one.
func (r *Relay) DispatchOnce(ctx context.Context) (DispatchResult, error) {
	pending, err := r.outbox.PendingEffectBatches(ctx)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("list pending batches: %w", err)
	}
	res := DispatchResult{Pending: len(pending)}
	for _, batch := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.sink.Deliver(ctx, batch); err != nil {
			return res, &SinkError{Sink: r.sink.Name(), Sequence: batch.Sequence, Err: err}
		}
		if err := r.outbox.MarkEffectBatchDispatched(ctx, batch.Sequence); err != nil {
			return res, fmt.Errorf("mark batch %d dispatched: %w", batch.Sequence, err)
		}
		res.Dispatched++
	}
	if res.Dispatched > 0 {
		r.logger.Debug("effect batches dispatched", "count", res.Dispatched, "sink", r.sink.Name())
	}
	return res, nil
}

// Run calls DispatchOnce every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := r.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("effect dispatch failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
