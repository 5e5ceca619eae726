package core

import (
	"context"
	"fmt"
	"time"

	"github.com/provenance-io/warehouse-facility/internal/infra/persistence/memory"
	"github.com/provenance-io/warehouse-facility/internal/lifecycle"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Version is the build version recorded in contract info. It is overridden at
// link time for release builds.
var Version = "0.1.0"

// Service runs facility actions against a persistent store. Each mutation
// decides, applies and records its effects inside one store transaction.
type Service struct {
	store           PersistentStore
	logger          Logger
	clock           Clock
	metrics         MetricsRecorder
	tracer          Tracer
	audit           AuditRecorder
	contractAddress string
	version         string
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   systemClock{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
		version: Version,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

func (s *Service) env() domain.Env {
	return domain.Env{ContractAddress: s.contractAddress, BlockTime: s.clock.Now()}
}

// Instantiate records the facility agreement and mints the facility marker.
func (s *Service) Instantiate(ctx context.Context, sender string, msg domain.InstantiateMsg) (domain.Response, error) {
	info := domain.MessageInfo{Sender: sender}
	return s.mutate(ctx, domain.ActionInstantiate, domain.EntityContract, info, func(view TransactionView) (lifecycle.Decision, error) {
		return lifecycle.Instantiate(view, s.env(), info, msg, s.version)
	})
}

// Execute dispatches one lifecycle action on behalf of info.Sender.
func (s *Service) Execute(ctx context.Context, info domain.MessageInfo, msg domain.ExecuteMsg) (domain.Response, error) {
	if msg == nil {
		return domain.Response{}, fmt.Errorf("%w: nil message", domain.ErrMalformedMessage)
	}
	return s.mutate(ctx, string(msg.Kind()), entityOf(msg.Kind()), info, func(view TransactionView) (lifecycle.Decision, error) {
		return lifecycle.Decide(view, s.env(), info, msg)
	})
}

// Migrate rewrites the stored contract version to the running build version.
func (s *Service) Migrate(ctx context.Context) (domain.Response, error) {
	return s.mutate(ctx, domain.ActionMigrate, domain.EntityContract, domain.MessageInfo{}, func(view TransactionView) (lifecycle.Decision, error) {
		return lifecycle.Migrate(view, s.version)
	})
}

func entityOf(kind domain.MessageKind) domain.EntityType {
	switch kind {
	case domain.MsgProposePaydown, domain.MsgAcceptPaydown, domain.MsgCancelPaydown, domain.MsgExecutePaydown:
		return domain.EntityPaydown
	default:
		return domain.EntityPledge
	}
}

func (s *Service) mutate(ctx context.Context, op string, entity domain.EntityType, info domain.MessageInfo, decide func(TransactionView) (lifecycle.Decision, error)) (domain.Response, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()

	var decision lifecycle.Decision
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		decision, err = decide(tx)
		if err != nil {
			return err
		}
		if !lifecycle.CustodyBeforeFunds(decision.Effects) {
			return fmt.Errorf("%s: fund movement precedes custody effect", op)
		}
		return applyDecision(tx, decision, started)
	})
	var resp domain.Response
	if err == nil {
		resp, err = decision.Response()
	}

	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "entity_id", v.EntityID, "message", v.Message)
	}

	entry := AuditEntry{
		Operation: op,
		Entity:    entity,
		EntityID:  decision.EntityID,
		Sender:    info.Sender,
		Status:    AuditStatusSuccess,
		Effects:   len(resp.Effects),
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Code = domain.ErrorCode(err)
		entry.Error = err.Error()
		s.logger.Warn("facility action rejected", "operation", op, "sender", info.Sender, "code", entry.Code, "error", err)
	} else {
		s.logger.Info("facility action committed", "operation", op, "sender", info.Sender, "entity_id", decision.EntityID, "effects", len(resp.Effects))
	}
	s.audit.Record(ctx, entry)
	if err != nil {
		return domain.Response{}, err
	}
	return resp, nil
}

// applyDecision writes a decision into tx. Effects are appended to the outbox so
// they commit atomically with the state they describe.
func applyDecision(tx Transaction, d lifecycle.Decision, now time.Time) error {
	if d.Contract != nil {
		if _, err := tx.PutContractInfo(*d.Contract); err != nil {
			return err
		}
	}
	for _, pledge := range d.Pledges {
		if _, ok := tx.FindPledge(pledge.ID); !ok {
			if _, err := tx.CreatePledge(pledge); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.UpdatePledge(pledge.ID, func(p *domain.Pledge) error {
			*p = pledge
			return nil
		}); err != nil {
			return err
		}
	}
	for _, paydown := range d.Paydowns {
		if _, ok := tx.FindPaydown(paydown.ID); !ok {
			if _, err := tx.CreatePaydown(paydown); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.UpdatePaydown(paydown.ID, func(p *domain.Paydown) error {
			*p = paydown
			return nil
		}); err != nil {
			return err
		}
	}
	for _, asset := range d.AssetUpserts {
		if _, err := tx.PutAsset(asset); err != nil {
			return err
		}
	}
	for _, id := range d.AssetDeletes {
		if err := tx.DeleteAsset(id); err != nil {
			return err
		}
	}
	if len(d.Effects) == 0 {
		return nil
	}
	_, err := tx.AppendEffectBatch(domain.EffectBatch{
		Action:    d.Action,
		EntityID:  d.EntityID,
		Effects:   d.Effects,
		CreatedAt: now,
	})
	return err
}

// PendingEffectBatches lists undispatched outbox batches in sequence order.
func (s *Service) PendingEffectBatches(ctx context.Context) ([]domain.EffectBatch, error) {
	var out []domain.EffectBatch
	err := s.query(ctx, "pending_effect_batches", func(view TransactionView) error {
		out = view.ListEffectBatches(true)
		return nil
	})
	return out, err
}

// MarkEffectBatchDispatched flags a batch as delivered.
func (s *Service) MarkEffectBatchDispatched(ctx context.Context, sequence uint64) error {
	ctx, span := s.tracer.Start(ctx, "mark_effect_batch_dispatched")
	started := s.clock.Now()
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.MarkEffectBatchDispatched(sequence)
	})
	span.End(err)
	s.metrics.Observe(ctx, "mark_effect_batch_dispatched", err == nil, s.clock.Now().Sub(started))
	if err != nil {
		s.logger.Error("mark effect batch dispatched", "sequence", sequence, "error", err)
	}
	return err
}

func (s *Service) query(ctx context.Context, op string, fn func(TransactionView) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()
	err := s.store.View(ctx, fn)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Debug("facility query failed", "operation", op, "error", err, "duration", duration.Round(time.Microsecond).String())
	}
	return err
}
