package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

const (
	pledgeA = "11111111-1111-4111-8111-111111111111"
	pledgeB = "22222222-2222-4222-8222-222222222222"
	assetA  = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	assetB  = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

func TestRunInTransactionCommitsOnSuccess(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeA, Assets: []string{assetA}, TotalAdvance: 10, Status: domain.PledgeProposed}); err != nil {
			return err
		}
		_, err := tx.PutAsset(domain.Asset{ID: assetA, Status: domain.AssetPledgeProposed, PledgeID: pledgeA})
		return err
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	err = store.View(ctx, func(view domain.TransactionView) error {
		if _, ok := view.FindPledge(pledgeA); !ok {
			t.Fatalf("expected pledge to be committed")
		}
		if asset, ok := view.FindAsset(assetA); !ok || asset.PledgeID != pledgeA {
			t.Fatalf("expected asset record, got %+v", asset)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	sentinel := errors.New("boom")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeA, Status: domain.PledgeProposed}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if snapshot := store.ExportState(); len(snapshot.Pledges) != 0 {
		t.Fatalf("expected rollback, found %+v", snapshot.Pledges)
	}
}

func TestRunInTransactionBlockedByRules(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockingRule{})
	store := NewStore(engine)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreatePledge(domain.Pledge{ID: pledgeA, Status: domain.PledgeProposed})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result returned")
	}
	if len(store.ExportState().Pledges) != 0 {
		t.Fatalf("expected blocked transaction to leave state untouched")
	}
}

func TestTransactionRecordsChanges(t *testing.T) {
	engine := domain.NewRulesEngine()
	rec := &recordingRule{}
	engine.Register(rec)
	store := NewStore(engine)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeA, Status: domain.PledgeProposed}); err != nil {
			return err
		}
		if _, err := tx.UpdatePledge(pledgeA, func(p *domain.Pledge) error {
			p.Status = domain.PledgeAccepted
			return nil
		}); err != nil {
			return err
		}
		if _, err := tx.PutAsset(domain.Asset{ID: assetA, Status: domain.AssetInventory}); err != nil {
			return err
		}
		return tx.DeleteAsset(assetA)
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	want := []domain.Action{domain.ActionCreate, domain.ActionUpdate, domain.ActionCreate, domain.ActionDelete}
	if len(rec.changes) != len(want) {
		t.Fatalf("expected %d changes, got %d", len(want), len(rec.changes))
	}
	for i, action := range want {
		if rec.changes[i].Action != action {
			t.Fatalf("change %d: expected %s, got %s", i, action, rec.changes[i].Action)
		}
	}
	before, ok := domain.DecodeChangePayload[domain.Pledge](rec.changes[1].Before)
	if !ok || before.Status != domain.PledgeProposed {
		t.Fatalf("expected before payload with proposed status, got %+v", before)
	}
	if rec.changes[3].After.Defined() {
		t.Fatalf("expected delete change without after payload")
	}
}

func TestCreateRejectsDuplicatesAndUpdateRequiresRecord(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeA}); err != nil {
			return err
		}
		var dup domain.PledgeAlreadyExistsError
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeA}); !errors.As(err, &dup) {
			t.Fatalf("expected duplicate pledge error, got %v", err)
		}
		var notFound domain.NotFoundError
		if _, err := tx.UpdatePaydown("missing", func(*domain.Paydown) error { return nil }); !errors.As(err, &notFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if err := tx.DeleteAsset("missing"); !errors.As(err, &notFound) {
			t.Fatalf("expected not found on delete, got %v", err)
		}
		if _, err := tx.PutAsset(domain.Asset{ID: assetA, Status: "lost"}); err == nil {
			t.Fatalf("expected invalid asset status error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
}

func TestListsAreSortedAndFiltered(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, p := range []domain.Pledge{
			{ID: pledgeB, Assets: []string{assetB}, Status: domain.PledgeAccepted},
			{ID: pledgeA, Assets: []string{assetA}, Status: domain.PledgeProposed},
		} {
			if _, err := tx.CreatePledge(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.View(context.Background(), func(view domain.TransactionView) error {
		all := view.ListPledges(domain.ListOptions{})
		if len(all) != 2 || all[0].ID != pledgeA || all[1].ID != pledgeB {
			t.Fatalf("expected ascending order, got %+v", all)
		}
		accepted := view.ListPledges(domain.ListOptions{Status: string(domain.PledgeAccepted)})
		if len(accepted) != 1 || accepted[0].ID != pledgeB {
			t.Fatalf("expected status filter, got %+v", accepted)
		}
		byAsset := view.ListPledges(domain.ListOptions{Assets: []string{assetA}})
		if len(byAsset) != 1 || byAsset[0].ID != pledgeA {
			t.Fatalf("expected asset filter, got %+v", byAsset)
		}
		after := view.ListPledges(domain.ListOptions{Start: &domain.Bound{Key: pledgeA, Exclusive: true}})
		if len(after) != 1 || after[0].ID != pledgeB {
			t.Fatalf("expected exclusive start bound, got %+v", after)
		}
		return nil
	})
}

func TestEffectBatchSequencing(t *testing.T) {
	store := NewStore(nil)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time { return fixed })
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, err := tx.AppendEffectBatch(domain.EffectBatch{Action: "propose_pledge", Effects: []domain.Effect{domain.FinalizeMarker("pool")}})
			return err
		})
		if err != nil {
			t.Fatalf("append batch: %v", err)
		}
	}
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.MarkEffectBatchDispatched(1)
	})
	if err != nil {
		t.Fatalf("mark dispatched: %v", err)
	}
	_ = store.View(ctx, func(view domain.TransactionView) error {
		pending := view.ListEffectBatches(true)
		if len(pending) != 2 || pending[0].Sequence != 2 || pending[1].Sequence != 3 {
			t.Fatalf("unexpected pending batches %+v", pending)
		}
		if !pending[0].CreatedAt.Equal(fixed) {
			t.Fatalf("expected batch stamped with store clock, got %v", pending[0].CreatedAt)
		}
		if all := view.ListEffectBatches(false); len(all) != 3 {
			t.Fatalf("expected all batches, got %d", len(all))
		}
		return nil
	})
	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.MarkEffectBatchDispatched(99)
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found for unknown batch, got %v", err)
	}
}

func TestSnapshotRoundTripIsolatesState(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.PutContractInfo(domain.ContractInfo{ContractName: "wf"}); err != nil {
			return err
		}
		_, err := tx.CreatePledge(domain.Pledge{ID: pledgeA, Assets: []string{assetA}})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	snapshot := store.ExportState()
	snapshot.Pledges[pledgeA].Assets[0] = "mutated"

	other := NewStore(nil)
	other.ImportState(store.ExportState())
	_ = other.View(context.Background(), func(view domain.TransactionView) error {
		info, ok := view.ContractInfo()
		if !ok || info.ContractName != "wf" {
			t.Fatalf("expected imported contract info, got %+v", info)
		}
		p, _ := view.FindPledge(pledgeA)
		if p.Assets[0] != assetA {
			t.Fatalf("expected export to be isolated from caller mutation, got %+v", p)
		}
		return nil
	})
}

type blockingRule struct{}

func (blockingRule) Name() string { return "blocking" }

func (blockingRule) Evaluate(context.Context, domain.TransactionView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "blocking", Severity: domain.SeverityBlock, Message: "no"}}}, nil
}

type recordingRule struct {
	changes []domain.Change
}

func (r *recordingRule) Name() string { return "recording" }

func (r *recordingRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	r.changes = append([]domain.Change(nil), changes...)
	return domain.Result{}, nil
}
