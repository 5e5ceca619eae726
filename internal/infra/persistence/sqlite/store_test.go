package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

const (
	pledgeID = "11111111-1111-4111-8111-111111111111"
	assetID  = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "facility.db")
	ctx := context.Background()

	store := openStore(t, path)
	if store.Path() != path {
		t.Fatalf("expected path %s, got %s", path, store.Path())
	}
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.PutContractInfo(domain.ContractInfo{ContractName: "wf", Version: "0.1.0"}); err != nil {
			return err
		}
		if _, err := tx.CreatePledge(domain.Pledge{ID: pledgeID, Assets: []string{assetID}, TotalAdvance: 1000, Status: domain.PledgeProposed}); err != nil {
			return err
		}
		if _, err := tx.PutAsset(domain.Asset{ID: assetID, Status: domain.AssetPledgeProposed, PledgeID: pledgeID}); err != nil {
			return err
		}
		_, err := tx.AppendEffectBatch(domain.EffectBatch{Action: "propose_pledge", EntityID: pledgeID, Effects: []domain.Effect{domain.ActivateMarker("pool.p1")}})
		return err
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	_ = store.Close()

	reopened := openStore(t, path)
	err = reopened.View(ctx, func(view domain.TransactionView) error {
		info, ok := view.ContractInfo()
		if !ok || info.ContractName != "wf" {
			t.Fatalf("expected contract info after reopen, got %+v", info)
		}
		p, ok := view.FindPledge(pledgeID)
		if !ok || p.TotalAdvance != 1000 {
			t.Fatalf("expected pledge after reopen, got %+v", p)
		}
		if a, ok := view.FindAsset(assetID); !ok || a.Status != domain.AssetPledgeProposed {
			t.Fatalf("expected asset after reopen, got %+v", a)
		}
		batches := view.ListEffectBatches(true)
		if len(batches) != 1 || batches[0].Sequence != 1 {
			t.Fatalf("expected pending outbox batch after reopen, got %+v", batches)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestSQLiteStoreSkipsPersistOnFailure(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "facility.db"))
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdatePledge("missing", func(*domain.Pledge) error { return nil })
		return err
	})
	if err == nil {
		t.Fatalf("expected failure for missing pledge")
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted buckets after failed transaction, got %d", count)
	}
}
