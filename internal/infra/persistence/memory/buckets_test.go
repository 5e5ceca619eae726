package memory

import (
	"testing"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

func TestSnapshotBucketsRoundTrip(t *testing.T) {
	src := Snapshot{
		Contract: &domain.ContractInfo{ContractName: "wf"},
		Pledges:  map[string]domain.Pledge{pledgeA: {ID: pledgeA, Status: domain.PledgeExecuted}},
		Assets:   map[string]domain.Asset{assetA: {ID: assetA, Status: domain.AssetInventory}},
		EffectBatches: []domain.EffectBatch{
			{Sequence: 1, Action: "init", Effects: []domain.Effect{domain.ActivateMarker("facility")}},
		},
	}
	var dst Snapshot
	for _, bucket := range Buckets {
		payload, err := src.EncodeBucket(bucket)
		if err != nil {
			t.Fatalf("encode %s: %v", bucket, err)
		}
		if err := dst.DecodeBucket(bucket, payload); err != nil {
			t.Fatalf("decode %s: %v", bucket, err)
		}
	}
	if dst.Contract == nil || dst.Contract.ContractName != "wf" {
		t.Fatalf("expected contract bucket restored, got %+v", dst.Contract)
	}
	if dst.Pledges[pledgeA].Status != domain.PledgeExecuted || dst.Assets[assetA].Status != domain.AssetInventory {
		t.Fatalf("unexpected restored entities %+v %+v", dst.Pledges, dst.Assets)
	}
	if len(dst.EffectBatches) != 1 || dst.EffectBatches[0].Effects[0].Kind != domain.EffectActivateMarker {
		t.Fatalf("unexpected batches %+v", dst.EffectBatches)
	}
}

func TestSnapshotBucketErrors(t *testing.T) {
	if _, err := (Snapshot{}).EncodeBucket("organisms"); err == nil {
		t.Fatalf("expected unknown bucket error")
	}
	var s Snapshot
	if err := s.DecodeBucket("organisms", []byte(`{}`)); err != nil {
		t.Fatalf("expected unknown bucket to be ignored, got %v", err)
	}
	if err := s.DecodeBucket(BucketPledges, []byte(`not-json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
