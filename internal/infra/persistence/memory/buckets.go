package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names used by the durable backends' state table.
const (
	BucketContract      = "contract"
	BucketPledges       = "pledges"
	BucketPaydowns      = "paydowns"
	BucketAssets        = "assets"
	BucketEffectBatches = "effect_batches"
)

// Buckets lists every state bucket in persistence order.
var Buckets = []string{BucketContract, BucketPledges, BucketPaydowns, BucketAssets, BucketEffectBatches}

func (s *Snapshot) bucketTarget(bucket string) (any, bool) {
	switch bucket {
	case BucketContract:
		return &s.Contract, true
	case BucketPledges:
		return &s.Pledges, true
	case BucketPaydowns:
		return &s.Paydowns, true
	case BucketAssets:
		return &s.Assets, true
	case BucketEffectBatches:
		return &s.EffectBatches, true
	}
	return nil, false
}

// EncodeBucket renders a single bucket of the snapshot as JSON.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	target, ok := s.bucketTarget(bucket)
	if !ok {
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
	data, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", bucket, err)
	}
	return data, nil
}

// DecodeBucket loads a bucket payload into the snapshot. Unknown buckets are ignored
// so older tables keep loading after a bucket is retired.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	target, ok := s.bucketTarget(bucket)
	if !ok || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
