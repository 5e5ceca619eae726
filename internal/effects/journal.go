package effects

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/provenance-io/warehouse-facility/internal/blob"
	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// JournalPrefix is the key prefix journal entries are written under.
const JournalPrefix = "effects/"

// digestMetadata names the blob metadata entry holding the sha256 of the
// journaled payload.
const digestMetadata = "digest"

// ErrJournalConflict is returned when a journal key already holds a different
// batch, which happens when sequences restart against an existing journal.
var ErrJournalConflict = errors.New("journal entry holds a different batch")

// JournalSink appends each batch as a JSON document to a blob store. Entries
// are keyed by zero-padded sequence so listing returns them in order.
type JournalSink struct {
	store blob.Store
}

// NewJournalSink wraps store.
func NewJournalSink(store blob.Store) *JournalSink {
	return &JournalSink{store: store}
}

// JournalKey returns the blob key for a batch sequence.
func JournalKey(sequence uint64) string {
	return JournalPrefix + formatSequence(sequence) + ".json"
}

func formatSequence(sequence uint64) string {
	return fmt.Sprintf("%020d", sequence)
}

// Name implements Sink.
func (*JournalSink) Name() string { return "journal" }

// Deliver writes the batch under its sequence key. Redelivering an identical
// batch is a no-op; a different batch under the same key is ErrJournalConflict.
func (j *JournalSink) Deliver(ctx context.Context, batch domain.EffectBatch) error {
	key := JournalKey(batch.Sequence)
	batch.Dispatched = false
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch %d: %w", batch.Sequence, err)
	}
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	info, err := j.store.Head(ctx, key)
	switch {
	case err == nil:
		return matchDigest(key, info, digest)
	case !errors.Is(err, blob.ErrNotFound):
		return fmt.Errorf("head %s: %w", key, err)
	}
	_, err = j.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"sequence":     strconv.FormatUint(batch.Sequence, 10),
			"action":       batch.Action,
			digestMetadata: digest,
		},
	})
	if errors.Is(err, blob.ErrExists) {
		// lost a race with another writer
		if info, err = j.store.Head(ctx, key); err != nil {
			return fmt.Errorf("head %s: %w", key, err)
		}
		return matchDigest(key, info, digest)
	}
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func matchDigest(key string, info blob.Info, digest string) error {
	if info.Metadata[digestMetadata] != digest {
		return fmt.Errorf("%w: %s (action %q)", ErrJournalConflict, key, info.Metadata["action"])
	}
	return nil
}

// Entries reads every journaled batch in sequence order.
func (j *JournalSink) Entries(ctx context.Context) ([]domain.EffectBatch, error) {
	infos, err := j.store.List(ctx, JournalPrefix)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	out := make([]domain.EffectBatch, 0, len(infos))
	for _, info := range infos {
		batch, err := j.read(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, batch)
	}
	return out, nil
}

// Entry reads a single journaled batch.
func (j *JournalSink) Entry(ctx context.Context, sequence uint64) (domain.EffectBatch, error) {
	return j.read(ctx, JournalKey(sequence))
}

func (j *JournalSink) read(ctx context.Context, key string) (domain.EffectBatch, error) {
	_, rc, err := j.store.Get(ctx, key)
	if err != nil {
		return domain.EffectBatch{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var batch domain.EffectBatch
	if err := json.NewDecoder(rc).Decode(&batch); err != nil {
		return domain.EffectBatch{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return batch, nil
}
