package domain

import "context"

// TransactionView provides read-only access to facility state. Lifecycle
// decisions and rules are computed against a view.
type TransactionView interface {
	ContractInfo() (ContractInfo, bool)
	FindPledge(id string) (Pledge, bool)
	FindPaydown(id string) (Paydown, bool)
	FindAsset(id string) (Asset, bool)
	ListPledges(opts ListOptions) []Pledge
	ListPaydowns(opts ListOptions) []Paydown
	ListAssets(opts ListOptions) []Asset
	// ListEffectBatches returns outbox batches in ascending sequence order.
	ListEffectBatches(pendingOnly bool) []EffectBatch
}

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope.
type Transaction interface {
	TransactionView
	PutContractInfo(ContractInfo) (ContractInfo, error)
	CreatePledge(Pledge) (Pledge, error)
	UpdatePledge(id string, mutator func(*Pledge) error) (Pledge, error)
	CreatePaydown(Paydown) (Paydown, error)
	UpdatePaydown(id string, mutator func(*Paydown) error) (Paydown, error)
	PutAsset(Asset) (Asset, error)
	DeleteAsset(id string) error
	// AppendEffectBatch stores batch with the next outbox sequence number.
	AppendEffectBatch(batch EffectBatch) (EffectBatch, error)
	MarkEffectBatchDispatched(sequence uint64) error
}

// PersistentStore is the abstraction over memory and durable backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
