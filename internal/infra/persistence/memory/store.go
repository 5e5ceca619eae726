// Package memory provides an in-memory implementation of the facility
// persistence store used for tests and ephemeral environments. The durable
// backends embed it and snapshot its state after every commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	contract *domain.ContractInfo
	pledges  map[string]domain.Pledge
	paydowns map[string]domain.Paydown
	assets   map[string]domain.Asset
	batches  map[uint64]domain.EffectBatch
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Contract      *domain.ContractInfo      `json:"contract,omitempty"`
	Pledges       map[string]domain.Pledge  `json:"pledges"`
	Paydowns      map[string]domain.Paydown `json:"paydowns"`
	Assets        map[string]domain.Asset   `json:"assets"`
	EffectBatches []domain.EffectBatch      `json:"effect_batches"`
}

func newMemoryState() memoryState {
	return memoryState{
		pledges:  make(map[string]domain.Pledge),
		paydowns: make(map[string]domain.Paydown),
		assets:   make(map[string]domain.Asset),
		batches:  make(map[uint64]domain.EffectBatch),
	}
}

func (s memoryState) clone() memoryState {
	out := newMemoryState()
	if s.contract != nil {
		c := *s.contract
		out.contract = &c
	}
	for k, v := range s.pledges {
		out.pledges[k] = clonePledge(v)
	}
	for k, v := range s.paydowns {
		out.paydowns[k] = clonePaydown(v)
	}
	for k, v := range s.assets {
		out.assets[k] = v
	}
	for k, v := range s.batches {
		out.batches[k] = cloneBatch(v)
	}
	return out
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	s := Snapshot{
		Contract: cloned.contract,
		Pledges:  cloned.pledges,
		Paydowns: cloned.paydowns,
		Assets:   cloned.assets,
	}
	s.EffectBatches = sortedBatches(cloned.batches, false)
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		contract: s.Contract,
		pledges:  s.Pledges,
		paydowns: s.Paydowns,
		assets:   s.Assets,
		batches:  make(map[uint64]domain.EffectBatch, len(s.EffectBatches)),
	}
	for _, b := range s.EffectBatches {
		state.batches[b.Sequence] = b
	}
	return state.clone()
}

func clonePledge(p domain.Pledge) domain.Pledge {
	p.Assets = append([]string(nil), p.Assets...)
	return p
}

func clonePaydown(p domain.Paydown) domain.Paydown {
	p.Assets = append([]string(nil), p.Assets...)
	return p
}

func cloneBatch(b domain.EffectBatch) domain.EffectBatch {
	effects := make([]domain.Effect, len(b.Effects))
	for i, e := range b.Effects {
		e.Access = append([]domain.MarkerAccess(nil), e.Access...)
		effects[i] = e
	}
	b.Effects = effects
	return b
}

// Store provides an in-memory transactional store for facility state.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used to stamp effect batches.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn and the rules engine succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	tx.transactionView = transactionView{state: &tx.state}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, tx.transactionView, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(transactionView{state: &snapshot})
}

// transactionView exposes a read-only window over a state value.
type transactionView struct {
	state *memoryState
}

func (v transactionView) ContractInfo() (domain.ContractInfo, bool) {
	if v.state.contract == nil {
		return domain.ContractInfo{}, false
	}
	return *v.state.contract, true
}

func (v transactionView) FindPledge(id string) (domain.Pledge, bool) {
	p, ok := v.state.pledges[id]
	if !ok {
		return domain.Pledge{}, false
	}
	return clonePledge(p), true
}

func (v transactionView) FindPaydown(id string) (domain.Paydown, bool) {
	p, ok := v.state.paydowns[id]
	if !ok {
		return domain.Paydown{}, false
	}
	return clonePaydown(p), true
}

func (v transactionView) FindAsset(id string) (domain.Asset, bool) {
	a, ok := v.state.assets[id]
	return a, ok
}

func (v transactionView) ListPledges(opts domain.ListOptions) []domain.Pledge {
	out := make([]domain.Pledge, 0, len(v.state.pledges))
	for _, p := range v.state.pledges {
		out = append(out, clonePledge(p))
	}
	return domain.FilterSorted(out, func(p domain.Pledge) string { return p.ID }, opts.MatchPledge)
}

func (v transactionView) ListPaydowns(opts domain.ListOptions) []domain.Paydown {
	out := make([]domain.Paydown, 0, len(v.state.paydowns))
	for _, p := range v.state.paydowns {
		out = append(out, clonePaydown(p))
	}
	return domain.FilterSorted(out, func(p domain.Paydown) string { return p.ID }, opts.MatchPaydown)
}

func (v transactionView) ListAssets(opts domain.ListOptions) []domain.Asset {
	out := make([]domain.Asset, 0, len(v.state.assets))
	for _, a := range v.state.assets {
		out = append(out, a)
	}
	return domain.FilterSorted(out, func(a domain.Asset) string { return a.ID }, opts.MatchAsset)
}

func (v transactionView) ListEffectBatches(pendingOnly bool) []domain.EffectBatch {
	return sortedBatches(v.state.batches, pendingOnly)
}

func sortedBatches(batches map[uint64]domain.EffectBatch, pendingOnly bool) []domain.EffectBatch {
	out := make([]domain.EffectBatch, 0, len(batches))
	for _, b := range batches {
		if pendingOnly && b.Dispatched {
			continue
		}
		out = append(out, cloneBatch(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// transaction represents a mutation set applied to a cloned state.
type transaction struct {
	transactionView
	state   memoryState
	changes []domain.Change
	now     time.Time
}

func (tx *transaction) recordChange(entity domain.EntityType, action domain.Action, before, after any) {
	change := domain.Change{Entity: entity, Action: action}
	if before != nil {
		change.Before = domain.MustChangePayload(before)
	}
	if after != nil {
		change.After = domain.MustChangePayload(after)
	}
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) PutContractInfo(info domain.ContractInfo) (domain.ContractInfo, error) {
	action := domain.ActionCreate
	var before any
	if tx.state.contract != nil {
		action = domain.ActionUpdate
		before = *tx.state.contract
	}
	stored := info
	tx.state.contract = &stored
	tx.recordChange(domain.EntityContract, action, before, info)
	return info, nil
}

func (tx *transaction) CreatePledge(p domain.Pledge) (domain.Pledge, error) {
	if p.ID == "" {
		return domain.Pledge{}, fmt.Errorf("pledge id is required")
	}
	if _, exists := tx.state.pledges[p.ID]; exists {
		return domain.Pledge{}, domain.PledgeAlreadyExistsError{ID: p.ID}
	}
	tx.state.pledges[p.ID] = clonePledge(p)
	tx.recordChange(domain.EntityPledge, domain.ActionCreate, nil, p)
	return clonePledge(p), nil
}

func (tx *transaction) UpdatePledge(id string, mutator func(*domain.Pledge) error) (domain.Pledge, error) {
	current, ok := tx.state.pledges[id]
	if !ok {
		return domain.Pledge{}, domain.NotFoundError{Entity: domain.EntityPledge, ID: id}
	}
	before := clonePledge(current)
	if err := mutator(&current); err != nil {
		return domain.Pledge{}, err
	}
	current.ID = id
	tx.state.pledges[id] = clonePledge(current)
	tx.recordChange(domain.EntityPledge, domain.ActionUpdate, before, current)
	return clonePledge(current), nil
}

func (tx *transaction) CreatePaydown(p domain.Paydown) (domain.Paydown, error) {
	if p.ID == "" {
		return domain.Paydown{}, fmt.Errorf("paydown id is required")
	}
	if _, exists := tx.state.paydowns[p.ID]; exists {
		return domain.Paydown{}, domain.PaydownAlreadyExistsError{ID: p.ID}
	}
	tx.state.paydowns[p.ID] = clonePaydown(p)
	tx.recordChange(domain.EntityPaydown, domain.ActionCreate, nil, p)
	return clonePaydown(p), nil
}

func (tx *transaction) UpdatePaydown(id string, mutator func(*domain.Paydown) error) (domain.Paydown, error) {
	current, ok := tx.state.paydowns[id]
	if !ok {
		return domain.Paydown{}, domain.NotFoundError{Entity: domain.EntityPaydown, ID: id}
	}
	before := clonePaydown(current)
	if err := mutator(&current); err != nil {
		return domain.Paydown{}, err
	}
	current.ID = id
	tx.state.paydowns[id] = clonePaydown(current)
	tx.recordChange(domain.EntityPaydown, domain.ActionUpdate, before, current)
	return clonePaydown(current), nil
}

func (tx *transaction) PutAsset(a domain.Asset) (domain.Asset, error) {
	if a.ID == "" {
		return domain.Asset{}, fmt.Errorf("asset id is required")
	}
	if !a.Status.Valid() {
		return domain.Asset{}, fmt.Errorf("asset %q: unknown status %q", a.ID, a.Status)
	}
	action := domain.ActionCreate
	var before any
	if current, ok := tx.state.assets[a.ID]; ok {
		action = domain.ActionUpdate
		before = current
	}
	tx.state.assets[a.ID] = a
	tx.recordChange(domain.EntityAsset, action, before, a)
	return a, nil
}

func (tx *transaction) DeleteAsset(id string) error {
	current, ok := tx.state.assets[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAsset, ID: id}
	}
	delete(tx.state.assets, id)
	tx.recordChange(domain.EntityAsset, domain.ActionDelete, current, nil)
	return nil
}

func (tx *transaction) AppendEffectBatch(batch domain.EffectBatch) (domain.EffectBatch, error) {
	var next uint64 = 1
	for seq := range tx.state.batches {
		if seq >= next {
			next = seq + 1
		}
	}
	batch.Sequence = next
	batch.Dispatched = false
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = tx.now
	}
	batch = cloneBatch(batch)
	tx.state.batches[next] = batch
	tx.recordChange(domain.EntityEffectBatch, domain.ActionCreate, nil, batch)
	return cloneBatch(batch), nil
}

func (tx *transaction) MarkEffectBatchDispatched(sequence uint64) error {
	current, ok := tx.state.batches[sequence]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityEffectBatch, ID: fmt.Sprint(sequence)}
	}
	if current.Dispatched {
		return nil
	}
	before := cloneBatch(current)
	current.Dispatched = true
	tx.state.batches[sequence] = current
	tx.recordChange(domain.EntityEffectBatch, domain.ActionUpdate, before, current)
	return nil
}
