package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

const (
	originator = "tp1originator"
	warehouse  = "tp1warehouse"
	contract   = "tp1contract"
	stablecoin = "usdf.c"

	pledgeOne     = "6a0a6f1e-7c8b-4f3e-9d2a-1b5c3e7f9a01"
	pledgeTwo     = "6a0a6f1e-7c8b-4f3e-9d2a-1b5c3e7f9a02"
	paydownOne    = "0d3c9b7e-2a41-4c65-8f10-5e6d7c8b9a01"
	assetOne      = "f1b2c3d4-0000-4000-8000-00000000a001"
	assetTwo      = "f1b2c3d4-0000-4000-8000-00000000a002"
	assetThree    = "f1b2c3d4-0000-4000-8000-00000000a003"
	poolOneDenom  = "pool.p1"
	poolTwoDenom  = "pool.p2"
	facilityDenom = "facility.pb"
)

func testFacility() domain.Facility {
	return domain.Facility{
		Originator:      originator,
		Warehouse:       warehouse,
		EscrowMarker:    "escrow.pb",
		MarkerDenom:     facilityDenom,
		StablecoinDenom: stablecoin,
		AdvanceRate:     "75.125",
		PaydownRate:     "102.25",
	}
}

// fakeView is an in-memory TransactionView that can commit decisions.
type fakeView struct {
	contract *domain.ContractInfo
	pledges  map[string]domain.Pledge
	paydowns map[string]domain.Paydown
	assets   map[string]domain.Asset
}

func newFakeView() *fakeView {
	return &fakeView{
		pledges:  map[string]domain.Pledge{},
		paydowns: map[string]domain.Paydown{},
		assets:   map[string]domain.Asset{},
	}
}

func instantiatedView() *fakeView {
	v := newFakeView()
	v.contract = &domain.ContractInfo{Admin: originator, ContractType: domain.ContractType, Facility: testFacility()}
	return v
}

func (v *fakeView) ContractInfo() (domain.ContractInfo, bool) {
	if v.contract == nil {
		return domain.ContractInfo{}, false
	}
	return *v.contract, true
}

func (v *fakeView) FindPledge(id string) (domain.Pledge, bool) {
	p, ok := v.pledges[id]
	return p, ok
}

func (v *fakeView) FindPaydown(id string) (domain.Paydown, bool) {
	p, ok := v.paydowns[id]
	return p, ok
}

func (v *fakeView) FindAsset(id string) (domain.Asset, bool) {
	a, ok := v.assets[id]
	return a, ok
}

func (v *fakeView) ListPledges(opts domain.ListOptions) []domain.Pledge {
	out := make([]domain.Pledge, 0, len(v.pledges))
	for _, p := range v.pledges {
		out = append(out, p)
	}
	return domain.FilterSorted(out, func(p domain.Pledge) string { return p.ID }, opts.MatchPledge)
}

func (v *fakeView) ListPaydowns(opts domain.ListOptions) []domain.Paydown {
	out := make([]domain.Paydown, 0, len(v.paydowns))
	for _, p := range v.paydowns {
		out = append(out, p)
	}
	return domain.FilterSorted(out, func(p domain.Paydown) string { return p.ID }, opts.MatchPaydown)
}

func (v *fakeView) ListAssets(opts domain.ListOptions) []domain.Asset {
	out := make([]domain.Asset, 0, len(v.assets))
	for _, a := range v.assets {
		out = append(out, a)
	}
	return domain.FilterSorted(out, func(a domain.Asset) string { return a.ID }, opts.MatchAsset)
}

func (v *fakeView) ListEffectBatches(bool) []domain.EffectBatch { return nil }

func (v *fakeView) commit(d Decision) {
	if d.Contract != nil {
		c := *d.Contract
		v.contract = &c
	}
	for _, p := range d.Pledges {
		v.pledges[p.ID] = p
	}
	for _, p := range d.Paydowns {
		v.paydowns[p.ID] = p
	}
	for _, a := range d.AssetUpserts {
		v.assets[a.ID] = a
	}
	for _, id := range d.AssetDeletes {
		delete(v.assets, id)
	}
}

func (v *fakeView) mustDecide(t *testing.T, sender string, funds []domain.Coin, msg domain.ExecuteMsg) Decision {
	t.Helper()
	d, err := Decide(v, domain.Env{ContractAddress: contract}, domain.MessageInfo{Sender: sender, Funds: funds}, msg)
	require.NoError(t, err)
	require.True(t, CustodyBeforeFunds(d.Effects), "custody effects must precede fund effects: %+v", d.Effects)
	v.commit(d)
	return d
}

func (v *fakeView) decide(sender string, funds []domain.Coin, msg domain.ExecuteMsg) (Decision, error) {
	return Decide(v, domain.Env{ContractAddress: contract}, domain.MessageInfo{Sender: sender, Funds: funds}, msg)
}

func cash(amount uint64) []domain.Coin {
	return []domain.Coin{{Denom: stablecoin, Amount: amount}}
}

func fundEffects(effects []domain.Effect) []domain.Effect {
	var out []domain.Effect
	for _, e := range effects {
		if e.IsFundMovement() {
			out = append(out, e)
		}
	}
	return out
}

// executedPledge drives a pledge through propose, accept and execute.
func executedPledge(t *testing.T, v *fakeView, id, denom string, advance uint64, assets ...string) {
	t.Helper()
	v.mustDecide(t, originator, nil, domain.ProposePledge{ID: id, Assets: assets, TotalAdvance: advance, AssetMarkerDenom: denom})
	v.mustDecide(t, warehouse, cash(advance), domain.AcceptPledge{ID: id})
	v.mustDecide(t, originator, nil, domain.ExecutePledge{ID: id})
}
