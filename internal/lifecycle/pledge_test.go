package lifecycle

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

func TestPledgeProposeAcceptExecute(t *testing.T) {
	v := instantiatedView()

	d := v.mustDecide(t, originator, nil, domain.ProposePledge{
		ID: pledgeOne, Assets: []string{assetOne, assetTwo}, TotalAdvance: 1000, AssetMarkerDenom: poolOneDenom,
	})
	assert.Equal(t, "propose_pledge", d.Action)
	assert.Equal(t, domain.PledgeProposed, v.pledges[pledgeOne].Status)
	for _, id := range []string{assetOne, assetTwo} {
		assert.Equal(t, domain.Asset{ID: id, Status: domain.AssetPledgeProposed, PledgeID: pledgeOne}, v.assets[id])
	}
	assert.Equal(t, []domain.Effect{
		domain.CreateMarker(1, poolOneDenom, domain.MarkerRestricted),
		domain.GrantMarkerAccess(poolOneDenom, contract,
			domain.AccessAdmin, domain.AccessBurn, domain.AccessDelete, domain.AccessDeposit,
			domain.AccessMint, domain.AccessTransfer, domain.AccessWithdraw),
		domain.FinalizeMarker(poolOneDenom),
		domain.ActivateMarker(poolOneDenom),
		domain.WithdrawCoins(poolOneDenom, 1, originator),
	}, d.Effects)

	d = v.mustDecide(t, warehouse, cash(1000), domain.AcceptPledge{ID: pledgeOne})
	assert.Equal(t, domain.PledgeAccepted, v.pledges[pledgeOne].Status)
	assert.Empty(t, d.Effects)

	d = v.mustDecide(t, originator, nil, domain.ExecutePledge{ID: pledgeOne})
	assert.Equal(t, domain.PledgeExecuted, v.pledges[pledgeOne].Status)
	assert.Equal(t, []domain.Effect{domain.BankSend(originator, domain.Coin{Denom: stablecoin, Amount: 1000})}, d.Effects)
	assert.Equal(t, domain.AssetInventory, v.assets[assetOne].Status)
	assert.Equal(t, domain.AssetInventory, v.assets[assetTwo].Status)

	resp, err := d.Response()
	require.NoError(t, err)
	var pledge domain.Pledge
	require.NoError(t, json.Unmarshal(resp.Data, &pledge))
	assert.Equal(t, pledgeOne, pledge.ID)
	assert.Equal(t, domain.PledgeExecuted, pledge.Status)
}

func TestCancelProposedPledgeReleasesCustodyOnly(t *testing.T) {
	v := instantiatedView()
	v.mustDecide(t, originator, nil, domain.ProposePledge{ID: pledgeTwo, Assets: []string{assetThree}, TotalAdvance: 250, AssetMarkerDenom: poolTwoDenom})

	d := v.mustDecide(t, originator, nil, domain.CancelPledge{ID: pledgeTwo})
	assert.Equal(t, domain.PledgeCancelled, v.pledges[pledgeTwo].Status)
	assert.Empty(t, fundEffects(d.Effects))
	assert.Equal(t, []domain.Effect{
		domain.TransferMarkerCoins(1, poolTwoDenom, poolTwoDenom, originator),
		domain.CancelMarker(poolTwoDenom),
		domain.DestroyMarker(poolTwoDenom),
	}, d.Effects)
	_, held := v.assets[assetThree]
	assert.False(t, held, "cancelled pledge must release its assets")
}

func TestCancelAcceptedPledgeRefundsWarehouse(t *testing.T) {
	v := instantiatedView()
	v.mustDecide(t, originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetOne}, TotalAdvance: 700, AssetMarkerDenom: poolOneDenom})
	v.mustDecide(t, warehouse, cash(700), domain.AcceptPledge{ID: pledgeOne})

	d := v.mustDecide(t, originator, nil, domain.CancelPledge{ID: pledgeOne})
	funds := fundEffects(d.Effects)
	require.Len(t, funds, 1)
	assert.Equal(t, domain.BankSend(warehouse, domain.Coin{Denom: stablecoin, Amount: 700}), funds[0])
	assert.Equal(t, domain.EffectBankSend, d.Effects[len(d.Effects)-1].Kind)
}

func TestPledgeIdentifiersAreNeverReused(t *testing.T) {
	v := instantiatedView()
	v.mustDecide(t, originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetOne}, TotalAdvance: 10, AssetMarkerDenom: poolOneDenom})
	v.mustDecide(t, originator, nil, domain.CancelPledge{ID: pledgeOne})

	_, err := v.decide(originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetTwo}, TotalAdvance: 10, AssetMarkerDenom: poolTwoDenom})
	var dup domain.PledgeAlreadyExistsError
	require.True(t, errors.As(err, &dup), "expected duplicate error, got %v", err)
	assert.Equal(t, pledgeOne, dup.ID)
}

func TestProposePledgeRejectsEncumberedAssets(t *testing.T) {
	v := instantiatedView()
	v.mustDecide(t, originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetOne}, TotalAdvance: 10, AssetMarkerDenom: poolOneDenom})

	_, err := v.decide(originator, nil, domain.ProposePledge{ID: pledgeTwo, Assets: []string{assetTwo, assetOne}, TotalAdvance: 10, AssetMarkerDenom: poolTwoDenom})
	assert.ErrorIs(t, err, domain.ErrAssetsAlreadyPledged)
	_, exists := v.pledges[pledgeTwo]
	assert.False(t, exists)
}

func TestPledgeStateLegality(t *testing.T) {
	type step func(v *fakeView) (Decision, error)
	accept := func(v *fakeView) (Decision, error) {
		return v.decide(warehouse, cash(100), domain.AcceptPledge{ID: pledgeOne})
	}
	cancel := func(v *fakeView) (Decision, error) {
		return v.decide(originator, nil, domain.CancelPledge{ID: pledgeOne})
	}
	execute := func(v *fakeView) (Decision, error) {
		return v.decide(originator, nil, domain.ExecutePledge{ID: pledgeOne})
	}
	statuses := []domain.PledgeStatus{
		domain.PledgeProposed, domain.PledgeAccepted, domain.PledgeCancelled, domain.PledgeExecuted, domain.PledgeClosed,
	}
	legal := map[string]map[domain.PledgeStatus]bool{
		"accept":  {domain.PledgeProposed: true},
		"cancel":  {domain.PledgeProposed: true, domain.PledgeAccepted: true},
		"execute": {domain.PledgeAccepted: true},
	}
	steps := map[string]step{"accept": accept, "cancel": cancel, "execute": execute}

	for name, run := range steps {
		for _, status := range statuses {
			t.Run(name+"/"+string(status), func(t *testing.T) {
				v := instantiatedView()
				v.pledges[pledgeOne] = domain.Pledge{ID: pledgeOne, Assets: []string{assetOne}, TotalAdvance: 100, AssetMarkerDenom: poolOneDenom, Status: status}
				_, err := run(v)
				if legal[name][status] {
					assert.NoError(t, err)
					return
				}
				var stateErr domain.StateError
				assert.True(t, errors.As(err, &stateErr), "expected state error, got %v", err)
				assert.Equal(t, status, v.pledges[pledgeOne].Status)
			})
		}
	}
}

func TestAcceptPledgeRequiresExactFunds(t *testing.T) {
	cases := []struct {
		name  string
		funds []domain.Coin
		check func(t *testing.T, err error)
	}{
		{
			name:  "missing",
			funds: nil,
			check: func(t *testing.T, err error) {
				var missing domain.MissingFundsError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, domain.FlowPledgeAdvance, missing.Flow)
			},
		},
		{
			name:  "short",
			funds: cash(999),
			check: func(t *testing.T, err error) {
				var short domain.InsufficientFundsError
				require.True(t, errors.As(err, &short))
				assert.Equal(t, domain.InsufficientFundsError{Flow: domain.FlowPledgeAdvance, Need: 1000, NeedDenom: stablecoin, Received: 999, ReceivedDenom: stablecoin}, short)
			},
		},
		{
			name:  "over",
			funds: cash(1001),
			check: func(t *testing.T, err error) {
				var short domain.InsufficientFundsError
				require.True(t, errors.As(err, &short))
				assert.Equal(t, uint64(1001), short.Received)
			},
		},
		{
			name:  "wrong denom",
			funds: []domain.Coin{{Denom: "nhash", Amount: 1000}},
			check: func(t *testing.T, err error) {
				var short domain.InsufficientFundsError
				require.True(t, errors.As(err, &short))
				assert.Equal(t, "nhash", short.ReceivedDenom)
			},
		},
		{
			name:  "extra coin",
			funds: append(cash(1000), domain.Coin{Denom: "nhash", Amount: 1}),
			check: func(t *testing.T, err error) {
				var short domain.InsufficientFundsError
				require.True(t, errors.As(err, &short))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := instantiatedView()
			v.mustDecide(t, originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetOne}, TotalAdvance: 1000, AssetMarkerDenom: poolOneDenom})
			_, err := v.decide(warehouse, tc.funds, domain.AcceptPledge{ID: pledgeOne})
			tc.check(t, err)
			assert.Equal(t, domain.PledgeProposed, v.pledges[pledgeOne].Status)
		})
	}
}

func TestUnauthorizedAcceptFailsBeforeStateIsRead(t *testing.T) {
	v := &countingView{fakeView: instantiatedView()}
	_, err := Decide(v, domain.Env{ContractAddress: contract}, domain.MessageInfo{Sender: originator, Funds: cash(1000)}, domain.AcceptPledge{ID: pledgeOne})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, v.entityReads)
}

func TestDecideRequiresInstantiation(t *testing.T) {
	_, err := newFakeView().decide(originator, nil, domain.AcceptPledge{ID: pledgeOne})
	assert.ErrorIs(t, err, domain.ErrNotInstantiated)
}

func TestMissingPledgeIsNotFound(t *testing.T) {
	_, err := instantiatedView().decide(originator, nil, domain.ExecutePledge{ID: pledgeOne})
	var notFound domain.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, domain.NotFoundError{Entity: domain.EntityPledge, ID: pledgeOne}, notFound)
}

// countingView records reads of pledge, paydown and asset records.
type countingView struct {
	*fakeView
	entityReads int
}

func (v *countingView) FindPledge(id string) (domain.Pledge, bool) {
	v.entityReads++
	return v.fakeView.FindPledge(id)
}

func (v *countingView) FindPaydown(id string) (domain.Paydown, bool) {
	v.entityReads++
	return v.fakeView.FindPaydown(id)
}

func (v *countingView) FindAsset(id string) (domain.Asset, bool) {
	v.entityReads++
	return v.fakeView.FindAsset(id)
}
