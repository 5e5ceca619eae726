package core

import (
	"context"
	"testing"
	"time"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

const (
	originator = "tp1originator"
	warehouse  = "tp1warehouse"
	contract   = "tp1contract"
	stablecoin = "usdf.c"

	pledgeOne  = "6a0a6f1e-7c8b-4f3e-9d2a-1b5c3e7f9a01"
	pledgeTwo  = "6a0a6f1e-7c8b-4f3e-9d2a-1b5c3e7f9a02"
	paydownOne = "0d3c9b7e-2a41-4c65-8f10-5e6d7c8b9a01"
	assetOne   = "f1b2c3d4-0000-4000-8000-00000000a001"
	assetTwo   = "f1b2c3d4-0000-4000-8000-00000000a002"
)

var fixedTime = time.Date(2024, 10, 1, 8, 30, 0, 0, time.UTC)

func testInstantiateMsg() domain.InstantiateMsg {
	return domain.InstantiateMsg{
		BindName:     "wf.pb",
		ContractName: "warehouse facility",
		Facility: domain.Facility{
			Originator:      originator,
			Warehouse:       warehouse,
			EscrowMarker:    "escrow.pb",
			MarkerDenom:     "facility.pb",
			StablecoinDenom: stablecoin,
			AdvanceRate:     "75.125",
			PaydownRate:     "102.25",
		},
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithContractAddress(contract),
		WithClock(ClockFunc(func() time.Time { return fixedTime })),
		WithVersion("1.2.3"),
	}, opts...)
	return NewInMemoryService(nil, opts...)
}

func instantiatedService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := newTestService(t, opts...)
	if _, err := svc.Instantiate(context.Background(), originator, testInstantiateMsg()); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return svc
}

func cash(amount uint64) []domain.Coin {
	return []domain.Coin{{Denom: stablecoin, Amount: amount}}
}

func mustExecute(t *testing.T, svc *Service, sender string, funds []domain.Coin, msg domain.ExecuteMsg) domain.Response {
	t.Helper()
	resp, err := svc.Execute(context.Background(), domain.MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		t.Fatalf("%s: %v", msg.Kind(), err)
	}
	return resp
}

// executePledgeOne drives pledgeOne over assetOne and assetTwo to executed.
func executePledgeOne(t *testing.T, svc *Service) {
	t.Helper()
	mustExecute(t, svc, originator, nil, domain.ProposePledge{ID: pledgeOne, Assets: []string{assetOne, assetTwo}, TotalAdvance: 750, AssetMarkerDenom: "pool.p1"})
	mustExecute(t, svc, warehouse, cash(750), domain.AcceptPledge{ID: pledgeOne})
	mustExecute(t, svc, originator, nil, domain.ExecutePledge{ID: pledgeOne})
}
