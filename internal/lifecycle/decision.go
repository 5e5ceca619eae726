// Package lifecycle implements the pledge and paydown state machines as pure
// functions from (state view, facility, action) to a Decision. Nothing here
// performs I/O; callers persist the decision and deliver its effects.
package lifecycle

import (
	"encoding/json"
	"fmt"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Decision is the outcome of handling one message against a state view.
type Decision struct {
	// Action is the observability tag for the outcome, for example "accept_pledge".
	Action string
	// EntityID is the pledge or paydown the action addressed.
	EntityID string
	// Contract replaces the contract info record when set.
	Contract *domain.ContractInfo
	// Pledges are written as-is; new IDs are created, existing ones replaced.
	Pledges  []domain.Pledge
	Paydowns []domain.Paydown
	// AssetUpserts are written before AssetDeletes are removed.
	AssetUpserts []domain.Asset
	AssetDeletes []string
	// Effects are ordered; custody effects always precede fund movements.
	Effects []domain.Effect
	// Data is the entity returned to the caller.
	Data any
}

// Response renders the caller-facing response for the decision.
func (d Decision) Response() (domain.Response, error) {
	resp := domain.Response{Action: d.Action, Effects: d.Effects}
	if resp.Effects == nil {
		resp.Effects = []domain.Effect{}
	}
	if d.Data != nil {
		raw, err := json.Marshal(d.Data)
		if err != nil {
			return domain.Response{}, fmt.Errorf("encode %s response: %w", d.Action, err)
		}
		resp.Data = raw
	}
	return resp, nil
}

// CustodyBeforeFunds reports whether no custody or name effect follows a fund movement.
func CustodyBeforeFunds(effects []domain.Effect) bool {
	seenFunds := false
	for _, e := range effects {
		if e.IsFundMovement() {
			seenFunds = true
			continue
		}
		if seenFunds {
			return false
		}
	}
	return true
}

// Decide validates, authorizes and dispatches msg to its handler. Validation and
// authorization complete before any pledge, paydown or asset record is read.
func Decide(view domain.TransactionView, env domain.Env, info domain.MessageInfo, msg domain.ExecuteMsg) (Decision, error) {
	if err := Validate(msg); err != nil {
		return Decision{}, err
	}
	contract, ok := view.ContractInfo()
	if !ok {
		return Decision{}, domain.ErrNotInstantiated
	}
	if err := Authorize(contract.Facility, info.Sender, msg); err != nil {
		return Decision{}, err
	}
	c := call{view: view, env: env, info: info, facility: contract.Facility}
	switch m := msg.(type) {
	case domain.ProposePledge:
		return proposePledge(c, m)
	case domain.AcceptPledge:
		return acceptPledge(c, m)
	case domain.CancelPledge:
		return cancelPledge(c, m)
	case domain.ExecutePledge:
		return executePledge(c, m)
	case domain.ProposePaydown:
		return proposePaydown(c, m)
	case domain.AcceptPaydown:
		return acceptPaydown(c, m)
	case domain.CancelPaydown:
		return cancelPaydown(c, m)
	case domain.ExecutePaydown:
		return executePaydown(c, m)
	}
	return Decision{}, fmt.Errorf("%w: unsupported message %T", domain.ErrMalformedMessage, msg)
}

// call bundles the inputs shared by every handler.
type call struct {
	view     domain.TransactionView
	env      domain.Env
	info     domain.MessageInfo
	facility domain.Facility
}

// requireFunds checks that exactly one coin of need/denom is attached.
func requireFunds(flow domain.FundsFlow, funds []domain.Coin, need uint64, denom string) error {
	if len(funds) == 0 {
		return domain.MissingFundsError{Flow: flow}
	}
	got := funds[0]
	if len(funds) != 1 || got.Denom != denom || got.Amount != need {
		return domain.InsufficientFundsError{
			Flow:          flow,
			Need:          need,
			NeedDenom:     denom,
			Received:      got.Amount,
			ReceivedDenom: got.Denom,
		}
	}
	return nil
}
