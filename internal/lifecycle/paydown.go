package lifecycle

import (
	"sort"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

func loadPaydown(view domain.TransactionView, id string) (domain.Paydown, error) {
	paydown, ok := view.FindPaydown(id)
	if !ok {
		return domain.Paydown{}, domain.NotFoundError{Entity: domain.EntityPaydown, ID: id}
	}
	return paydown, nil
}

func proposePaydown(c call, msg domain.ProposePaydown) (Decision, error) {
	if _, exists := c.view.FindPaydown(msg.ID); exists {
		return Decision{}, domain.PaydownAlreadyExistsError{ID: msg.ID}
	}
	assets := make([]domain.Asset, 0, len(msg.Assets))
	for _, id := range msg.Assets {
		asset, ok := c.view.FindAsset(id)
		if !ok || asset.Status != domain.AssetInventory {
			return Decision{}, domain.ErrAssetsNotInInventory
		}
		asset.Status = domain.AssetPaydownProposed
		asset.PaydownID = msg.ID
		assets = append(assets, asset)
	}
	if err := requireFunds(domain.FlowPaydown, c.info.Funds, msg.TotalPaydown, c.facility.StablecoinDenom); err != nil {
		return Decision{}, err
	}
	paydown := domain.Paydown{
		ID:           msg.ID,
		Assets:       append([]string(nil), msg.Assets...),
		TotalPaydown: msg.TotalPaydown,
		Status:       domain.PaydownProposed,
	}
	return Decision{
		Action:       string(domain.MsgProposePaydown),
		EntityID:     paydown.ID,
		Paydowns:     []domain.Paydown{paydown},
		AssetUpserts: assets,
		Data:         paydown,
	}, nil
}

func acceptPaydown(c call, msg domain.AcceptPaydown) (Decision, error) {
	paydown, err := loadPaydown(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	if paydown.Status != domain.PaydownProposed {
		return Decision{}, domain.StateError{Message: "Unable to accept paydown: Paydown is not in the 'proposed' state."}
	}
	paydown.Status = domain.PaydownAccepted
	return Decision{
		Action:   string(domain.MsgAcceptPaydown),
		EntityID: paydown.ID,
		Paydowns: []domain.Paydown{paydown},
		Data:     paydown,
	}, nil
}

func cancelPaydown(c call, msg domain.CancelPaydown) (Decision, error) {
	paydown, err := loadPaydown(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	if paydown.Status != domain.PaydownProposed && paydown.Status != domain.PaydownAccepted {
		return Decision{}, domain.StateError{Message: "Unable to cancel paydown: Paydown is not in the 'proposed' or 'accepted' state."}
	}
	var restored []domain.Asset
	for _, asset := range lockedAssets(c.view, paydown) {
		asset.Status = domain.AssetInventory
		asset.PaydownID = ""
		restored = append(restored, asset)
	}
	paydown.Status = domain.PaydownCancelled
	return Decision{
		Action:       string(domain.MsgCancelPaydown),
		EntityID:     paydown.ID,
		Paydowns:     []domain.Paydown{paydown},
		AssetUpserts: restored,
		Effects: []domain.Effect{
			domain.BankSend(c.facility.Originator, domain.Coin{
				Denom:  c.facility.StablecoinDenom,
				Amount: paydown.TotalPaydown,
			}),
		},
		Data: paydown,
	}, nil
}

func executePaydown(c call, msg domain.ExecutePaydown) (Decision, error) {
	paydown, err := loadPaydown(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	if paydown.Status != domain.PaydownAccepted {
		return Decision{}, domain.StateError{Message: "Unable to execute paydown: Paydown is not in the 'accepted' state."}
	}
	locked := lockedAssets(c.view, paydown)
	released := make(map[string]struct{}, len(locked))
	pledgeIDs := make(map[string]struct{})
	var deletes []string
	for _, asset := range locked {
		released[asset.ID] = struct{}{}
		deletes = append(deletes, asset.ID)
		if asset.PledgeID != "" {
			pledgeIDs[asset.PledgeID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(pledgeIDs))
	for id := range pledgeIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		effects []domain.Effect
		closed  []domain.Pledge
	)
	for _, id := range ids {
		pledge, ok := c.view.FindPledge(id)
		if !ok || pledge.Status != domain.PledgeExecuted || !fullyReleased(c.view, pledge, released) {
			continue
		}
		effects = append(effects, releasePledgeMarker(c.facility, pledge)...)
		pledge.Status = domain.PledgeClosed
		closed = append(closed, pledge)
	}
	effects = append(effects, domain.BankSend(c.facility.Warehouse, domain.Coin{
		Denom:  c.facility.StablecoinDenom,
		Amount: paydown.TotalPaydown,
	}))

	paydown.Status = domain.PaydownExecuted
	return Decision{
		Action:       string(domain.MsgExecutePaydown),
		EntityID:     paydown.ID,
		Pledges:      closed,
		Paydowns:     []domain.Paydown{paydown},
		AssetDeletes: deletes,
		Effects:      effects,
		Data:         paydown,
	}, nil
}

// lockedAssets returns the asset records currently held by the paydown.
func lockedAssets(view domain.TransactionView, paydown domain.Paydown) []domain.Asset {
	var out []domain.Asset
	for _, id := range paydown.Assets {
		asset, ok := view.FindAsset(id)
		if ok && asset.Status == domain.AssetPaydownProposed && asset.PaydownID == paydown.ID {
			out = append(out, asset)
		}
	}
	return out
}

// fullyReleased reports whether every asset of the pledge is released, either
// already or by the paydown being executed.
func fullyReleased(view domain.TransactionView, pledge domain.Pledge, releasing map[string]struct{}) bool {
	for _, id := range pledge.Assets {
		if _, ok := releasing[id]; ok {
			continue
		}
		if asset, held := view.FindAsset(id); held && asset.PledgeID == pledge.ID {
			return false
		}
	}
	return true
}
