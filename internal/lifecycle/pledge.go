package lifecycle

import "github.com/provenance-io/warehouse-facility/pkg/domain"

var pledgeMarkerAccess = []domain.MarkerAccess{
	domain.AccessAdmin,
	domain.AccessBurn,
	domain.AccessDelete,
	domain.AccessDeposit,
	domain.AccessMint,
	domain.AccessTransfer,
	domain.AccessWithdraw,
}

func loadPledge(view domain.TransactionView, id string) (domain.Pledge, error) {
	pledge, ok := view.FindPledge(id)
	if !ok {
		return domain.Pledge{}, domain.NotFoundError{Entity: domain.EntityPledge, ID: id}
	}
	return pledge, nil
}

func proposePledge(c call, msg domain.ProposePledge) (Decision, error) {
	if _, exists := c.view.FindPledge(msg.ID); exists {
		return Decision{}, domain.PledgeAlreadyExistsError{ID: msg.ID}
	}
	assets := make([]domain.Asset, 0, len(msg.Assets))
	for _, id := range msg.Assets {
		if _, held := c.view.FindAsset(id); held {
			return Decision{}, domain.ErrAssetsAlreadyPledged
		}
		assets = append(assets, domain.Asset{ID: id, Status: domain.AssetPledgeProposed, PledgeID: msg.ID})
	}
	pledge := domain.Pledge{
		ID:               msg.ID,
		Assets:           append([]string(nil), msg.Assets...),
		TotalAdvance:     msg.TotalAdvance,
		AssetMarkerDenom: msg.AssetMarkerDenom,
		Status:           domain.PledgeProposed,
	}
	denom := msg.AssetMarkerDenom
	return Decision{
		Action:       string(domain.MsgProposePledge),
		EntityID:     pledge.ID,
		Pledges:      []domain.Pledge{pledge},
		AssetUpserts: assets,
		Effects: []domain.Effect{
			domain.CreateMarker(1, denom, domain.MarkerRestricted),
			domain.GrantMarkerAccess(denom, c.env.ContractAddress, pledgeMarkerAccess...),
			domain.FinalizeMarker(denom),
			domain.ActivateMarker(denom),
			domain.WithdrawCoins(denom, 1, c.facility.Originator),
		},
		Data: pledge,
	}, nil
}

func acceptPledge(c call, msg domain.AcceptPledge) (Decision, error) {
	pledge, err := loadPledge(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	if pledge.Status != domain.PledgeProposed {
		return Decision{}, domain.StateError{Message: "Unable to accept pledge: Pledge is not in the 'proposed' state."}
	}
	if err := requireFunds(domain.FlowPledgeAdvance, c.info.Funds, pledge.TotalAdvance, c.facility.StablecoinDenom); err != nil {
		return Decision{}, err
	}
	pledge.Status = domain.PledgeAccepted
	return Decision{
		Action:   string(domain.MsgAcceptPledge),
		EntityID: pledge.ID,
		Pledges:  []domain.Pledge{pledge},
		Data:     pledge,
	}, nil
}

func cancelPledge(c call, msg domain.CancelPledge) (Decision, error) {
	pledge, err := loadPledge(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	refund := false
	switch pledge.Status {
	case domain.PledgeProposed:
	case domain.PledgeAccepted:
		refund = true
	default:
		return Decision{}, domain.StateError{Message: "Unable to cancel pledge: Pledge is not in the 'proposed' or 'accepted' state."}
	}
	effects := releasePledgeMarker(c.facility, pledge)
	if refund {
		effects = append(effects, domain.BankSend(c.facility.Warehouse, domain.Coin{
			Denom:  c.facility.StablecoinDenom,
			Amount: pledge.TotalAdvance,
		}))
	}
	pledge.Status = domain.PledgeCancelled
	return Decision{
		Action:       string(domain.MsgCancelPledge),
		EntityID:     pledge.ID,
		Pledges:      []domain.Pledge{pledge},
		AssetDeletes: heldAssets(c.view, pledge),
		Effects:      effects,
		Data:         pledge,
	}, nil
}

func executePledge(c call, msg domain.ExecutePledge) (Decision, error) {
	pledge, err := loadPledge(c.view, msg.ID)
	if err != nil {
		return Decision{}, err
	}
	if pledge.Status != domain.PledgeAccepted {
		return Decision{}, domain.StateError{Message: "Unable to execute pledge: Pledge is not in the 'accepted' state."}
	}
	var inventory []domain.Asset
	for _, id := range heldAssets(c.view, pledge) {
		inventory = append(inventory, domain.Asset{ID: id, Status: domain.AssetInventory, PledgeID: pledge.ID})
	}
	pledge.Status = domain.PledgeExecuted
	return Decision{
		Action:       string(domain.MsgExecutePledge),
		EntityID:     pledge.ID,
		Pledges:      []domain.Pledge{pledge},
		AssetUpserts: inventory,
		Effects: []domain.Effect{
			domain.BankSend(c.facility.Originator, domain.Coin{
				Denom:  c.facility.StablecoinDenom,
				Amount: pledge.TotalAdvance,
			}),
		},
		Data: pledge,
	}, nil
}

// releasePledgeMarker returns the unit to the pool marker, then cancels and
// destroys the marker.
func releasePledgeMarker(facility domain.Facility, pledge domain.Pledge) []domain.Effect {
	denom := pledge.AssetMarkerDenom
	return []domain.Effect{
		domain.TransferMarkerCoins(1, denom, denom, facility.Originator),
		domain.CancelMarker(denom),
		domain.DestroyMarker(denom),
	}
}

// heldAssets lists the pledge's assets whose records are still owned by the pledge.
func heldAssets(view domain.TransactionView, pledge domain.Pledge) []string {
	var ids []string
	for _, id := range pledge.Assets {
		if asset, ok := view.FindAsset(id); ok && asset.PledgeID == pledge.ID {
			ids = append(ids, id)
		}
	}
	return ids
}
