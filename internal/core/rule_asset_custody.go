package core

import (
	"context"
	"fmt"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// AssetCustodyRule blocks commits that leave a touched asset record pointing at
// a pledge or paydown that does not hold it in a compatible status.
func AssetCustodyRule() domain.Rule {
	return assetCustodyRule{}
}

type assetCustodyRule struct{}

func (assetCustodyRule) Name() string { return "asset_custody" }

func (r assetCustodyRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	seen := make(map[string]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityAsset {
			continue
		}
		after, ok := domain.DecodeChangePayload[domain.Asset](change.After)
		if !ok {
			continue
		}
		if _, dup := seen[after.ID]; dup {
			continue
		}
		seen[after.ID] = struct{}{}
		asset, ok := view.FindAsset(after.ID)
		if !ok {
			continue
		}
		if msg := r.check(view, asset); msg != "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  msg,
				Entity:   domain.EntityAsset,
				EntityID: asset.ID,
			})
		}
	}
	return res, nil
}

func (assetCustodyRule) check(view domain.TransactionView, asset domain.Asset) string {
	pledge, ok := view.FindPledge(asset.PledgeID)
	if !ok || !pledge.HasAsset(asset.ID) {
		return fmt.Sprintf("asset %s is not covered by pledge %q", asset.ID, asset.PledgeID)
	}
	switch asset.Status {
	case domain.AssetPledgeProposed:
		if pledge.Status != domain.PledgeProposed && pledge.Status != domain.PledgeAccepted {
			return fmt.Sprintf("asset %s is pledge_proposed but pledge %s is %s", asset.ID, pledge.ID, pledge.Status)
		}
	case domain.AssetInventory:
		if pledge.Status != domain.PledgeExecuted {
			return fmt.Sprintf("asset %s is in inventory but pledge %s is %s", asset.ID, pledge.ID, pledge.Status)
		}
		if asset.PaydownID != "" {
			return fmt.Sprintf("asset %s is in inventory but still references paydown %s", asset.ID, asset.PaydownID)
		}
	case domain.AssetPaydownProposed:
		paydown, ok := view.FindPaydown(asset.PaydownID)
		if !ok || !paydown.HasAsset(asset.ID) {
			return fmt.Sprintf("asset %s is not covered by paydown %q", asset.ID, asset.PaydownID)
		}
		if paydown.Status != domain.PaydownProposed && paydown.Status != domain.PaydownAccepted {
			return fmt.Sprintf("asset %s is paydown_proposed but paydown %s is %s", asset.ID, paydown.ID, paydown.Status)
		}
	}
	return ""
}
