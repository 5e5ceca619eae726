package core

import (
	"context"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// GetContractInfo returns the contract info written at instantiation.
func (s *Service) GetContractInfo(ctx context.Context) (domain.ContractInfo, error) {
	var info domain.ContractInfo
	err := s.query(ctx, "get_contract_info", func(view TransactionView) error {
		var ok bool
		if info, ok = view.ContractInfo(); !ok {
			return domain.ErrNotInstantiated
		}
		return nil
	})
	return info, err
}

// GetFacility returns the immutable facility agreement.
func (s *Service) GetFacility(ctx context.Context) (domain.Facility, error) {
	info, err := s.GetContractInfo(ctx)
	if err != nil {
		return domain.Facility{}, err
	}
	return info.Facility, nil
}

// GetPledge looks up a single pledge.
func (s *Service) GetPledge(ctx context.Context, id string) (domain.Pledge, error) {
	var pledge domain.Pledge
	err := s.query(ctx, "get_pledge", func(view TransactionView) error {
		var ok bool
		if pledge, ok = view.FindPledge(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityPledge, ID: id}
		}
		return nil
	})
	return pledge, err
}

// ListPledges returns pledges matching opts in ascending ID order.
func (s *Service) ListPledges(ctx context.Context, opts domain.ListOptions) ([]domain.Pledge, error) {
	if opts.Status != "" && !domain.PledgeStatus(opts.Status).Valid() {
		return nil, domain.InvalidFieldsError{Fields: []string{"status"}}
	}
	var out []domain.Pledge
	err := s.query(ctx, "list_pledges", func(view TransactionView) error {
		out = view.ListPledges(opts)
		return nil
	})
	return out, err
}

// ListPledgeIDs is ListPledges projected to identifiers.
func (s *Service) ListPledgeIDs(ctx context.Context, opts domain.ListOptions) ([]string, error) {
	pledges, err := s.ListPledges(ctx, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pledges))
	for _, p := range pledges {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetPaydown looks up a single paydown.
func (s *Service) GetPaydown(ctx context.Context, id string) (domain.Paydown, error) {
	var paydown domain.Paydown
	err := s.query(ctx, "get_paydown", func(view TransactionView) error {
		var ok bool
		if paydown, ok = view.FindPaydown(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityPaydown, ID: id}
		}
		return nil
	})
	return paydown, err
}

// ListPaydowns returns paydowns matching opts in ascending ID order.
func (s *Service) ListPaydowns(ctx context.Context, opts domain.ListOptions) ([]domain.Paydown, error) {
	if opts.Status != "" && !domain.PaydownStatus(opts.Status).Valid() {
		return nil, domain.InvalidFieldsError{Fields: []string{"status"}}
	}
	var out []domain.Paydown
	err := s.query(ctx, "list_paydowns", func(view TransactionView) error {
		out = view.ListPaydowns(opts)
		return nil
	})
	return out, err
}

// ListPaydownIDs is ListPaydowns projected to identifiers.
func (s *Service) ListPaydownIDs(ctx context.Context, opts domain.ListOptions) ([]string, error) {
	paydowns, err := s.ListPaydowns(ctx, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(paydowns))
	for _, p := range paydowns {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetAsset looks up the custody record of an asset.
func (s *Service) GetAsset(ctx context.Context, id string) (domain.Asset, error) {
	var asset domain.Asset
	err := s.query(ctx, "get_asset", func(view TransactionView) error {
		var ok bool
		if asset, ok = view.FindAsset(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityAsset, ID: id}
		}
		return nil
	})
	return asset, err
}

// ListAssets returns asset records matching opts in ascending ID order.
func (s *Service) ListAssets(ctx context.Context, opts domain.ListOptions) ([]domain.Asset, error) {
	if opts.Status != "" && !domain.AssetStatus(opts.Status).Valid() {
		return nil, domain.InvalidFieldsError{Fields: []string{"status"}}
	}
	var out []domain.Asset
	err := s.query(ctx, "list_assets", func(view TransactionView) error {
		out = view.ListAssets(opts)
		return nil
	})
	return out, err
}

// ListAssetIDs is ListAssets projected to identifiers.
func (s *Service) ListAssetIDs(ctx context.Context, opts domain.ListOptions) ([]string, error) {
	assets, err := s.ListAssets(ctx, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids, nil
}
