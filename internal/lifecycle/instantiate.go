package lifecycle

import "github.com/provenance-io/warehouse-facility/pkg/domain"

// Instantiate records contract info and mints the facility marker split
// between the warehouse and the originator.
func Instantiate(view domain.TransactionView, env domain.Env, info domain.MessageInfo, msg domain.InstantiateMsg, version string) (Decision, error) {
	if err := ValidateInstantiate(msg); err != nil {
		return Decision{}, err
	}
	if _, exists := view.ContractInfo(); exists {
		return Decision{}, domain.ErrAlreadyInstantiated
	}
	supply, err := SplitSupply(msg.Facility.AdvanceRate)
	if err != nil {
		return Decision{}, domain.InvalidFieldsError{Fields: []string{"facility.advance_rate"}}
	}
	contract := domain.ContractInfo{
		Admin:           info.Sender,
		BindName:        msg.BindName,
		ContractName:    msg.ContractName,
		Version:         version,
		ContractType:    domain.ContractType,
		ContractVersion: version,
		Facility:        msg.Facility,
	}
	denom := msg.Facility.MarkerDenom
	effects := []domain.Effect{
		domain.BindName(msg.BindName, env.ContractAddress, true),
		domain.CreateMarker(supply.Total, denom, domain.MarkerRestricted),
		domain.GrantMarkerAccess(denom, env.ContractAddress,
			domain.AccessAdmin, domain.AccessDelete, domain.AccessDeposit, domain.AccessTransfer, domain.AccessWithdraw),
		domain.FinalizeMarker(denom),
		domain.ActivateMarker(denom),
		domain.WithdrawCoins(denom, supply.Warehouse, msg.Facility.Warehouse),
		domain.WithdrawCoins(denom, supply.Originator, msg.Facility.Originator),
	}
	return Decision{
		Action:   domain.ActionInstantiate,
		Contract: &contract,
		Effects:  effects,
		Data:     contract,
	}, nil
}

// Migrate rewrites the contract version and leaves every other field untouched.
func Migrate(view domain.TransactionView, version string) (Decision, error) {
	contract, ok := view.ContractInfo()
	if !ok {
		return Decision{}, domain.ErrNotInstantiated
	}
	contract.Version = version
	return Decision{
		Action:   domain.ActionMigrate,
		Contract: &contract,
		Data:     contract,
	}, nil
}
