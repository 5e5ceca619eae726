package domain

// EffectKind names an instruction handed to an external collaborator.
type EffectKind string

// Effect kinds grouped by the collaborator that executes them.
const (
	// EffectBindName asks the name service to bind a name to the contract.
	EffectBindName EffectKind = "bind_name"

	EffectCreateMarker        EffectKind = "create_marker"
	EffectGrantMarkerAccess   EffectKind = "grant_marker_access"
	EffectFinalizeMarker      EffectKind = "finalize_marker"
	EffectActivateMarker      EffectKind = "activate_marker"
	EffectWithdrawCoins       EffectKind = "withdraw_coins"
	EffectTransferMarkerCoins EffectKind = "transfer_marker_coins"
	EffectCancelMarker        EffectKind = "cancel_marker"
	EffectDestroyMarker       EffectKind = "destroy_marker"

	// EffectBankSend moves cash from contract escrow to a party.
	EffectBankSend EffectKind = "bank_send"
)

// Collaborator identifies which external subsystem executes an effect.
type Collaborator string

// Known collaborators.
const (
	CollaboratorName    Collaborator = "name"
	CollaboratorCustody Collaborator = "custody"
	CollaboratorBank    Collaborator = "bank"
)

// MarkerAccess is a capability granted on a custody marker.
type MarkerAccess string

// Marker capabilities.
const (
	AccessAdmin    MarkerAccess = "admin"
	AccessBurn     MarkerAccess = "burn"
	AccessDelete   MarkerAccess = "delete"
	AccessDeposit  MarkerAccess = "deposit"
	AccessMint     MarkerAccess = "mint"
	AccessTransfer MarkerAccess = "transfer"
	AccessWithdraw MarkerAccess = "withdraw"
)

// MarkerType selects whether marker holdings are transfer restricted.
type MarkerType string

// Marker types.
const (
	MarkerRestricted MarkerType = "restricted"
	MarkerCoin       MarkerType = "coin"
)

// Coin is an amount of a denom in minor units.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// Effect is a single instruction for a custody, bank, or name collaborator.
// Which fields are populated depends on Kind.
type Effect struct {
	Kind       EffectKind     `json:"kind"`
	Denom      string         `json:"denom,omitempty"`
	Amount     uint64         `json:"amount,omitempty"`
	MarkerType MarkerType     `json:"marker_type,omitempty"`
	Grantee    string         `json:"grantee,omitempty"`
	Access     []MarkerAccess `json:"access,omitempty"`
	From       string         `json:"from,omitempty"`
	To         string         `json:"to,omitempty"`
	// ToMarker names a marker whose own account receives the coins. The custody
	// collaborator resolves the account address.
	ToMarker   string         `json:"to_marker,omitempty"`
	Name       string         `json:"name,omitempty"`
	Restricted bool           `json:"restricted,omitempty"`
}

// Collaborator returns the subsystem responsible for executing the effect.
func (e Effect) Collaborator() Collaborator {
	switch e.Kind {
	case EffectBindName:
		return CollaboratorName
	case EffectBankSend:
		return CollaboratorBank
	default:
		return CollaboratorCustody
	}
}

// IsFundMovement reports whether the effect moves cash.
func (e Effect) IsFundMovement() bool {
	return e.Kind == EffectBankSend
}

// BindName binds name to address with the name service.
func BindName(name, address string, restricted bool) Effect {
	return Effect{Kind: EffectBindName, Name: name, To: address, Restricted: restricted}
}

// CreateMarker creates a marker with a fixed supply.
func CreateMarker(supply uint64, denom string, markerType MarkerType) Effect {
	return Effect{Kind: EffectCreateMarker, Denom: denom, Amount: supply, MarkerType: markerType}
}

// GrantMarkerAccess grants capabilities on denom to grantee.
func GrantMarkerAccess(denom, grantee string, access ...MarkerAccess) Effect {
	return Effect{Kind: EffectGrantMarkerAccess, Denom: denom, Grantee: grantee, Access: append([]MarkerAccess(nil), access...)}
}

// FinalizeMarker finalizes a proposed marker.
func FinalizeMarker(denom string) Effect {
	return Effect{Kind: EffectFinalizeMarker, Denom: denom}
}

// ActivateMarker activates a finalized marker, minting its supply.
func ActivateMarker(denom string) Effect {
	return Effect{Kind: EffectActivateMarker, Denom: denom}
}

// WithdrawCoins withdraws amount of the marker's own denom to recipient.
func WithdrawCoins(denom string, amount uint64, recipient string) Effect {
	return Effect{Kind: EffectWithdrawCoins, Denom: denom, Amount: amount, To: recipient}
}

// TransferMarkerCoins moves restricted coins from an account back into the
// account of the marker named by toMarker.
func TransferMarkerCoins(amount uint64, denom, toMarker, from string) Effect {
	return Effect{Kind: EffectTransferMarkerCoins, Denom: denom, Amount: amount, ToMarker: toMarker, From: from}
}

// CancelMarker cancels an active marker.
func CancelMarker(denom string) Effect {
	return Effect{Kind: EffectCancelMarker, Denom: denom}
}

// DestroyMarker destroys a cancelled marker.
func DestroyMarker(denom string) Effect {
	return Effect{Kind: EffectDestroyMarker, Denom: denom}
}

// BankSend sends coin from contract escrow to address.
func BankSend(address string, coin Coin) Effect {
	return Effect{Kind: EffectBankSend, To: address, Denom: coin.Denom, Amount: coin.Amount}
}
