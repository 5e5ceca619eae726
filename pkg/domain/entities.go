// Package domain defines the persistent entities, effect instructions, messages,
// and rule evaluation primitives shared by the warehouse facility core.
package domain

import "time"

// EntityType identifies the type of record stored in the facility state.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityContract identifies the singleton contract info record.
	EntityContract EntityType = "contract"
	// EntityPledge identifies a pledge record.
	EntityPledge EntityType = "pledge"
	// EntityPaydown identifies a paydown record.
	EntityPaydown EntityType = "paydown"
	// EntityAsset identifies an asset custody record.
	EntityAsset EntityType = "asset"
	// EntityEffectBatch identifies an outbox batch of effects.
	EntityEffectBatch EntityType = "effect_batch"
)

// PledgeStatus enumerates the pledge lifecycle states.
type PledgeStatus string

// Canonical pledge statuses.
const (
	// PledgeProposed indicates the originator proposed the pledge.
	PledgeProposed PledgeStatus = "proposed"
	// PledgeAccepted indicates the warehouse escrowed the advance.
	PledgeAccepted PledgeStatus = "accepted"
	// PledgeCancelled indicates the originator withdrew the pledge.
	PledgeCancelled PledgeStatus = "cancelled"
	// PledgeExecuted indicates the advance was disbursed to the originator.
	PledgeExecuted PledgeStatus = "executed"
	// PledgeClosed indicates every pledged asset was paid down.
	PledgeClosed PledgeStatus = "closed"
)

// PaydownStatus enumerates the paydown lifecycle states.
type PaydownStatus string

// Canonical paydown statuses.
const (
	PaydownProposed  PaydownStatus = "proposed"
	PaydownAccepted  PaydownStatus = "accepted"
	PaydownCancelled PaydownStatus = "cancelled"
	PaydownExecuted  PaydownStatus = "executed"
)

// AssetStatus tracks which lifecycle an asset currently participates in.
type AssetStatus string

// Canonical asset statuses.
const (
	AssetPledgeProposed  AssetStatus = "pledge_proposed"
	AssetInventory       AssetStatus = "inventory"
	AssetPaydownProposed AssetStatus = "paydown_proposed"
)

// Valid reports whether s is a known pledge status.
func (s PledgeStatus) Valid() bool {
	switch s {
	case PledgeProposed, PledgeAccepted, PledgeCancelled, PledgeExecuted, PledgeClosed:
		return true
	}
	return false
}

// Valid reports whether s is a known paydown status.
func (s PaydownStatus) Valid() bool {
	switch s {
	case PaydownProposed, PaydownAccepted, PaydownCancelled, PaydownExecuted:
		return true
	}
	return false
}

// Valid reports whether s is a known asset status.
func (s AssetStatus) Valid() bool {
	switch s {
	case AssetPledgeProposed, AssetInventory, AssetPaydownProposed:
		return true
	}
	return false
}

// Facility holds the immutable agreement parameters between the originator and
// the warehouse.
type Facility struct {
	// Originator is the address of the party pledging assets.
	Originator string `json:"originator" yaml:"originator"`
	// Warehouse is the address of the party advancing cash.
	Warehouse string `json:"warehouse" yaml:"warehouse"`
	// EscrowMarker names the escrow custody identity. It is configuration only:
	// escrowed cash stays in the contract's own holding.
	EscrowMarker string `json:"escrow_marker" yaml:"escrow_marker"`
	// MarkerDenom is the fractional ownership denom minted at instantiation.
	MarkerDenom string `json:"marker_denom" yaml:"marker_denom"`
	// StablecoinDenom is the cash denom used for advances and paydowns.
	StablecoinDenom string `json:"stablecoin_denom" yaml:"stablecoin_denom"`
	// AdvanceRate is a percentage, for example "75.125".
	AdvanceRate string `json:"advance_rate" yaml:"advance_rate"`
	// PaydownRate is a percentage, for example "102.25".
	PaydownRate string `json:"paydown_rate" yaml:"paydown_rate"`
}

// ContractInfo is the singleton record written at instantiation.
type ContractInfo struct {
	Admin           string   `json:"admin"`
	BindName        string   `json:"bind_name"`
	ContractName    string   `json:"contract_name"`
	Version         string   `json:"version"`
	ContractType    string   `json:"contract_type"`
	ContractVersion string   `json:"contract_version"`
	Facility        Facility `json:"facility"`
}

// Pledge encumbers a set of assets in exchange for a cash advance.
type Pledge struct {
	ID               string       `json:"id"`
	Assets           []string     `json:"assets"`
	TotalAdvance     uint64       `json:"total_advance"`
	AssetMarkerDenom string       `json:"asset_marker_denom"`
	Status           PledgeStatus `json:"status"`
}

// Paydown returns cash to release previously pledged assets.
type Paydown struct {
	ID           string        `json:"id"`
	Assets       []string      `json:"assets"`
	TotalPaydown uint64        `json:"total_paydown"`
	Status       PaydownStatus `json:"status"`
}

// Asset records which lifecycle currently holds an asset identifier.
type Asset struct {
	ID        string      `json:"id"`
	Status    AssetStatus `json:"status"`
	PledgeID  string      `json:"pledge_id,omitempty"`
	PaydownID string      `json:"paydown_id,omitempty"`
}

// EffectBatch is an outbox entry holding the effects of one committed action.
type EffectBatch struct {
	Sequence   uint64    `json:"sequence"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id,omitempty"`
	Effects    []Effect  `json:"effects"`
	Dispatched bool      `json:"dispatched"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasAsset reports whether the pledge covers the asset identifier.
func (p Pledge) HasAsset(id string) bool {
	return containsString(p.Assets, id)
}

// HasAsset reports whether the paydown covers the asset identifier.
func (p Paydown) HasAsset(id string) bool {
	return containsString(p.Assets, id)
}

func containsString(values []string, id string) bool {
	for _, v := range values {
		if v == id {
			return true
		}
	}
	return false
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured in the audit trail.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
