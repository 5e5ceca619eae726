package domain

import (
	"encoding/json"
	"time"
)

// ContractType is recorded in ContractInfo at instantiation.
const ContractType = "warehouse-facility"

// InstantiateMsg configures a fresh facility.
type InstantiateMsg struct {
	BindName     string   `json:"bind_name" yaml:"bind_name"`
	ContractName string   `json:"contract_name" yaml:"contract_name"`
	Facility     Facility `json:"facility" yaml:"facility"`
}

// MigrateMsg carries no parameters; migration only rewrites the version.
type MigrateMsg struct{}

// MessageKind is the tag of an execute message variant.
type MessageKind string

// Execute message tags. The same strings are used as response action tags.
const (
	MsgProposePledge  MessageKind = "propose_pledge"
	MsgAcceptPledge   MessageKind = "accept_pledge"
	MsgCancelPledge   MessageKind = "cancel_pledge"
	MsgExecutePledge  MessageKind = "execute_pledge"
	MsgProposePaydown MessageKind = "propose_paydown"
	MsgAcceptPaydown  MessageKind = "accept_paydown"
	MsgCancelPaydown  MessageKind = "cancel_paydown"
	MsgExecutePaydown MessageKind = "execute_paydown"
)

// Action tags for non-execute entry points.
const (
	ActionInstantiate = "init"
	ActionMigrate     = "migrate"
)

// ExecuteMsg is one of the eight lifecycle actions.
type ExecuteMsg interface {
	Kind() MessageKind
	// TargetID returns the pledge or paydown identifier the action addresses.
	TargetID() string
}

// ProposePledge opens a pledge over a set of assets.
type ProposePledge struct {
	ID               string   `json:"id"`
	Assets           []string `json:"assets"`
	TotalAdvance     uint64   `json:"total_advance"`
	AssetMarkerDenom string   `json:"asset_marker_denom"`
}

// AcceptPledge escrows the advance for a proposed pledge.
type AcceptPledge struct {
	ID string `json:"id"`
}

// CancelPledge withdraws a pledge before execution.
type CancelPledge struct {
	ID string `json:"id"`
}

// ExecutePledge disburses the escrowed advance.
type ExecutePledge struct {
	ID string `json:"id"`
}

// ProposePaydown offers cash to release inventory assets.
type ProposePaydown struct {
	ID           string   `json:"id"`
	Assets       []string `json:"assets"`
	TotalPaydown uint64   `json:"total_paydown"`
}

// AcceptPaydown acknowledges a proposed paydown.
type AcceptPaydown struct {
	ID string `json:"id"`
}

// CancelPaydown withdraws a paydown before execution.
type CancelPaydown struct {
	ID string `json:"id"`
}

// ExecutePaydown releases the paid down assets and settles with the warehouse.
type ExecutePaydown struct {
	ID string `json:"id"`
}

func (ProposePledge) Kind() MessageKind  { return MsgProposePledge }
func (AcceptPledge) Kind() MessageKind   { return MsgAcceptPledge }
func (CancelPledge) Kind() MessageKind   { return MsgCancelPledge }
func (ExecutePledge) Kind() MessageKind  { return MsgExecutePledge }
func (ProposePaydown) Kind() MessageKind { return MsgProposePaydown }
func (AcceptPaydown) Kind() MessageKind  { return MsgAcceptPaydown }
func (CancelPaydown) Kind() MessageKind  { return MsgCancelPaydown }
func (ExecutePaydown) Kind() MessageKind { return MsgExecutePaydown }

func (m ProposePledge) TargetID() string  { return m.ID }
func (m AcceptPledge) TargetID() string   { return m.ID }
func (m CancelPledge) TargetID() string   { return m.ID }
func (m ExecutePledge) TargetID() string  { return m.ID }
func (m ProposePaydown) TargetID() string { return m.ID }
func (m AcceptPaydown) TargetID() string  { return m.ID }
func (m CancelPaydown) TargetID() string  { return m.ID }
func (m ExecutePaydown) TargetID() string { return m.ID }

// MessageInfo identifies the sender of a message and the funds attached to it.
type MessageInfo struct {
	Sender string `json:"sender"`
	Funds  []Coin `json:"funds,omitempty"`
}

// Env describes the execution environment of the contract.
type Env struct {
	ContractAddress string    `json:"contract_address"`
	BlockTime       time.Time `json:"block_time"`
}

// Response is the outcome of a committed mutation.
type Response struct {
	Action  string          `json:"action"`
	Data    json.RawMessage `json:"data,omitempty"`
	Effects []Effect        `json:"effects"`
}
