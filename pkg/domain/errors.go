package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions that carry no detail.
var (
	// ErrUnauthorized is returned when the sender is not the role entitled to the action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAssetsAlreadyPledged is returned when a proposed pledge touches an encumbered asset.
	ErrAssetsAlreadyPledged = errors.New("cannot propose pledge: one or more assets has already been pledged or is in the inventory")
	// ErrAssetsNotInInventory is returned when a proposed paydown touches an asset outside inventory.
	ErrAssetsNotInInventory = errors.New("cannot propose paydown: assets not in inventory")
	// ErrAlreadyInstantiated is returned when instantiation runs twice.
	ErrAlreadyInstantiated = errors.New("facility already instantiated")
	// ErrNotInstantiated is returned when actions arrive before instantiation.
	ErrNotInstantiated = errors.New("facility not instantiated")
	// ErrMalformedMessage is returned when a tagged message cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")
)

// InvalidFieldsError enumerates every structurally invalid field of a message.
type InvalidFieldsError struct {
	Fields []string
}

func (e InvalidFieldsError) Error() string {
	return fmt.Sprintf("invalid fields: [%s]", strings.Join(e.Fields, ", "))
}

// NotFoundError is returned when a referenced entity is absent.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("no such %s: %s", e.Entity, e.ID)
}

// StateError is returned when an action is attempted from a status that does not permit it.
type StateError struct {
	Message string
}

func (e StateError) Error() string {
	return "state error: " + e.Message
}

// PledgeAlreadyExistsError is returned when a pledge identifier is reused.
type PledgeAlreadyExistsError struct {
	ID string
}

func (e PledgeAlreadyExistsError) Error() string {
	return fmt.Sprintf("pledge already exists: %q", e.ID)
}

// PaydownAlreadyExistsError is returned when a paydown identifier is reused.
type PaydownAlreadyExistsError struct {
	ID string
}

func (e PaydownAlreadyExistsError) Error() string {
	return fmt.Sprintf("paydown already exists: %q", e.ID)
}

// FundsFlow names the lifecycle step that requires attached funds.
type FundsFlow string

// Flows that require attached funds.
const (
	FlowPledgeAdvance FundsFlow = "pledge_advance"
	FlowPaydown       FundsFlow = "paydown"
)

func (f FundsFlow) operation() string {
	if f == FlowPaydown {
		return "propose paydown"
	}
	return "accept pledge"
}

// MissingFundsError is returned when no funds were attached to an action that requires them.
type MissingFundsError struct {
	Flow FundsFlow
}

func (e MissingFundsError) Error() string {
	if e.Flow == FlowPaydown {
		return "cannot propose paydown: missing paydown funds"
	}
	return "cannot accept pledge: missing pledge advance funds"
}

// InsufficientFundsError reports attached funds that do not exactly match the requirement.
type InsufficientFundsError struct {
	Flow          FundsFlow
	Need          uint64
	NeedDenom     string
	Received      uint64
	ReceivedDenom string
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("cannot %s: insufficient funds: need %d %q, received %d %q",
		e.Flow.operation(), e.Need, e.NeedDenom, e.Received, e.ReceivedDenom)
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Message)
		}
	}
	if len(msgs) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}

// ErrorCode maps an error to a stable identifier for transports.
func ErrorCode(err error) string {
	var (
		invalid  InvalidFieldsError
		notFound NotFoundError
		state    StateError
		pledge   PledgeAlreadyExistsError
		paydown  PaydownAlreadyExistsError
		missing  MissingFundsError
		short    InsufficientFundsError
		rules    RuleViolationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return "INVALID_FIELDS"
	case errors.Is(err, ErrMalformedMessage):
		return "MALFORMED_MESSAGE"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.As(err, &notFound), errors.Is(err, ErrNotInstantiated):
		return "NOT_FOUND"
	case errors.As(err, &state):
		return "STATE_ERROR"
	case errors.As(err, &pledge), errors.As(err, &paydown), errors.Is(err, ErrAlreadyInstantiated):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrAssetsAlreadyPledged), errors.Is(err, ErrAssetsNotInInventory):
		return "ASSET_CONFLICT"
	case errors.As(err, &missing):
		return "MISSING_FUNDS"
	case errors.As(err, &short):
		return "INSUFFICIENT_FUNDS"
	case errors.As(err, &rules):
		return "RULE_VIOLATION"
	default:
		return "INTERNAL"
	}
}
