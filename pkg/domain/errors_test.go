package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeClassifiesWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{nil, ""},
		{InvalidFieldsError{Fields: []string{"id"}}, "INVALID_FIELDS"},
		{fmt.Errorf("decode: %w", ErrMalformedMessage), "MALFORMED_MESSAGE"},
		{fmt.Errorf("execute: %w", ErrUnauthorized), "UNAUTHORIZED"},
		{NotFoundError{Entity: EntityPledge, ID: "p1"}, "NOT_FOUND"},
		{ErrNotInstantiated, "NOT_FOUND"},
		{StateError{Message: "not accepted"}, "STATE_ERROR"},
		{PledgeAlreadyExistsError{ID: "p1"}, "ALREADY_EXISTS"},
		{PaydownAlreadyExistsError{ID: "d1"}, "ALREADY_EXISTS"},
		{ErrAlreadyInstantiated, "ALREADY_EXISTS"},
		{ErrAssetsAlreadyPledged, "ASSET_CONFLICT"},
		{ErrAssetsNotInInventory, "ASSET_CONFLICT"},
		{MissingFundsError{Flow: FlowPledgeAdvance}, "MISSING_FUNDS"},
		{InsufficientFundsError{Flow: FlowPaydown}, "INSUFFICIENT_FUNDS"},
		{RuleViolationError{}, "RULE_VIOLATION"},
		{errors.New("disk full"), "INTERNAL"},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.code {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestInsufficientFundsErrorMessage(t *testing.T) {
	err := InsufficientFundsError{Flow: FlowPledgeAdvance, Need: 750, NeedDenom: "usdf", Received: 700, ReceivedDenom: "usdf"}
	want := `cannot accept pledge: insufficient funds: need 750 "usdf", received 700 "usdf"`
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if (MissingFundsError{Flow: FlowPaydown}).Error() != "cannot propose paydown: missing paydown funds" {
		t.Fatalf("unexpected missing paydown message")
	}
}

func TestEffectCollaborator(t *testing.T) {
	if BindName("facility.pb", "contract", true).Collaborator() != CollaboratorName {
		t.Fatalf("expected name collaborator")
	}
	if !BankSend("orig", Coin{Denom: "usdf", Amount: 1}).IsFundMovement() {
		t.Fatalf("expected bank send to move funds")
	}
	if CancelMarker("pool").Collaborator() != CollaboratorCustody {
		t.Fatalf("expected custody collaborator")
	}
}
