package lifecycle

import (
	"fmt"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// Role is a facility counterparty.
type Role string

// Facility roles.
const (
	RoleOriginator Role = "originator"
	RoleWarehouse  Role = "warehouse"
)

var authorizedRoles = map[domain.MessageKind]Role{
	domain.MsgProposePledge:  RoleOriginator,
	domain.MsgAcceptPledge:   RoleWarehouse,
	domain.MsgCancelPledge:   RoleOriginator,
	domain.MsgExecutePledge:  RoleOriginator,
	domain.MsgProposePaydown: RoleOriginator,
	domain.MsgAcceptPaydown:  RoleWarehouse,
	domain.MsgCancelPaydown:  RoleOriginator,
	domain.MsgExecutePaydown: RoleOriginator,
}

// AuthorizedRole returns the single role permitted to submit kind.
func AuthorizedRole(kind domain.MessageKind) (Role, bool) {
	role, ok := authorizedRoles[kind]
	return role, ok
}

// Authorize fails with domain.ErrUnauthorized unless sender is exactly the
// role entitled to submit msg.
func Authorize(facility domain.Facility, sender string, msg domain.ExecuteMsg) error {
	role, ok := AuthorizedRole(msg.Kind())
	if !ok {
		return fmt.Errorf("%w: unsupported message %q", domain.ErrMalformedMessage, msg.Kind())
	}
	var want string
	switch role {
	case RoleOriginator:
		want = facility.Originator
	case RoleWarehouse:
		want = facility.Warehouse
	}
	if sender == "" || sender != want {
		return domain.ErrUnauthorized
	}
	return nil
}
