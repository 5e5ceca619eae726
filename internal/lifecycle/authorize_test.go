package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

func TestAuthorizeRoleTable(t *testing.T) {
	cases := []struct {
		msg  domain.ExecuteMsg
		role Role
	}{
		{domain.ProposePledge{}, RoleOriginator},
		{domain.AcceptPledge{}, RoleWarehouse},
		{domain.CancelPledge{}, RoleOriginator},
		{domain.ExecutePledge{}, RoleOriginator},
		{domain.ProposePaydown{}, RoleOriginator},
		{domain.AcceptPaydown{}, RoleWarehouse},
		{domain.CancelPaydown{}, RoleOriginator},
		{domain.ExecutePaydown{}, RoleOriginator},
	}
	facility := testFacility()
	for _, tc := range cases {
		t.Run(string(tc.msg.Kind()), func(t *testing.T) {
			allowed, other := facility.Originator, facility.Warehouse
			if tc.role == RoleWarehouse {
				allowed, other = other, allowed
			}
			assert.NoError(t, Authorize(facility, allowed, tc.msg))
			assert.ErrorIs(t, Authorize(facility, other, tc.msg), domain.ErrUnauthorized)
			assert.ErrorIs(t, Authorize(facility, "tp1stranger", tc.msg), domain.ErrUnauthorized)
			assert.ErrorIs(t, Authorize(facility, "", tc.msg), domain.ErrUnauthorized)
		})
	}
}
