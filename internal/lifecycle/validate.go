package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// fieldCollector accumulates invalid field names without short-circuiting.
type fieldCollector struct {
	fields []string
}

func (c *fieldCollector) add(field string) {
	c.fields = append(c.fields, field)
}

func (c *fieldCollector) check(ok bool, field string) {
	if !ok {
		c.add(field)
	}
}

func (c *fieldCollector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return domain.InvalidFieldsError{Fields: c.fields}
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidateInstantiate checks every field of an instantiate message.
func ValidateInstantiate(msg domain.InstantiateMsg) error {
	var c fieldCollector
	c.check(msg.BindName != "", "bind_name")
	c.check(msg.ContractName != "", "contract_name")
	f := msg.Facility
	c.check(f.Originator != "", "facility.originator")
	c.check(f.Warehouse != "", "facility.warehouse")
	c.check(f.EscrowMarker != "", "facility.escrow_marker")
	c.check(f.MarkerDenom != "", "facility.marker_denom")
	c.check(f.StablecoinDenom != "", "facility.stablecoin_denom")
	_, err := ParseAdvanceRate(f.AdvanceRate)
	c.check(err == nil, "facility.advance_rate")
	_, err = ParsePaydownRate(f.PaydownRate)
	c.check(err == nil, "facility.paydown_rate")
	return c.err()
}

// Validate checks the structure of an execute message and reports every
// invalid field.
func Validate(msg domain.ExecuteMsg) error {
	var c fieldCollector
	switch m := msg.(type) {
	case domain.ProposePledge:
		c.check(isUUID(m.ID), "id")
		validateAssets(&c, m.Assets)
		c.check(m.TotalAdvance > 0, "total_advance")
		c.check(m.AssetMarkerDenom != "", "asset_marker_denom")
	case domain.ProposePaydown:
		c.check(isUUID(m.ID), "id")
		validateAssets(&c, m.Assets)
		c.check(m.TotalPaydown > 0, "total_paydown")
	case domain.AcceptPledge, domain.CancelPledge, domain.ExecutePledge,
		domain.AcceptPaydown, domain.CancelPaydown, domain.ExecutePaydown:
		c.check(isUUID(m.TargetID()), "id")
	case nil:
		return fmt.Errorf("%w: nil message", domain.ErrMalformedMessage)
	default:
		return fmt.Errorf("%w: unsupported message %T", domain.ErrMalformedMessage, msg)
	}
	return c.err()
}

func validateAssets(c *fieldCollector, assets []string) {
	if len(assets) == 0 {
		c.add("assets")
		return
	}
	seen := make(map[string]struct{}, len(assets))
	duplicate := false
	for i, asset := range assets {
		c.check(isUUID(asset), fmt.Sprintf("assets[%d]", i))
		if _, ok := seen[asset]; ok {
			duplicate = true
		}
		seen[asset] = struct{}{}
	}
	c.check(!duplicate, "assets")
}
