package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAdvanceRateScale bounds the fractional digits of an advance rate so the
// facility supply 10^(scale+2) fits in a uint64.
const MaxAdvanceRateScale = 17

var (
	hundred = decimal.NewFromInt(100)

	errRateOutOfRange = errors.New("rate out of range")
	errRateExponent   = errors.New("exponent notation not accepted")
)

// parseRate reads a plain decimal string. Exponent forms such as "1e2" are
// rejected so the stored rate string always has the scale it is written with.
func parseRate(raw string) (decimal.Decimal, error) {
	if strings.ContainsAny(raw, "eE") {
		return decimal.Decimal{}, errRateExponent
	}
	return decimal.NewFromString(raw)
}

// Supply is the fixed two-way split of the facility marker minted at instantiation.
type Supply struct {
	Total      uint64 `json:"total"`
	Warehouse  uint64 `json:"warehouse"`
	Originator uint64 `json:"originator"`
}

// ParseAdvanceRate parses a percentage in (0, 100] with at most
// MaxAdvanceRateScale fractional digits.
func ParseAdvanceRate(raw string) (decimal.Decimal, error) {
	rate, err := parseRate(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse advance rate %q: %w", raw, err)
	}
	if !rate.IsPositive() || rate.GreaterThan(hundred) {
		return decimal.Decimal{}, fmt.Errorf("advance rate %s: %w", raw, errRateOutOfRange)
	}
	if rateScale(rate) > MaxAdvanceRateScale {
		return decimal.Decimal{}, fmt.Errorf("advance rate %s: scale exceeds %d", raw, MaxAdvanceRateScale)
	}
	return rate, nil
}

// ParsePaydownRate parses a strictly positive percentage.
func ParsePaydownRate(raw string) (decimal.Decimal, error) {
	rate, err := parseRate(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse paydown rate %q: %w", raw, err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("paydown rate %s: %w", raw, errRateOutOfRange)
	}
	return rate, nil
}

// SplitSupply computes supply = 10^(scale+2), the warehouse share
// floor(rate/100 * supply) and the originator remainder.
func SplitSupply(advanceRate string) (Supply, error) {
	rate, err := ParseAdvanceRate(advanceRate)
	if err != nil {
		return Supply{}, err
	}
	total := decimal.New(1, int32(rateScale(rate)+2))
	warehouse := rate.Mul(total).Shift(-2).Floor()
	supply := Supply{
		Total:     total.BigInt().Uint64(),
		Warehouse: warehouse.BigInt().Uint64(),
	}
	supply.Originator = supply.Total - supply.Warehouse
	return supply, nil
}

// rateScale is the number of fractional digits as written, trailing zeros included.
func rateScale(d decimal.Decimal) int {
	if exp := d.Exponent(); exp < 0 {
		return int(-exp)
	}
	return 0
}
