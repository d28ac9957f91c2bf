// Package core provides quantity parsing and missing-value handling.
//
// Jumlah and Biaya Rp/Volume cells are kept as decimals so that whatever
// precision the source carries survives aggregation unchanged.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MissingPolicy decides how empty numeric cells are treated.
type MissingPolicy string

const (
	// MissingSkip leaves empty cells out: they add nothing to sums and are
	// not counted in means.
	MissingSkip MissingPolicy = "skip"
	// MissingZero treats empty cells as 0, including in mean denominators.
	MissingZero MissingPolicy = "zero"
	// MissingError rejects the load when any numeric cell is empty.
	MissingError MissingPolicy = "error"
)

// MissingPolicies lists the accepted policy names.
var MissingPolicies = []MissingPolicy{MissingSkip, MissingZero, MissingError}

// ParseMissingPolicy validates a policy name. Empty selects MissingSkip.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MissingSkip, nil
	case MissingSkip, MissingZero, MissingError:
		return p, nil
	default:
		return "", fmt.Errorf("unknown missing-value policy %q: must be one of %v", s, MissingPolicies)
	}
}

// ParseQuantity converts a numeric cell to a decimal.
//
// An empty cell yields an invalid NullDecimal. Grouping separators are not
// accepted, so "1,500" is ErrInvalidNumber rather than a guess.
//
// Examples:
//   ParseQuantity("1500")     -> 1500
//   ParseQuantity("1.5E+3")   -> 1500
//   ParseQuantity("")         -> null
//   ParseQuantity("12,5")     -> ErrInvalidNumber
func ParseQuantity(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return decimal.NewNullDecimal(d), nil
}

// Resolve applies the policy to a possibly missing value. ok is false when
// the value must be left out of the aggregation.
func (p MissingPolicy) Resolve(v decimal.NullDecimal) (d decimal.Decimal, ok bool) {
	if v.Valid {
		return v.Decimal, true
	}
	if p == MissingZero {
		return decimal.Zero, true
	}
	return decimal.Zero, false
}

// FormatQuantity renders a value for CSV and tables; missing is empty.
func FormatQuantity(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
