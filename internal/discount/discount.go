package discount

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/billing-api/internal/money"
)

// Kind selects how a discount value is interpreted.
type Kind string

const (
	// Percentage interprets Value as a percentage of the base amount.
	Percentage Kind = "percentage"
	// Flat interprets Value as an absolute amount in major currency units
	// (the number a user types into the discount field).
	Flat Kind = "flat"
)

// ErrUnknownKind flags a discount kind outside the two supported values.
// Unlike a half-filled numeric field, an unrecognised kind indicates an
// upstream bug and fails loudly.
var ErrUnknownKind = errors.New("unknown discount kind")

var hundred = decimal.NewFromInt(100)

// Spec describes a document-level discount. The zero value applies no
// discount.
type Spec struct {
	Kind  Kind
	Value decimal.Decimal
}

// Apply returns the discount amount for base. The result is clamped into
// [0, base]: a flat discount larger than the base contributes exactly the
// base, never a negative remainder, and negative values count as zero.
func Apply(base money.Money, spec Spec) (money.Money, error) {
	zero := money.Zero(base.Currency)
	switch spec.Kind {
	case "":
		return zero, nil
	case Percentage, Flat:
	default:
		return zero, fmt.Errorf("%q: %w", spec.Kind, ErrUnknownKind)
	}
	if spec.Value.Sign() <= 0 || base.Amount <= 0 {
		return zero, nil
	}
	var amount decimal.Decimal
	switch spec.Kind {
	case Percentage:
		amount = base.Decimal().Mul(spec.Value).Div(hundred)
	case Flat:
		amount = spec.Value.Mul(hundred)
	}
	out := money.FromDecimal(amount, base.Currency)
	if out.Amount > base.Amount {
		out.Amount = base.Amount
	}
	if out.Amount < 0 {
		out.Amount = 0
	}
	return out, nil
}
