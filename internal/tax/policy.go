package tax

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Selection pairs a tax label with its resolved percentage rate. A document
// carries up to two independent selections; both apply to the same base and
// their rates are summed.
type Selection struct {
	Label string
	Rate  decimal.Decimal
}

// None is the empty selection, resolving to a zero rate.
var None = Selection{}

// Policy maps named tax labels to percentage rates. Lookups are lenient:
// empty, "none", and unregistered labels all resolve to a zero rate, so a
// form that still references a deleted tax cannot break the summary panel.
// The rate is re-derived from the label on every read rather than trusted
// from a number cached alongside the document.
type Policy struct {
	rates map[string]decimal.Decimal
}

// NewPolicy returns an empty policy.
func NewPolicy() *Policy {
	return &Policy{rates: make(map[string]decimal.Decimal)}
}

// Register adds or replaces a named rate. Rates must lie within [0, 100].
func (p *Policy) Register(label string, rate decimal.Decimal) error {
	key := normalise(label)
	if key == "" || key == "none" {
		return fmt.Errorf("tax label %q is not usable", label)
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return fmt.Errorf("tax rate %s for %q out of range", rate, label)
	}
	p.rates[key] = rate
	return nil
}

// ResolveRate resolves a label to its percentage rate, zero when unknown.
func (p *Policy) ResolveRate(label string) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	key := normalise(label)
	if key == "" || key == "none" {
		return decimal.Zero
	}
	rate, ok := p.rates[key]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// Resolve returns the full selection for a label.
func (p *Policy) Resolve(label string) Selection {
	return Selection{Label: strings.TrimSpace(label), Rate: p.ResolveRate(label)}
}

// Labels lists the registered labels in no particular order.
func (p *Policy) Labels() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.rates))
	for label := range p.rates {
		out = append(out, label)
	}
	return out
}

func normalise(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
