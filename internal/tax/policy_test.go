package tax

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p := NewPolicy()
	if err := p.Register("GST 10%", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := p.Register("PST", decimal.RequireFromString("7.5")); err != nil {
		t.Fatalf("register: %v", err)
	}
	return p
}

func TestResolveKnownLabel(t *testing.T) {
	p := newTestPolicy(t)
	if got := p.ResolveRate("GST 10%"); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("got %s", got)
	}
	// labels are case-insensitive
	if got := p.ResolveRate("gst 10%"); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("got %s", got)
	}
}

func TestResolveUnknownLabelIsZero(t *testing.T) {
	p := newTestPolicy(t)
	for _, label := range []string{"", "none", "NONE", "deleted-tax"} {
		if got := p.ResolveRate(label); !got.IsZero() {
			t.Fatalf("ResolveRate(%q) = %s, want 0", label, got)
		}
	}
}

func TestRegisterRejectsOutOfRange(t *testing.T) {
	p := NewPolicy()
	if err := p.Register("bad", decimal.NewFromInt(-1)); err == nil {
		t.Fatal("expected error for negative rate")
	}
	if err := p.Register("bad", decimal.NewFromInt(101)); err == nil {
		t.Fatal("expected error for rate above 100")
	}
	if err := p.Register("none", decimal.NewFromInt(5)); err == nil {
		t.Fatal("expected error for reserved label")
	}
}

func TestResolveCarriesLabel(t *testing.T) {
	p := newTestPolicy(t)
	sel := p.Resolve(" PST ")
	if sel.Label != "PST" {
		t.Fatalf("label %q", sel.Label)
	}
	if !sel.Rate.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("rate %s", sel.Rate)
	}
}
