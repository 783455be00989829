package models

import (
	"regexp"
	"testing"
	"time"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-20260828-[0-9A-F]{6}$`)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		number := GenerateOrderNumber(now)
		if !pattern.MatchString(number) {
			t.Fatalf("unexpected order number format: %s", number)
		}
		if seen[number] {
			t.Fatalf("duplicate order number generated: %s", number)
		}
		seen[number] = true
	}
}

func TestAppendStatusIsAppendOnly(t *testing.T) {
	o := &Order{Status: OrderPendingApproval}
	now := time.Now()

	o.AppendStatus(OrderQuoted, nil, "admin", "quote ready", now)
	o.AppendStatus(OrderApproved, nil, "admin", "", now.Add(time.Minute))

	if len(o.StatusHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(o.StatusHistory))
	}
	if o.StatusHistory[0].Previous != OrderPendingApproval || o.StatusHistory[0].New != OrderQuoted {
		t.Fatalf("first entry wrong: %+v", o.StatusHistory[0])
	}
	if o.Status != OrderApproved {
		t.Fatalf("expected approved, got %s", o.Status)
	}
}

func TestFullyPaidDerivedFromLedger(t *testing.T) {
	o := &Order{Payment: Payment{Amount: 59.89}}
	if o.FullyPaid() {
		t.Fatal("empty ledger cannot be fully paid")
	}

	o.Payment.Ledger = append(o.Payment.Ledger, LedgerEntry{Kind: LedgerAdvance, Amount: 29.95})
	if o.FullyPaid() {
		t.Fatal("advance alone must not count as fully paid")
	}

	o.Payment.Ledger = append(o.Payment.Ledger, LedgerEntry{Kind: LedgerRemainder, Amount: 29.94})
	if !o.FullyPaid() {
		t.Fatalf("ledger sums to %v of %v, expected fully paid", o.PaidAmount(), o.Payment.Amount)
	}
}

func TestOptionSurchargesIgnoresUnknownNames(t *testing.T) {
	p := &Product{Options: []ProductOption{
		{Name: "glossy finish", Surcharge: 5},
		{Name: "double sided", Surcharge: 3},
	}}

	if got := p.OptionSurcharges([]string{"glossy finish", "metallic"}); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if got := p.OptionSurcharges(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
