package pricing

import "testing"

func TestComputeCatalogScenario(t *testing.T) {
	// quantity=2, design price $20, one option +$5, delivery to San Salvador.
	q := Compute(20, 5, 2, "delivery", "San Salvador")

	if q.UnitPrice != 25 {
		t.Fatalf("expected unit price 25, got %v", q.UnitPrice)
	}
	if q.Subtotal != 50 {
		t.Fatalf("expected subtotal 50, got %v", q.Subtotal)
	}
	if q.DeliveryFee != 3 {
		t.Fatalf("expected delivery fee 3, got %v", q.DeliveryFee)
	}
	if q.Tax != 6.89 {
		t.Fatalf("expected tax 6.89, got %v", q.Tax)
	}
	if q.Total != 59.89 {
		t.Fatalf("expected total 59.89, got %v", q.Total)
	}
	if q.LargeOrder {
		t.Fatal("expected LargeOrder=false for total 59.89 and quantity 2")
	}
}

func TestComputeTotalIdentity(t *testing.T) {
	cases := []struct {
		designPrice float64
		surcharges  float64
		quantity    int
		department  string
	}{
		{12.99, 0, 1, "San Salvador"},
		{20, 5, 2, "La Libertad"},
		{7.35, 1.65, 33, "Morazán"}, // unknown department, default fee
		{149.99, 12.5, 4, "Usulután"},
	}

	for _, tc := range cases {
		q := Compute(tc.designPrice, tc.surcharges, tc.quantity, "delivery", tc.department)
		if got := Round2(q.Subtotal + q.DeliveryFee + q.Tax); got != q.Total {
			t.Fatalf("total identity broken for %+v: %v != %v", tc, got, q.Total)
		}
		if got := Round2((q.Subtotal + q.DeliveryFee) * VATRate); got != q.Tax {
			t.Fatalf("tax identity broken for %+v: %v != %v", tc, got, q.Tax)
		}
	}
}

func TestDeliveryFeeMeetupIsFree(t *testing.T) {
	if fee := DeliveryFee("meetup", "San Salvador"); fee != 0 {
		t.Fatalf("expected no fee for meetup, got %v", fee)
	}
}

func TestDeliveryFeeUnknownDepartmentFallsBack(t *testing.T) {
	if fee := DeliveryFee("delivery", "Morazán"); fee != defaultDeliveryFee {
		t.Fatalf("expected default fee %v, got %v", defaultDeliveryFee, fee)
	}
}

func TestLargeOrderFlag(t *testing.T) {
	if q := Compute(50, 0, 2, "meetup", ""); !q.LargeOrder {
		t.Fatalf("expected LargeOrder for total %v", q.Total)
	}
	if q := Compute(1, 0, 11, "meetup", ""); !q.LargeOrder {
		t.Fatal("expected LargeOrder for quantity 11")
	}
	if q := Compute(10, 0, 2, "meetup", ""); q.LargeOrder {
		t.Fatalf("did not expect LargeOrder for total %v, quantity 2", q.Total)
	}
}

func TestSplitAdvanceSumsToTotal(t *testing.T) {
	totals := []float64{59.89, 101.01, 333.33, 0.01}
	for _, total := range totals {
		for percent := MinAdvancePercent; percent <= MaxAdvancePercent; percent++ {
			advance, remaining, err := SplitAdvance(total, percent)
			if err != nil {
				t.Fatalf("SplitAdvance(%v, %d) returned error: %v", total, percent, err)
			}
			if got := Round2(advance + remaining); got != total {
				t.Fatalf("split of %v at %d%% does not sum back: %v + %v = %v", total, percent, advance, remaining, got)
			}
		}
	}
}

func TestSplitAdvanceDefaultsToFifty(t *testing.T) {
	advance, remaining, err := SplitAdvance(100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advance != 50 || remaining != 50 {
		t.Fatalf("expected 50/50 split, got %v/%v", advance, remaining)
	}
}

func TestSplitAdvanceRejectsOutOfRange(t *testing.T) {
	for _, percent := range []int{-1, 10, 29, 71, 100} {
		if _, _, err := SplitAdvance(100, percent); err == nil {
			t.Fatalf("expected error for percent=%d", percent)
		}
	}
}
