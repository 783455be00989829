package pricing

import (
	"fmt"
	"math"
)

// VATRate is the Salvadoran IVA applied on subtotal plus delivery fee.
const VATRate = 0.13

// Advance payment bounds. Percent outside the range is rejected, zero means
// use the default.
const (
	DefaultAdvancePercent = 50
	MinAdvancePercent     = 30
	MaxAdvancePercent     = 70
)

// deliveryFees is the flat per-department fee table. Departments not listed
// fall back to defaultDeliveryFee.
var deliveryFees = map[string]float64{
	"San Salvador": 3.00,
	"La Libertad":  3.50,
	"Cuscatlán":    3.50,
	"La Paz":       3.75,
	"Santa Ana":    4.00,
	"Sonsonate":    4.00,
	"Chalatenango": 4.25,
	"Ahuachapán":   4.50,
	"San Miguel":   4.50,
	"Usulután":     4.50,
}

const defaultDeliveryFee = 5.00

// Quote is the pricing breakdown derived once at order creation.
type Quote struct {
	UnitPrice   float64
	Subtotal    float64
	DeliveryFee float64
	Tax         float64
	Total       float64
	LargeOrder  bool
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DeliveryFee returns the flat fee for a department. Meetup orders carry no
// fee; unknown departments get the default tier.
func DeliveryFee(deliveryType, department string) float64 {
	if deliveryType != "delivery" {
		return 0
	}
	if fee, ok := deliveryFees[department]; ok {
		return fee
	}
	return defaultDeliveryFee
}

// Compute derives the full pricing breakdown. unitPrice is the design price
// plus matched option surcharges; tax is 13% of subtotal+deliveryFee.
func Compute(designPrice, optionSurcharges float64, quantity int, deliveryType, department string) Quote {
	unitPrice := Round2(designPrice + optionSurcharges)
	subtotal := Round2(unitPrice * float64(quantity))
	fee := DeliveryFee(deliveryType, department)
	tax := Round2((subtotal + fee) * VATRate)
	total := Round2(subtotal + fee + tax)

	return Quote{
		UnitPrice:   unitPrice,
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       total,
		LargeOrder:  total > 100 || quantity > 10,
	}
}

// SplitAdvance splits a total into advance and remaining amounts. The two
// parts always sum back to the total exactly.
func SplitAdvance(total float64, percent int) (advance, remaining float64, err error) {
	if percent == 0 {
		percent = DefaultAdvancePercent
	}
	if percent < MinAdvancePercent || percent > MaxAdvancePercent {
		return 0, 0, fmt.Errorf("advance percent must be between %d and %d", MinAdvancePercent, MaxAdvancePercent)
	}
	advance = Round2(total * float64(percent) / 100)
	remaining = Round2(total - advance)
	return advance, remaining, nil
}
