package payments

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sublimarket/internal/models"
)

// The payment state machine:
//
//	pending -> processing -> paid
//	pending|processing -> failed       (retryable: a new attempt may still pay)
//	paid|processing -> refunded | partially_refunded
//
// Settlements are append-only ledger entries; "fully paid" is derived from
// the ledger, never from a flag. A processing order already holds settled
// money (the advance), so it must be refundable too.

// ApplySettlement appends a ledger entry and advances the payment status.
// A fully settled order moves to paid; a partial settlement (advance) leaves
// the order in processing until the remainder arrives.
func ApplySettlement(o *models.Order, entry models.LedgerEntry, now time.Time) error {
	if o.Payment.Status == models.PaymentRefunded || o.Payment.Status == models.PaymentPartiallyRefunded {
		return ErrInvalidTransition
	}
	if o.FullyPaid() {
		return ErrAlreadyPaid
	}

	entry.RecordedAt = now
	o.Payment.Ledger = append(o.Payment.Ledger, entry)

	if o.FullyPaid() {
		o.Payment.Status = models.PaymentPaid
		o.Payment.PaidAt = &now
	} else {
		o.Payment.Status = models.PaymentProcessing
	}
	o.UpdatedAt = now
	return nil
}

// ApplyFailure records a declined or errored attempt. The failure list is
// append-only; a later attempt may still settle the order.
func ApplyFailure(o *models.Order, attempt models.FailedAttempt, now time.Time) error {
	switch o.Payment.Status {
	case models.PaymentPending, models.PaymentProcessing, models.PaymentFailed:
	default:
		return ErrInvalidTransition
	}

	attempt.At = now
	o.Payment.FailedAttempts = append(o.Payment.FailedAttempts, attempt)
	o.Payment.Status = models.PaymentFailed
	o.UpdatedAt = now
	return nil
}

// ApplyRefund appends a refund record and moves the payment to refunded or
// partially_refunded depending on coverage. Processing orders are refundable
// up to what the ledger holds, so a cancelled advance goes back. The refund
// itself may be in status "pending" when the gateway call failed; it still
// counts toward coverage because it will be settled manually.
func ApplyRefund(o *models.Order, refund models.Refund, now time.Time) error {
	switch o.Payment.Status {
	case models.PaymentPaid, models.PaymentPartiallyRefunded, models.PaymentProcessing:
	default:
		return ErrNotPaid
	}
	if o.PaidAmount() <= 0 {
		return ErrNotPaid
	}
	if refund.Amount <= 0 || refund.Amount > o.PaidAmount()-o.RefundedAmount()+0.005 {
		return ErrRefundExceedsPaid
	}

	refund.CreatedAt = now
	o.Payment.Refunds = append(o.Payment.Refunds, refund)

	if o.RefundedAmount() >= o.PaidAmount()-0.005 {
		o.Payment.Status = models.PaymentRefunded
	} else {
		o.Payment.Status = models.PaymentPartiallyRefunded
	}
	o.UpdatedAt = now
	return nil
}

// HasLedgerReference reports whether a settlement with this reference was
// already recorded. Used to keep webhook processing idempotent.
func HasLedgerReference(o *models.Order, reference string) bool {
	for _, e := range o.Payment.Ledger {
		if e.Reference == reference {
			return true
		}
	}
	return false
}

// SettlementKind picks the ledger entry kind for the amount being settled:
// full when it covers the whole total at once, advance for the first partial
// settlement, remainder afterwards.
func SettlementKind(o *models.Order, amount float64) string {
	if len(o.Payment.Ledger) == 0 {
		if amount >= o.Payment.Amount-0.005 {
			return models.LedgerFull
		}
		return models.LedgerAdvance
	}
	return models.LedgerRemainder
}

// AuthorizeSettlement checks that the requester may settle this order:
// the owner or an admin, nobody else.
func AuthorizeSettlement(o *models.Order, requester primitive.ObjectID, admin bool) error {
	if admin || o.UserID == requester {
		return nil
	}
	return ErrNotOrderOwner
}

// AmountDue is what is still owed on the order.
func AmountDue(o *models.Order) float64 {
	due := o.Payment.Amount - o.PaidAmount()
	if due < 0 {
		return 0
	}
	return due
}
