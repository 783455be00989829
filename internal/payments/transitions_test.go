package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sublimarket/internal/models"
)

func newTestOrder(total float64) *models.Order {
	return &models.Order{
		OrderNumber: "ORD-20260828-TEST01",
		Status:      models.OrderApproved,
		Payment: models.Payment{
			Method: models.MethodWompi,
			Timing: models.TimingAdvance,
			Status: models.PaymentPending,
			Amount: total,
		},
	}
}

func TestApplySettlementFullPayment(t *testing.T) {
	o := newTestOrder(59.89)
	now := time.Now()

	err := ApplySettlement(o, models.LedgerEntry{
		Kind:      models.LedgerFull,
		Method:    models.MethodWompi,
		Amount:    59.89,
		Reference: "tx-1",
	}, now)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, o.Payment.Status)
	assert.True(t, o.FullyPaid())
	require.NotNil(t, o.Payment.PaidAt)
	assert.Equal(t, now, *o.Payment.PaidAt)
}

func TestApplySettlementAdvanceThenRemainder(t *testing.T) {
	o := newTestOrder(100)
	now := time.Now()

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerAdvance, Amount: 50, Reference: "tx-adv",
	}, now))
	assert.Equal(t, models.PaymentProcessing, o.Payment.Status)
	assert.False(t, o.FullyPaid())
	assert.Equal(t, 50.0, AmountDue(o))

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerRemainder, Amount: 50, Reference: "tx-rem",
	}, now))
	assert.Equal(t, models.PaymentPaid, o.Payment.Status)
	assert.True(t, o.FullyPaid())
	assert.Equal(t, 0.0, AmountDue(o))
}

func TestApplySettlementRejectsAlreadyPaid(t *testing.T) {
	o := newTestOrder(20)
	now := time.Now()

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 20, Reference: "tx-1",
	}, now))

	err := ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 20, Reference: "tx-2",
	}, now)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Len(t, o.Payment.Ledger, 1)
}

func TestApplyFailureThenRetrySucceeds(t *testing.T) {
	o := newTestOrder(30)
	now := time.Now()

	require.NoError(t, ApplyFailure(o, models.FailedAttempt{
		Reference: "tx-bad", Reason: "declined by issuer",
	}, now))
	assert.Equal(t, models.PaymentFailed, o.Payment.Status)
	assert.Len(t, o.Payment.FailedAttempts, 1)

	// A fresh attempt can still settle a failed payment.
	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 30, Reference: "tx-good",
	}, now))
	assert.Equal(t, models.PaymentPaid, o.Payment.Status)
}

func TestApplyFailureRejectedOncePaid(t *testing.T) {
	o := newTestOrder(30)
	now := time.Now()

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 30, Reference: "tx-1",
	}, now))

	err := ApplyFailure(o, models.FailedAttempt{Reference: "tx-2"}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyRefundFullAndPartial(t *testing.T) {
	now := time.Now()

	full := newTestOrder(80)
	require.NoError(t, ApplySettlement(full, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 80, Reference: "tx-1",
	}, now))
	require.NoError(t, ApplyRefund(full, models.Refund{
		Amount: 80, Reason: "order cancelled", Status: "processed", Reference: "REF-1",
	}, now))
	assert.Equal(t, models.PaymentRefunded, full.Payment.Status)

	partial := newTestOrder(80)
	require.NoError(t, ApplySettlement(partial, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 80, Reference: "tx-1",
	}, now))
	require.NoError(t, ApplyRefund(partial, models.Refund{
		Amount: 30, Reason: "damaged item", Status: "processed", Reference: "REF-2",
	}, now))
	assert.Equal(t, models.PaymentPartiallyRefunded, partial.Payment.Status)
}

func TestApplyRefundOfAdvanceSettlement(t *testing.T) {
	o := newTestOrder(100)
	now := time.Now()

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerAdvance, Amount: 50, Reference: "tx-adv",
	}, now))
	require.Equal(t, models.PaymentProcessing, o.Payment.Status)

	// The advance is settled money; it must be refundable before the
	// remainder ever arrives.
	require.NoError(t, ApplyRefund(o, models.Refund{
		Amount: 50, Reason: "order cancelled", Status: "processed", Reference: "REF-1",
	}, now))
	assert.Equal(t, models.PaymentRefunded, o.Payment.Status)
	assert.Equal(t, 50.0, o.RefundedAmount())

	partial := newTestOrder(100)
	require.NoError(t, ApplySettlement(partial, models.LedgerEntry{
		Kind: models.LedgerAdvance, Amount: 50, Reference: "tx-adv",
	}, now))
	require.NoError(t, ApplyRefund(partial, models.Refund{
		Amount: 20, Reason: "goodwill", Status: "processed", Reference: "REF-2",
	}, now))
	assert.Equal(t, models.PaymentPartiallyRefunded, partial.Payment.Status)
}

func TestApplyRefundGuards(t *testing.T) {
	now := time.Now()

	unpaid := newTestOrder(80)
	err := ApplyRefund(unpaid, models.Refund{Amount: 10, Reference: "REF-1"}, now)
	assert.ErrorIs(t, err, ErrNotPaid)

	paid := newTestOrder(80)
	require.NoError(t, ApplySettlement(paid, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 80, Reference: "tx-1",
	}, now))
	err = ApplyRefund(paid, models.Refund{Amount: 100, Reference: "REF-2"}, now)
	assert.ErrorIs(t, err, ErrRefundExceedsPaid)
}

func TestApplySettlementRejectedAfterRefund(t *testing.T) {
	o := newTestOrder(40)
	now := time.Now()

	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 40, Reference: "tx-1",
	}, now))
	require.NoError(t, ApplyRefund(o, models.Refund{
		Amount: 40, Status: "processed", Reference: "REF-1",
	}, now))

	err := ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerFull, Amount: 40, Reference: "tx-2",
	}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSettlementKind(t *testing.T) {
	o := newTestOrder(100)
	assert.Equal(t, models.LedgerFull, SettlementKind(o, 100))
	assert.Equal(t, models.LedgerAdvance, SettlementKind(o, 50))

	o.Payment.Ledger = append(o.Payment.Ledger, models.LedgerEntry{
		Kind: models.LedgerAdvance, Amount: 50,
	})
	assert.Equal(t, models.LedgerRemainder, SettlementKind(o, 50))
}

func TestAuthorizeSettlement(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	o := newTestOrder(50)
	o.UserID = owner

	assert.NoError(t, AuthorizeSettlement(o, owner, false))
	assert.NoError(t, AuthorizeSettlement(o, stranger, true))
	assert.ErrorIs(t, AuthorizeSettlement(o, stranger, false), ErrNotOrderOwner)
}

func TestHasLedgerReference(t *testing.T) {
	o := newTestOrder(100)
	require.NoError(t, ApplySettlement(o, models.LedgerEntry{
		Kind: models.LedgerAdvance, Amount: 50, Reference: "tx-1",
	}, time.Now()))

	assert.True(t, HasLedgerReference(o, "tx-1"))
	assert.False(t, HasLedgerReference(o, "tx-2"))
}
