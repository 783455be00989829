// Package payments is the single payment-state-transition service. Every
// confirmation path (admin manual, cash at delivery, gateway webhook,
// simulated) funnels through the same ledger append and the same
// already-paid guard.
package payments

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sublimarket/internal/gateway"
	"sublimarket/internal/models"
	"sublimarket/internal/notify"
	"sublimarket/internal/pricing"
)

type Service struct {
	db     *mongo.Database
	gw     gateway.Client
	sim    *gateway.Simulator
	outbox *notify.Outbox
}

func NewService(db *mongo.Database, gw gateway.Client, sim *gateway.Simulator, outbox *notify.Outbox) *Service {
	return &Service{db: db, gw: gw, sim: sim, outbox: outbox}
}

// ConfirmManual settles the outstanding amount through the admin manual path.
func (s *Service) ConfirmManual(ctx context.Context, orderID, adminID primitive.ObjectID, note string) (*models.Order, error) {
	return s.settle(ctx, orderID, func(o *models.Order, now time.Time) error {
		due := AmountDue(o)
		entry := models.LedgerEntry{
			Kind:      SettlementKind(o, due),
			Method:    o.Payment.Method,
			Amount:    due,
			Reference: newReference("MAN"),
			Actor:     &adminID,
			ActorRole: "admin",
			Notes:     note,
		}
		return ApplySettlement(o, entry, now)
	})
}

// RegisterCash settles the outstanding amount with cash collected at
// delivery and records the receipt.
func (s *Service) RegisterCash(ctx context.Context, orderID, collectorID primitive.ObjectID, received float64) (*models.Order, error) {
	return s.settle(ctx, orderID, func(o *models.Order, now time.Time) error {
		due := AmountDue(o)
		if received < due-0.005 {
			return ErrInsufficientCash
		}

		receipt := newReference("CASH")
		o.Payment.Cash = &models.CashDetails{
			ReceivedAmount: received,
			Change:         pricing.Round2(received - due),
			ReceiptNumber:  receipt,
			CollectedBy:    &collectorID,
			CollectedAt:    now,
		}

		entry := models.LedgerEntry{
			Kind:      SettlementKind(o, due),
			Method:    models.MethodCash,
			Amount:    due,
			Reference: receipt,
			Actor:     &collectorID,
			ActorRole: "admin",
		}
		return ApplySettlement(o, entry, now)
	})
}

// Simulate runs a weighted-random gateway outcome against the order. Only
// available while the gateway is fictitious, and only to the order's owner
// or an admin.
func (s *Service) Simulate(ctx context.Context, orderID, requester primitive.ObjectID, admin bool) (*gateway.Transaction, error) {
	if !s.gw.Fictitious() {
		return nil, ErrSimulationUnavailable
	}

	var tx gateway.Transaction
	_, err := s.settle(ctx, orderID, func(o *models.Order, now time.Time) error {
		if err := AuthorizeSettlement(o, requester, admin); err != nil {
			return err
		}
		tx = s.sim.Next(AmountDue(o))
		if tx.Status != gateway.TxApproved {
			return ApplyFailure(o, models.FailedAttempt{
				Reference: tx.Reference,
				Reason:    tx.Message,
			}, now)
		}

		entry := models.LedgerEntry{
			Kind:      SettlementKind(o, tx.Amount),
			Method:    models.MethodWompi,
			Amount:    tx.Amount,
			Reference: tx.Reference,
		}
		return ApplySettlement(o, entry, now)
	})
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// WebhookEvent is the parsed gateway callback payload.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Transaction gateway.Transaction `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// HandleWebhook applies a gateway callback. The reported status is never
// trusted directly: the transaction is re-fetched from the gateway. Replayed
// events are no-ops thanks to the ledger reference check.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	reported := event.Data.Transaction
	if reported.Reference == "" {
		return fmt.Errorf("webhook event carries no transaction reference")
	}

	tx, err := s.gw.GetTransaction(ctx, reported.ID)
	if err != nil {
		return fmt.Errorf("verify transaction: %w", err)
	}

	_, err = s.settleBy(ctx, bson.M{"payment.gateway.reference": reported.Reference}, func(o *models.Order, now time.Time) error {
		if HasLedgerReference(o, tx.ID) {
			log.Println("[PAYMENT] [INFO] webhook replay ignored for tx", tx.ID)
			return nil
		}

		switch tx.Status {
		case gateway.TxApproved:
			amount := tx.Amount
			if amount == 0 {
				amount = AmountDue(o)
			}
			o.Payment.Gateway.TransactionID = tx.ID
			entry := models.LedgerEntry{
				Kind:      SettlementKind(o, amount),
				Method:    models.MethodWompi,
				Amount:    amount,
				Reference: tx.ID,
			}
			return ApplySettlement(o, entry, now)

		case gateway.TxDeclined, gateway.TxError:
			return ApplyFailure(o, models.FailedAttempt{
				Reference: tx.ID,
				Reason:    tx.Message,
			}, now)

		default:
			// PENDING and anything unknown: wait for the next event.
			return nil
		}
	})
	return err
}

// Refund appends a refund record. For gateway-paid orders the gateway refund
// is attempted first; when it fails the record is written as pending instead
// of failing the caller.
func (s *Service) Refund(ctx context.Context, orderID primitive.ObjectID, amount float64, reason string, actorID primitive.ObjectID) (*models.Order, error) {
	return s.settle(ctx, orderID, func(o *models.Order, now time.Time) error {
		return s.RefundInPlace(ctx, o, amount, reason, &actorID, now)
	})
}

// RefundInPlace mutates an already-loaded order. The cancellation flow calls
// this inside its own transaction so the refund record and the cancellation
// commit together.
func (s *Service) RefundInPlace(ctx context.Context, o *models.Order, amount float64, reason string, actorID *primitive.ObjectID, now time.Time) error {
	if amount == 0 {
		amount = pricing.Round2(o.PaidAmount() - o.RefundedAmount())
	}

	refund := models.Refund{
		Amount:      amount,
		Reason:      reason,
		Status:      "processed",
		Reference:   newReference("REF"),
		RequestedBy: actorID,
	}

	if o.Payment.Method == models.MethodWompi && o.Payment.Gateway != nil && o.Payment.Gateway.TransactionID != "" {
		result, err := s.gw.RefundTransaction(ctx, o.Payment.Gateway.TransactionID, amount)
		if err != nil {
			// Refund failure never blocks the caller; park it for
			// manual settlement.
			log.Println("[PAYMENT] [WARN] gateway refund failed, recording as pending:", err)
			refund.Status = "pending"
		} else if result.Reference != "" {
			refund.Reference = result.Reference
		}
	}

	return ApplyRefund(o, refund, now)
}

// settle runs one transition inside a transaction keyed by order id.
func (s *Service) settle(ctx context.Context, orderID primitive.ObjectID, apply func(*models.Order, time.Time) error) (*models.Order, error) {
	return s.settleBy(ctx, bson.M{"_id": orderID}, apply)
}

func (s *Service) settleBy(ctx context.Context, filter bson.M, apply func(*models.Order, time.Time) error) (*models.Order, error) {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	var order models.Order
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := s.db.Collection("orders").FindOne(sessCtx, filter).Decode(&order); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrOrderNotFound
			}
			return nil, err
		}

		before := order.Payment.Status
		now := time.Now()
		if err := apply(&order, now); err != nil {
			return nil, err
		}

		if order.Payment.Status != before && order.Payment.Status == models.PaymentPaid {
			if err := s.outbox.EnqueueNotification(sessCtx, notify.Notification{
				Event:       notify.EventPaymentConfirmed,
				Recipient:   order.UserID.Hex(),
				OrderID:     order.ID.Hex(),
				OrderNumber: order.OrderNumber,
				Subject:     "Payment confirmed",
				Data:        map[string]any{"amount": order.PaidAmount()},
			}); err != nil {
				return nil, err
			}
		}

		_, err := s.db.Collection("orders").ReplaceOne(sessCtx, bson.M{"_id": order.ID}, order)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func newReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
