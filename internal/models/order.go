package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values.
const (
	OrderPendingApproval  = "pending_approval"
	OrderQuoted           = "quoted"
	OrderApproved         = "approved"
	OrderRejected         = "rejected"
	OrderInProduction     = "in_production"
	OrderReadyForDelivery = "ready_for_delivery"
	OrderDelivered        = "delivered"
	OrderCompleted        = "completed"
	OrderCancelled        = "cancelled"
)

// Payment status values.
const (
	PaymentPending           = "pending"
	PaymentProcessing        = "processing"
	PaymentPaid              = "paid"
	PaymentFailed            = "failed"
	PaymentRefunded          = "refunded"
	PaymentPartiallyRefunded = "partially_refunded"
)

// Item status values.
const (
	ItemPending      = "pending"
	ItemInProduction = "in_production"
	ItemReady        = "ready"
	ItemDelivered    = "delivered"
)

// Payment methods and timings.
const (
	MethodWompi = "wompi"
	MethodCash  = "cash"

	TimingAdvance    = "advance"
	TimingOnDelivery = "on_delivery"
)

// Delivery types.
const (
	DeliveryTypeMeetup   = "meetup"
	DeliveryTypeDelivery = "delivery"
)

// Ledger entry kinds.
const (
	LedgerAdvance   = "advance"
	LedgerRemainder = "remainder"
	LedgerFull      = "full"
)

// StageNames lists the six production milestones in fulfillment order.
var StageNames = []string{
	"sourcing",
	"preparing_materials",
	"printing",
	"sublimating",
	"quality_check",
	"packaging",
}

// IsProductionStage reports whether name is one of the six known stages.
func IsProductionStage(name string) bool {
	for _, s := range StageNames {
		if s == name {
			return true
		}
	}
	return false
}

// ProductionStage is one completed (or pending) milestone on an order item.
type ProductionStage struct {
	Completed   bool                `bson:"completed" json:"completed"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedBy *primitive.ObjectID `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	PhotoURL    string              `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
}

// OrderItem references a product plus the customer's design for it.
type OrderItem struct {
	ProductID          primitive.ObjectID         `bson:"productId" json:"productId"`
	DesignID           primitive.ObjectID         `bson:"designId" json:"designId"`
	Name               string                     `bson:"name" json:"name"`
	Quantity           int                        `bson:"quantity" json:"quantity"`
	UnitPrice          float64                    `bson:"unitPrice" json:"unitPrice"`
	Subtotal           float64                    `bson:"subtotal" json:"subtotal"`
	Status             string                     `bson:"status" json:"status"`
	ProductionStages   map[string]ProductionStage `bson:"productionStages" json:"productionStages"`
	ProductionProgress float64                    `bson:"productionProgress" json:"productionProgress"`
}

// StatusChange is a single append-only audit entry. Entries are never edited.
type StatusChange struct {
	Previous  string              `bson:"previous" json:"previous"`
	New       string              `bson:"new" json:"new"`
	Actor     *primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	ActorRole string              `bson:"actorRole" json:"actorRole"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ChangedAt time.Time           `bson:"changedAt" json:"changedAt"`
}

// DeliveryDetails is the home-delivery variant of the delivery sub-document.
type DeliveryDetails struct {
	Department   string `bson:"department" json:"department"`
	Municipality string `bson:"municipality" json:"municipality"`
	Street       string `bson:"street" json:"street"`
	Phone        string `bson:"phone" json:"phone"`
	Reference    string `bson:"reference,omitempty" json:"reference,omitempty"`
}

// MeetupDetails is the meetup variant of the delivery sub-document.
type MeetupDetails struct {
	Location string    `bson:"location" json:"location"`
	Date     time.Time `bson:"date" json:"date"`
	Phone    string    `bson:"phone,omitempty" json:"phone,omitempty"`
}

// PartialPayment records the advance split chosen at creation time. The
// ledger, not these fields, is the source of truth for what was settled.
type PartialPayment struct {
	AdvancePercent  int     `bson:"advancePercent" json:"advancePercent"`
	AdvanceAmount   float64 `bson:"advanceAmount" json:"advanceAmount"`
	RemainingAmount float64 `bson:"remainingAmount" json:"remainingAmount"`
}

// LedgerEntry is one settled amount against the order total, append-only.
type LedgerEntry struct {
	Kind       string              `bson:"kind" json:"kind"`
	Method     string              `bson:"method" json:"method"`
	Amount     float64             `bson:"amount" json:"amount"`
	Reference  string              `bson:"reference" json:"reference"`
	Actor      *primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	ActorRole  string              `bson:"actorRole,omitempty" json:"actorRole,omitempty"`
	Notes      string              `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedAt time.Time           `bson:"recordedAt" json:"recordedAt"`
}

// GatewayData holds Wompi-specific payment state.
type GatewayData struct {
	Reference      string `bson:"reference,omitempty" json:"reference,omitempty"`
	PaymentLinkID  string `bson:"paymentLinkId,omitempty" json:"paymentLinkId,omitempty"`
	PaymentLinkURL string `bson:"paymentLinkUrl,omitempty" json:"paymentLinkUrl,omitempty"`
	TransactionID  string `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}

// CashDetails records a cash collection at delivery.
type CashDetails struct {
	ReceivedAmount float64             `bson:"receivedAmount" json:"receivedAmount"`
	Change         float64             `bson:"change" json:"change"`
	ReceiptNumber  string              `bson:"receiptNumber" json:"receiptNumber"`
	CollectedBy    *primitive.ObjectID `bson:"collectedBy,omitempty" json:"collectedBy,omitempty"`
	CollectedAt    time.Time           `bson:"collectedAt" json:"collectedAt"`
}

// FailedAttempt records a declined or errored gateway attempt.
type FailedAttempt struct {
	Reference string    `bson:"reference" json:"reference"`
	Reason    string    `bson:"reason" json:"reason"`
	At        time.Time `bson:"at" json:"at"`
}

// Refund is one refund record against a paid order.
type Refund struct {
	Amount      float64             `bson:"amount" json:"amount"`
	Reason      string              `bson:"reason" json:"reason"`
	Status      string              `bson:"status" json:"status"` // processed | pending
	Reference   string              `bson:"reference" json:"reference"`
	RequestedBy *primitive.ObjectID `bson:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// Payment is the embedded payment sub-document on an order.
type Payment struct {
	Method         string          `bson:"method" json:"method"`
	Timing         string          `bson:"timing" json:"timing"`
	Status         string          `bson:"status" json:"status"`
	Amount         float64         `bson:"amount" json:"amount"`
	Partial        *PartialPayment `bson:"partial,omitempty" json:"partial,omitempty"`
	Ledger         []LedgerEntry   `bson:"ledger" json:"ledger"`
	Gateway        *GatewayData    `bson:"gateway,omitempty" json:"gateway,omitempty"`
	Cash           *CashDetails    `bson:"cash,omitempty" json:"cash,omitempty"`
	FailedAttempts []FailedAttempt `bson:"failedAttempts,omitempty" json:"failedAttempts,omitempty"`
	Refunds        []Refund        `bson:"refunds,omitempty" json:"refunds,omitempty"`
	PaidAt         *time.Time      `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// ProductionPhoto is a progress photo with client approval sub-state.
type ProductionPhoto struct {
	URL        string    `bson:"url" json:"url"`
	Stage      string    `bson:"stage,omitempty" json:"stage,omitempty"`
	Approval   string    `bson:"approval" json:"approval"` // pending | approved | changes_requested
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Order defines the persisted order aggregate.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber      string             `bson:"orderNumber" json:"orderNumber"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	DesignID         primitive.ObjectID `bson:"designId" json:"designId"`
	Items            []OrderItem        `bson:"items" json:"items"`
	Status           string             `bson:"status" json:"status"`
	StatusHistory    []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	DeliveryType     string             `bson:"deliveryType" json:"deliveryType"`
	Delivery         *DeliveryDetails   `bson:"delivery,omitempty" json:"delivery,omitempty"`
	Meetup           *MeetupDetails     `bson:"meetup,omitempty" json:"meetup,omitempty"`
	Payment          Payment            `bson:"payment" json:"payment"`
	Subtotal         float64            `bson:"subtotal" json:"subtotal"`
	DeliveryFee      float64            `bson:"deliveryFee" json:"deliveryFee"`
	Tax              float64            `bson:"tax" json:"tax"`
	Discounts        float64            `bson:"discounts" json:"discounts"`
	Total            float64            `bson:"total" json:"total"`
	LargeOrder       bool               `bson:"largeOrder" json:"largeOrder"`
	ProductionPhotos []ProductionPhoto  `bson:"productionPhotos,omitempty" json:"productionPhotos,omitempty"`
	CancelReason     string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CancelledAt      *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActiveOrderStatuses are the statuses that count against the one-active-order-
// per-design rule. Everything except cancelled and rejected.
var ActiveOrderStatuses = []string{
	OrderPendingApproval, OrderQuoted, OrderApproved,
	OrderInProduction, OrderReadyForDelivery, OrderDelivered, OrderCompleted,
}

// GenerateOrderNumber produces the business-visible order number,
// e.g. ORD-20260828-1A2B3C.
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// PaidAmount sums the settlement ledger. Refunds live in Payment.Refunds and
// do not reduce this figure.
func (o *Order) PaidAmount() float64 {
	var sum float64
	for _, e := range o.Payment.Ledger {
		switch e.Kind {
		case LedgerAdvance, LedgerRemainder, LedgerFull:
			sum += e.Amount
		}
	}
	return sum
}

// FullyPaid reports whether the ledger covers the order total (to the cent).
func (o *Order) FullyPaid() bool {
	return o.PaidAmount() >= o.Payment.Amount-0.005
}

// RefundedAmount sums processed and pending refund records.
func (o *Order) RefundedAmount() float64 {
	var sum float64
	for _, r := range o.Payment.Refunds {
		sum += r.Amount
	}
	return sum
}

// AppendStatus records a transition in the audit trail and moves the order to
// the new status. History is append-only.
func (o *Order) AppendStatus(newStatus string, actor *primitive.ObjectID, actorRole, notes string, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Previous:  o.Status,
		New:       newStatus,
		Actor:     actor,
		ActorRole: actorRole,
		Notes:     notes,
		ChangedAt: at,
	})
	o.Status = newStatus
	o.UpdatedAt = at
}
