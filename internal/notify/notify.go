// Package notify delivers lifecycle notifications through a transactional
// outbox. Side effects are enqueued in the same mongo transaction as the
// order mutation and drained by a background worker, so a crash between
// commit and delivery can never lose them.
package notify

import (
	"context"
	"log"
)

// Notification event types.
const (
	EventOrderCreated       = "order_created"
	EventStatusChanged      = "status_changed"
	EventPaymentConfirmed   = "payment_confirmed"
	EventProductionProgress = "production_progress"
	EventOrderCancelled     = "order_cancelled"
)

// Notification is a typed payload for one lifecycle event.
type Notification struct {
	Event       string         `bson:"event" json:"event"`
	Recipient   string         `bson:"recipient" json:"recipient"` // "admin" or a user email
	OrderID     string         `bson:"orderId" json:"orderId"`
	OrderNumber string         `bson:"orderNumber" json:"orderNumber"`
	Subject     string         `bson:"subject" json:"subject"`
	Data        map[string]any `bson:"data,omitempty" json:"data,omitempty"`
}

// Dispatcher sends a single notification. The email/templating integration
// is an external collaborator behind this interface.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// LogDispatcher writes notifications to the application log. Stands in for
// the mail integration in development and tests.
type LogDispatcher struct{}

func (LogDispatcher) Send(_ context.Context, n Notification) error {
	log.Printf("[NOTIFY] [INFO] %s -> %s (order %s): %s", n.Event, n.Recipient, n.OrderNumber, n.Subject)
	return nil
}
