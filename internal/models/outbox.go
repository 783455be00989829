package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outbox message statuses.
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Outbox message types.
const (
	OutboxNotification = "notification"
	OutboxPaymentLink  = "payment_link"
)

// OutboxMessage is a side effect recorded in the same transaction as the
// order mutation that caused it, delivered later by the outbox worker.
type OutboxMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type          string             `bson:"type" json:"type"`
	Payload       bson.M             `bson:"payload" json:"payload"`
	Status        string             `bson:"status" json:"status"`
	Attempts      int                `bson:"attempts" json:"attempts"`
	NextAttemptAt time.Time          `bson:"nextAttemptAt" json:"nextAttemptAt"`
	LastError     string             `bson:"lastError,omitempty" json:"lastError,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	SentAt        *time.Time         `bson:"sentAt,omitempty" json:"sentAt,omitempty"`
}
