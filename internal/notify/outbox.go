package notify

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sublimarket/internal/gateway"
	"sublimarket/internal/models"
)

// MaxAttempts is how many deliveries are tried before a message is parked
// as failed for manual inspection.
const MaxAttempts = 8

// Outbox writes pending side-effect messages. Enqueue calls take the session
// context of the surrounding transaction so the message commits atomically
// with the order mutation.
type Outbox struct {
	db *mongo.Database
}

func NewOutbox(db *mongo.Database) *Outbox {
	return &Outbox{db: db}
}

// EnqueueNotification records a notification for later delivery.
func (o *Outbox) EnqueueNotification(ctx context.Context, n Notification) error {
	payload, err := toPayload(n)
	if err != nil {
		return err
	}
	return o.enqueue(ctx, models.OutboxNotification, payload)
}

// PaymentLinkJob asks the worker to create a gateway payment link for an
// order and record it on the payment sub-document.
type PaymentLinkJob struct {
	OrderID     primitive.ObjectID `bson:"orderId" json:"orderId"`
	Reference   string             `bson:"reference" json:"reference"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description" json:"description"`
}

// EnqueuePaymentLink records a payment-link creation job.
func (o *Outbox) EnqueuePaymentLink(ctx context.Context, job PaymentLinkJob) error {
	payload, err := toPayload(job)
	if err != nil {
		return err
	}
	return o.enqueue(ctx, models.OutboxPaymentLink, payload)
}

func (o *Outbox) enqueue(ctx context.Context, msgType string, payload bson.M) error {
	now := time.Now()
	_, err := o.db.Collection("outbox").InsertOne(ctx, models.OutboxMessage{
		Type:          msgType,
		Payload:       payload,
		Status:        models.OutboxPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	})
	return err
}

func toPayload(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Backoff returns the delay before the given retry attempt (1-based):
// 1m, 2m, 4m, ... capped at 1h.
func Backoff(attempt int) time.Duration {
	d := time.Minute
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	return d
}

// Worker drains the outbox in the background.
type Worker struct {
	db         *mongo.Database
	dispatcher Dispatcher
	gw         gateway.Client
	interval   time.Duration
}

func NewWorker(db *mongo.Database, dispatcher Dispatcher, gw gateway.Client, interval time.Duration) *Worker {
	return &Worker{db: db, dispatcher: dispatcher, gw: gw, interval: interval}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Println("[OUTBOX] [INFO] worker started, polling every", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OUTBOX] [INFO] worker stopped")
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) {
	for {
		msg, ok := w.claim(ctx)
		if !ok {
			return
		}
		if err := w.process(ctx, msg); err != nil {
			w.reschedule(ctx, msg, err)
			continue
		}
		now := time.Now()
		_, err := w.db.Collection("outbox").UpdateOne(ctx,
			bson.M{"_id": msg.ID},
			bson.M{"$set": bson.M{"status": models.OutboxSent, "sentAt": now}},
		)
		if err != nil {
			log.Println("[OUTBOX] [ERROR] marking message sent:", err)
		}
	}
}

// claim picks one due pending message and bumps its attempt counter so a
// crash mid-delivery shows up in the audit trail.
func (w *Worker) claim(ctx context.Context) (models.OutboxMessage, bool) {
	var msg models.OutboxMessage
	err := w.db.Collection("outbox").FindOneAndUpdate(ctx,
		bson.M{
			"status":        models.OutboxPending,
			"nextAttemptAt": bson.M{"$lte": time.Now()},
		},
		bson.M{
			"$inc": bson.M{"attempts": 1},
			"$set": bson.M{"nextAttemptAt": time.Now().Add(w.interval)},
		},
	).Decode(&msg)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Println("[OUTBOX] [ERROR] claiming message:", err)
		}
		return models.OutboxMessage{}, false
	}
	msg.Attempts++
	return msg, true
}

func (w *Worker) process(ctx context.Context, msg models.OutboxMessage) error {
	raw, err := bson.Marshal(msg.Payload)
	if err != nil {
		return err
	}

	switch msg.Type {
	case models.OutboxNotification:
		var n Notification
		if err := bson.Unmarshal(raw, &n); err != nil {
			return err
		}
		return w.dispatcher.Send(ctx, n)

	case models.OutboxPaymentLink:
		var job PaymentLinkJob
		if err := bson.Unmarshal(raw, &job); err != nil {
			return err
		}
		return w.createPaymentLink(ctx, job)

	default:
		log.Println("[OUTBOX] [WARN] unknown message type:", msg.Type)
		return nil
	}
}

func (w *Worker) createPaymentLink(ctx context.Context, job PaymentLinkJob) error {
	link, err := w.gw.CreatePaymentLink(ctx, gateway.PaymentLinkRequest{
		Reference:   job.Reference,
		Amount:      job.Amount,
		Currency:    "USD",
		Description: job.Description,
	})
	if err != nil {
		return err
	}

	_, err = w.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": job.OrderID},
		bson.M{"$set": bson.M{
			"payment.gateway.reference":      link.Reference,
			"payment.gateway.paymentLinkId":  link.ID,
			"payment.gateway.paymentLinkUrl": link.URL,
			"updatedAt":                      time.Now(),
		}},
	)
	return err
}

func (w *Worker) reschedule(ctx context.Context, msg models.OutboxMessage, cause error) {
	log.Printf("[OUTBOX] [WARN] delivery attempt %d for %s failed: %v", msg.Attempts, msg.Type, cause)

	update := bson.M{
		"lastError":     cause.Error(),
		"nextAttemptAt": time.Now().Add(Backoff(msg.Attempts)),
	}
	if msg.Attempts >= MaxAttempts {
		update["status"] = models.OutboxFailed
		log.Printf("[OUTBOX] [ERROR] message %s gave up after %d attempts", msg.ID.Hex(), msg.Attempts)
	}

	_, err := w.db.Collection("outbox").UpdateOne(ctx,
		bson.M{"_id": msg.ID},
		bson.M{"$set": update},
	)
	if err != nil {
		log.Println("[OUTBOX] [ERROR] rescheduling message:", err)
	}
}
