package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	assert.Equal(t, time.Minute, Backoff(1))
	assert.Equal(t, 2*time.Minute, Backoff(2))
	assert.Equal(t, 4*time.Minute, Backoff(3))
	assert.Equal(t, 32*time.Minute, Backoff(6))
	assert.Equal(t, time.Hour, Backoff(7))
	assert.Equal(t, time.Hour, Backoff(20))
}

func TestNotificationPayloadRoundTrip(t *testing.T) {
	n := Notification{
		Event:       EventPaymentConfirmed,
		Recipient:   "cliente@example.com",
		OrderID:     "abc",
		OrderNumber: "ORD-20260828-1A2B3C",
		Subject:     "Pago confirmado",
		Data:        map[string]any{"amount": 59.89},
	}

	payload, err := toPayload(n)
	assert.NoError(t, err)
	assert.Equal(t, EventPaymentConfirmed, payload["event"])
	assert.Equal(t, "ORD-20260828-1A2B3C", payload["orderNumber"])
}
