package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sublimarket/internal/gateway"
	"sublimarket/internal/payments"
)

// WompiWebhook accepts gateway callbacks. The signature headers are checked
// before the payload is even parsed; stale or tampered events get a 401.
func WompiWebhook(gw gateway.Client, svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /webhooks/wompi"
		defer handlePanic(c, route)

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "unreadable body")
			return
		}

		signature := c.GetHeader("x-event-signature")
		timestamp := c.GetHeader("x-timestamp")
		if !gw.ValidateWebhookSignature(body, signature, timestamp) {
			respondError(c, http.StatusUnauthorized, route, CodeInvalidSignature, "invalid webhook signature")
			return
		}

		var event payments.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid webhook payload")
			return
		}

		if err := svc.HandleWebhook(c.Request.Context(), event); err != nil {
			// A 500 makes the gateway retry the event later; processing
			// is idempotent so replays are safe.
			log.Println("[WEBHOOK] [ERROR] processing failed:", err)
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "webhook processing failed")
			return
		}

		respondOK(c, http.StatusOK, "webhook processed", nil)
	}
}
