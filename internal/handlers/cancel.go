package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sublimarket/internal/models"
	"sublimarket/internal/notify"
	"sublimarket/internal/payments"
)

type cancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// cancellableStatuses are the only order states cancellation may start from.
var cancellableStatuses = map[string]bool{
	models.OrderPendingApproval: true,
	models.OrderQuoted:          true,
	models.OrderApproved:        true,
}

// applyCancellation validates and applies a cancellation to an already-loaded
// order. Any settled money in the ledger (a full payment or just the advance)
// blocks self-service cancellation; an admin cancelling such an order gets the
// refund callback invoked before the status flips, so the refund record and
// the cancellation land together.
func applyCancellation(o *models.Order, actor primitive.ObjectID, isAdmin bool, reason string, now time.Time, refund func(*models.Order) error) error {
	if !cancellableStatuses[o.Status] {
		return orderError{http.StatusBadRequest, CodeCannotCancel, "order can no longer be cancelled"}
	}

	if o.PaidAmount() > 0 {
		if !isAdmin {
			return orderError{http.StatusBadRequest, CodeAlreadyPaid, "orders with a recorded payment cannot be cancelled, contact support"}
		}
		if err := refund(o); err != nil {
			return err
		}
	}

	actorRole := "client"
	if isAdmin {
		actorRole = "admin"
	}
	o.AppendStatus(models.OrderCancelled, &actor, actorRole, reason, now)
	o.CancelReason = reason
	o.CancelledAt = &now
	return nil
}

// CancelOrder handles both self-service and admin cancellation. Refund
// failure parks the record as pending; it never blocks the cancellation.
func CancelOrder(db *mongo.Database, paySvc *payments.Service, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "a cancellation reason is required")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}
		isAdmin := roleFromContext(c) == "admin"

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				return nil, orderError{http.StatusNotFound, CodeOrderNotFound, "order not found"}
			}
			if err != nil {
				return nil, err
			}

			if order.UserID != userID && !isAdmin {
				return nil, orderError{http.StatusForbidden, CodeForbidden, "forbidden"}
			}

			now := time.Now()
			refunded := order.PaidAmount() > 0
			err = applyCancellation(&order, userID, isAdmin, req.Reason, now, func(o *models.Order) error {
				return paySvc.RefundInPlace(sessCtx, o, 0, "order cancelled: "+req.Reason, &userID, now)
			})
			if err != nil {
				return nil, err
			}

			// Notify the counterparty of whoever cancelled.
			recipient := "admin"
			if isAdmin {
				recipient = order.UserID.Hex()
			}
			if err := outbox.EnqueueNotification(sessCtx, notify.Notification{
				Event:       notify.EventOrderCancelled,
				Recipient:   recipient,
				OrderID:     order.ID.Hex(),
				OrderNumber: order.OrderNumber,
				Subject:     "Order cancelled",
				Data:        map[string]any{"reason": req.Reason, "refunded": refunded},
			}); err != nil {
				return nil, err
			}

			_, err = db.Collection("orders").ReplaceOne(sessCtx, bson.M{"_id": order.ID}, order)
			return nil, err
		})
		if err != nil {
			var oe orderError
			if errors.As(err, &oe) {
				respondError(c, oe.Status, route, oe.Code, oe.Message)
				return
			}
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}

		respondOK(c, http.StatusOK, "order cancelled", order)
	}
}
