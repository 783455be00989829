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
)

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// allowedStatusTransitions is the admin-driven part of the order lifecycle.
// Production and cancellation moves go through their own endpoints.
var allowedStatusTransitions = map[string][]string{
	models.OrderPendingApproval:  {models.OrderQuoted, models.OrderApproved, models.OrderRejected},
	models.OrderQuoted:           {models.OrderApproved, models.OrderRejected},
	models.OrderApproved:         {models.OrderInProduction},
	models.OrderInProduction:     {models.OrderReadyForDelivery},
	models.OrderReadyForDelivery: {models.OrderDelivered},
	models.OrderDelivered:        {models.OrderCompleted},
}

func statusTransitionAllowed(from, to string) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transitionOrder loads the order, applies one admin transition and saves it,
// all in a transaction, enqueueing the status notification alongside.
func transitionOrder(c *gin.Context, db *mongo.Database, outbox *notify.Outbox, route string, apply func(o *models.Order, adminID primitive.ObjectID, now time.Time) error) {
	defer handlePanic(c, route)

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
		return
	}

	adminID, _ := userIDFromContext(c)

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

		now := time.Now()
		if err := apply(&order, adminID, now); err != nil {
			return nil, err
		}

		if err := outbox.EnqueueNotification(sessCtx, notify.Notification{
			Event:       notify.EventStatusChanged,
			Recipient:   order.UserID.Hex(),
			OrderID:     order.ID.Hex(),
			OrderNumber: order.OrderNumber,
			Subject:     "Order status updated",
			Data:        map[string]any{"status": order.Status},
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

	respondOK(c, http.StatusOK, "order updated", order)
}

// UpdateOrderStatus is the generic admin transition endpoint.
func UpdateOrderStatus(db *mongo.Database, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/:id/status"

		var req statusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid request body")
			return
		}

		transitionOrder(c, db, outbox, route, func(o *models.Order, adminID primitive.ObjectID, now time.Time) error {
			if !statusTransitionAllowed(o.Status, req.Status) {
				return orderError{http.StatusBadRequest, CodeInvalidStatus, "transition from " + o.Status + " to " + req.Status + " is not allowed"}
			}
			o.AppendStatus(req.Status, &adminID, "admin", req.Notes, now)
			return nil
		})
	}
}

// MarkDelivered moves a ready order to delivered and closes out the items.
func MarkDelivered(db *mongo.Database, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/delivered"

		transitionOrder(c, db, outbox, route, func(o *models.Order, adminID primitive.ObjectID, now time.Time) error {
			if o.Status != models.OrderReadyForDelivery {
				return orderError{http.StatusBadRequest, CodeInvalidStatus, "only ready orders can be delivered"}
			}
			for i := range o.Items {
				o.Items[i].Status = models.ItemDelivered
			}
			o.AppendStatus(models.OrderDelivered, &adminID, "admin", "", now)
			return nil
		})
	}
}

// CompleteOrder closes a delivered order.
func CompleteOrder(db *mongo.Database, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/complete"

		transitionOrder(c, db, outbox, route, func(o *models.Order, adminID primitive.ObjectID, now time.Time) error {
			if o.Status != models.OrderDelivered {
				return orderError{http.StatusBadRequest, CodeInvalidStatus, "only delivered orders can be completed"}
			}
			o.AppendStatus(models.OrderCompleted, &adminID, "admin", "", now)
			return nil
		})
	}
}
