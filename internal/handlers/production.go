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

type productionUpdateRequest struct {
	Stage    string `json:"stage" binding:"required"`
	Notes    string `json:"notes"`
	PhotoURL string `json:"photoUrl"`
}

// applyProductionStage marks the named stage completed on every item and
// recomputes the derived statuses:
//
//   - approved orders auto-transition to in_production on the first update
//   - an item becomes ready once all six stages are complete
//   - the order becomes ready_for_delivery once every item is ready
//
// Re-marking an already-completed stage keeps the earlier completion record,
// so progress never moves backwards.
func applyProductionStage(o *models.Order, stage string, actor *primitive.ObjectID, notes, photoURL string, now time.Time) error {
	if !models.IsProductionStage(stage) {
		return orderError{http.StatusBadRequest, CodeInvalidStage, "unknown production stage"}
	}
	if o.Status != models.OrderApproved && o.Status != models.OrderInProduction {
		return orderError{http.StatusBadRequest, CodeNotInProduction, "order is not in production"}
	}

	if o.Status == models.OrderApproved {
		o.AppendStatus(models.OrderInProduction, actor, "admin", "production started", now)
	}

	allReady := true
	for i := range o.Items {
		item := &o.Items[i]
		if item.ProductionStages == nil {
			item.ProductionStages = newProductionStages()
		}

		st := item.ProductionStages[stage]
		if !st.Completed {
			completedAt := now
			item.ProductionStages[stage] = models.ProductionStage{
				Completed:   true,
				CompletedAt: &completedAt,
				CompletedBy: actor,
				Notes:       notes,
				PhotoURL:    photoURL,
			}
		}

		completed := 0
		for _, s := range item.ProductionStages {
			if s.Completed {
				completed++
			}
		}
		item.ProductionProgress = float64(completed) / float64(len(models.StageNames))

		if completed == len(models.StageNames) {
			item.Status = models.ItemReady
		} else {
			item.Status = models.ItemInProduction
			allReady = false
		}
	}

	if photoURL != "" {
		o.ProductionPhotos = append(o.ProductionPhotos, models.ProductionPhoto{
			URL:        photoURL,
			Stage:      stage,
			Approval:   "pending",
			Notes:      notes,
			UploadedAt: now,
		})
	}

	if allReady && o.Status != models.OrderReadyForDelivery {
		o.AppendStatus(models.OrderReadyForDelivery, actor, "admin", "all production stages complete", now)
	}
	o.UpdatedAt = now
	return nil
}

// orderProgress averages item progress for the notification payload.
func orderProgress(o *models.Order) float64 {
	if len(o.Items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range o.Items {
		sum += item.ProductionProgress
	}
	return sum / float64(len(o.Items))
}

// UpdateProduction is the admin endpoint for marking a production stage done.
func UpdateProduction(db *mongo.Database, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/production"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		var req productionUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid request body")
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
			if err := applyProductionStage(&order, req.Stage, &adminID, req.Notes, req.PhotoURL, now); err != nil {
				return nil, err
			}

			if err := outbox.EnqueueNotification(sessCtx, notify.Notification{
				Event:       notify.EventProductionProgress,
				Recipient:   order.UserID.Hex(),
				OrderID:     order.ID.Hex(),
				OrderNumber: order.OrderNumber,
				Subject:     "Your order is moving through production",
				Data: map[string]any{
					"stage":    req.Stage,
					"progress": orderProgress(&order),
					"status":   order.Status,
				},
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

		respondOK(c, http.StatusOK, "production updated", order)
	}
}
