package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"sublimarket/internal/models"
	"sublimarket/internal/notify"
	"sublimarket/internal/pricing"
)

// MinMeetupLead is how far in the future a meetup must be scheduled.
const MinMeetupLead = 24 * time.Hour

// Salvadoran landline/mobile numbers: 2, 6 or 7 prefix, 8 digits, optional dash.
var phonePattern = regexp.MustCompile(`^[267]\d{3}-?\d{4}$`)

/* =========================
   REQUEST DTOs
========================= */

type orderAddressRequest struct {
	Title        string `json:"title"`
	Department   string `json:"department" binding:"required"`
	Municipality string `json:"municipality" binding:"required"`
	Street       string `json:"street" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Reference    string `json:"reference"`
}

type orderMeetupRequest struct {
	Location string    `json:"location" binding:"required"`
	Date     time.Time `json:"date" binding:"required"`
	Phone    string    `json:"phone"`
}

type createOrderRequest struct {
	DesignID       string               `json:"designId" binding:"required"`
	Quantity       int                  `json:"quantity" binding:"required"`
	DeliveryType   string               `json:"deliveryType" binding:"required,oneof=meetup delivery"`
	Address        *orderAddressRequest `json:"address"`
	Meetup         *orderMeetupRequest  `json:"meetup"`
	PaymentMethod  string               `json:"paymentMethod" binding:"required,oneof=wompi cash"`
	PaymentTiming  string               `json:"paymentTiming" binding:"required,oneof=advance on_delivery"`
	AdvancePercent int                  `json:"advancePercent"`
	SaveAddress    bool                 `json:"saveAddress"`
}

// orderError aborts the creation transaction with a machine-readable code.
type orderError struct {
	Status  int
	Code    string
	Message string
}

func (e orderError) Error() string { return e.Message }

/* =========================
   DELIVERY VALIDATION
========================= */

// buildDeliveryDetails validates the structural shape of the delivery payload
// and converts it into the embedded sub-documents.
func buildDeliveryDetails(req createOrderRequest, now time.Time) (*models.DeliveryDetails, *models.MeetupDetails, *orderError) {
	switch req.DeliveryType {
	case models.DeliveryTypeDelivery:
		addr := req.Address
		if addr == nil || strings.TrimSpace(addr.Department) == "" ||
			strings.TrimSpace(addr.Municipality) == "" || strings.TrimSpace(addr.Street) == "" {
			return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidAddress, "address with department, municipality and street is required"}
		}
		if !phonePattern.MatchString(strings.TrimSpace(addr.Phone)) {
			return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidPhone, "phone must be a valid national number"}
		}
		return &models.DeliveryDetails{
			Department:   strings.TrimSpace(addr.Department),
			Municipality: strings.TrimSpace(addr.Municipality),
			Street:       strings.TrimSpace(addr.Street),
			Phone:        strings.TrimSpace(addr.Phone),
			Reference:    strings.TrimSpace(addr.Reference),
		}, nil, nil

	case models.DeliveryTypeMeetup:
		meetup := req.Meetup
		if meetup == nil || strings.TrimSpace(meetup.Location) == "" {
			return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidAddress, "meetup location is required"}
		}
		if meetup.Date.Before(now.Add(MinMeetupLead)) {
			return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidMeetupDate, "meetup must be scheduled at least 24 hours ahead"}
		}
		if meetup.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(meetup.Phone)) {
			return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidPhone, "phone must be a valid national number"}
		}
		return nil, &models.MeetupDetails{
			Location: strings.TrimSpace(meetup.Location),
			Date:     meetup.Date,
			Phone:    strings.TrimSpace(meetup.Phone),
		}, nil
	}

	return nil, nil, &orderError{http.StatusBadRequest, CodeInvalidRequest, "unknown delivery type"}
}

// newProductionStages initializes the six-milestone checklist for an item.
func newProductionStages() map[string]models.ProductionStage {
	stages := make(map[string]models.ProductionStage, len(models.StageNames))
	for _, name := range models.StageNames {
		stages[name] = models.ProductionStage{}
	}
	return stages
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(db *mongo.Database, outbox *notify.Outbox) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, CodeInternal, "database unavailable")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid request body")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		if req.Quantity < 1 || req.Quantity > 100 {
			respondError(c, http.StatusBadRequest, route, CodeInvalidQuantity, "quantity must be between 1 and 100")
			return
		}

		designID, err := primitive.ObjectIDFromHex(req.DesignID)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidDesignID, "invalid design id")
			return
		}

		now := time.Now()
		delivery, meetup, reqErr := buildDeliveryDetails(req, now)
		if reqErr != nil {
			respondError(c, reqErr.Status, route, reqErr.Code, reqErr.Message)
			return
		}

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
			var design models.Design
			err := db.Collection("designs").FindOne(sessCtx, bson.M{"_id": designID}).Decode(&design)
			if err == mongo.ErrNoDocuments {
				return nil, orderError{http.StatusNotFound, CodeDesignNotFound, "design not found"}
			}
			if err != nil {
				return nil, err
			}

			if design.UserID != userID {
				return nil, orderError{http.StatusForbidden, CodeForbidden, "design belongs to another account"}
			}
			if design.Status != models.DesignQuoted && design.Status != models.DesignApproved {
				return nil, orderError{http.StatusBadRequest, CodeDesignNotQuoted, "design must be quoted before ordering"}
			}
			if design.Price <= 0 {
				return nil, orderError{http.StatusBadRequest, CodeDesignNotPriced, "design has no quoted price"}
			}

			count, err := db.Collection("orders").CountDocuments(sessCtx, bson.M{
				"designId": designID,
				"status":   bson.M{"$in": models.ActiveOrderStatuses},
			})
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, orderError{http.StatusConflict, CodeDuplicateOrder, "an active order already exists for this design"}
			}

			var product models.Product
			err = db.Collection("products").FindOne(sessCtx, bson.M{"_id": design.ProductID}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				return nil, orderError{http.StatusBadRequest, CodeProductInactive, "product no longer available"}
			}
			if err != nil {
				return nil, err
			}
			if !product.IsActive {
				return nil, orderError{http.StatusBadRequest, CodeProductInactive, "product no longer available"}
			}

			department := ""
			if delivery != nil {
				department = delivery.Department
			}
			quote := pricing.Compute(design.Price, product.OptionSurcharges(design.OptionNames), req.Quantity, req.DeliveryType, department)

			var partial *models.PartialPayment
			if req.PaymentTiming == models.TimingAdvance && quote.LargeOrder {
				advance, remaining, err := pricing.SplitAdvance(quote.Total, req.AdvancePercent)
				if err != nil {
					return nil, orderError{http.StatusBadRequest, CodeInvalidAdvance, err.Error()}
				}
				percent := req.AdvancePercent
				if percent == 0 {
					percent = pricing.DefaultAdvancePercent
				}
				partial = &models.PartialPayment{
					AdvancePercent:  percent,
					AdvanceAmount:   advance,
					RemainingAmount: remaining,
				}
			} else if req.AdvancePercent != 0 {
				return nil, orderError{http.StatusBadRequest, CodeInvalidAdvance, "partial payment is only available for large orders paid in advance"}
			}

			orderNumber := models.GenerateOrderNumber(now)
			order = models.Order{
				OrderNumber:  orderNumber,
				UserID:       userID,
				DesignID:     designID,
				Status:       models.OrderPendingApproval,
				DeliveryType: req.DeliveryType,
				Delivery:     delivery,
				Meetup:       meetup,
				Items: []models.OrderItem{{
					ProductID:        product.ID,
					DesignID:         designID,
					Name:             design.Name,
					Quantity:         req.Quantity,
					UnitPrice:        quote.UnitPrice,
					Subtotal:         quote.Subtotal,
					Status:           models.ItemPending,
					ProductionStages: newProductionStages(),
				}},
				StatusHistory: []models.StatusChange{{
					New:       models.OrderPendingApproval,
					Actor:     &userID,
					ActorRole: "client",
					ChangedAt: now,
				}},
				Payment: models.Payment{
					Method:  req.PaymentMethod,
					Timing:  req.PaymentTiming,
					Status:  models.PaymentPending,
					Amount:  quote.Total,
					Partial: partial,
					Ledger:  []models.LedgerEntry{},
				},
				Subtotal:    quote.Subtotal,
				DeliveryFee: quote.DeliveryFee,
				Tax:         quote.Tax,
				Total:       quote.Total,
				LargeOrder:  quote.LargeOrder,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if req.PaymentMethod == models.MethodWompi {
				order.Payment.Gateway = &models.GatewayData{Reference: orderNumber}
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				if mongo.IsDuplicateKeyError(err) {
					// The partial unique index on designId caught a
					// concurrent creation racing past the count guard.
					return nil, orderError{http.StatusConflict, CodeDuplicateOrder, "an active order already exists for this design"}
				}
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}

			if design.Status == models.DesignQuoted {
				_, err = db.Collection("designs").UpdateOne(sessCtx,
					bson.M{"_id": designID},
					bson.M{"$set": bson.M{"status": models.DesignApproved, "updatedAt": now}},
				)
				if err != nil {
					return nil, err
				}
			}

			_, err = db.Collection("products").UpdateOne(sessCtx,
				bson.M{"_id": product.ID},
				bson.M{
					"$inc": bson.M{"stats.orders": 1, "stats.unitsSold": req.Quantity},
					"$set": bson.M{"stats.lastOrderedAt": now},
				},
			)
			if err != nil {
				return nil, err
			}

			if req.SaveAddress && delivery != nil {
				title := "Delivery"
				if req.Address != nil && strings.TrimSpace(req.Address.Title) != "" {
					title = strings.TrimSpace(req.Address.Title)
				}
				_, err = db.Collection("users").UpdateOne(sessCtx,
					bson.M{"_id": userID},
					bson.M{
						"$push": bson.M{"addresses": models.Address{
							ID:           uuid.NewString(),
							Title:        title,
							Department:   delivery.Department,
							Municipality: delivery.Municipality,
							Street:       delivery.Street,
							Phone:        delivery.Phone,
							Reference:    delivery.Reference,
						}},
						"$set": bson.M{"updatedAt": now},
					},
				)
				if err != nil {
					return nil, err
				}
			}

			if err := outbox.EnqueueNotification(sessCtx, notify.Notification{
				Event:       notify.EventOrderCreated,
				Recipient:   "admin",
				OrderID:     order.ID.Hex(),
				OrderNumber: orderNumber,
				Subject:     "New order awaiting approval",
				Data:        map[string]any{"total": quote.Total, "quantity": req.Quantity},
			}); err != nil {
				return nil, err
			}

			if req.PaymentMethod == models.MethodWompi && req.PaymentTiming == models.TimingAdvance {
				amount := quote.Total
				if partial != nil {
					amount = partial.AdvanceAmount
				}
				if err := outbox.EnqueuePaymentLink(sessCtx, notify.PaymentLinkJob{
					OrderID:     order.ID,
					Reference:   orderNumber,
					Amount:      amount,
					Description: "Sublimation order " + orderNumber,
				}); err != nil {
					return nil, err
				}
			}

			return nil, nil
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

		respondOK(c, http.StatusCreated, "order created", order)
	}
}
