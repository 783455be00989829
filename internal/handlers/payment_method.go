package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"sublimarket/internal/models"
)

var cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)

type createPaymentMethodRequest struct {
	CardNumber string `json:"cardNumber" binding:"required"`
	HolderName string `json:"holderName" binding:"required"`
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "5"):
		return "mastercard"
	case strings.HasPrefix(number, "3"):
		return "amex"
	default:
		return "card"
	}
}

// GetPaymentMethods lists the requester's saved instruments.
func GetPaymentMethods(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/payment-methods"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("payment_methods").Find(ctx, bson.M{"userId": userID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		defer cursor.Close(ctx)

		methods := make([]models.PaymentMethod, 0)
		if err := cursor.All(ctx, &methods); err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}

		respondOK(c, http.StatusOK, "payment methods fetched", methods)
	}
}

// CreatePaymentMethod saves a new card as the active instrument. Only the
// last four digits and a one-way hash are stored; siblings are deactivated
// in the same transaction so at most one method is active per user.
func CreatePaymentMethod(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/payment-methods"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		var req createPaymentMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "cardNumber and holderName are required")
			return
		}

		number := strings.ReplaceAll(strings.TrimSpace(req.CardNumber), " ", "")
		if !cardNumberPattern.MatchString(number) {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "card number must be 13-19 digits")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(number), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "hashing failed")
			return
		}

		method := models.PaymentMethod{
			UserID:     userID,
			Brand:      cardBrand(number),
			LastFour:   number[len(number)-4:],
			CardHash:   string(hash),
			HolderName: strings.TrimSpace(req.HolderName),
			Active:     true,
			CreatedAt:  time.Now(),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			_, err := db.Collection("payment_methods").UpdateMany(sessCtx,
				bson.M{"userId": userID, "active": true},
				bson.M{"$set": bson.M{"active": false}},
			)
			if err != nil {
				return nil, err
			}

			res, err := db.Collection("payment_methods").InsertOne(sessCtx, method)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				method.ID = id
			}
			return nil, nil
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}

		respondOK(c, http.StatusCreated, "payment method saved", method)
	}
}

// ActivatePaymentMethod flips the active instrument, deactivating siblings.
func ActivatePaymentMethod(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/payment-methods/:id/activate"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		methodID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
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

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			res, err := db.Collection("payment_methods").UpdateOne(sessCtx,
				bson.M{"_id": methodID, "userId": userID},
				bson.M{"$set": bson.M{"active": true}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, orderError{http.StatusNotFound, CodeInvalidRequest, "payment method not found"}
			}

			_, err = db.Collection("payment_methods").UpdateMany(sessCtx,
				bson.M{"userId": userID, "_id": bson.M{"$ne": methodID}},
				bson.M{"$set": bson.M{"active": false}},
			)
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

		respondOK(c, http.StatusOK, "payment method activated", nil)
	}
}

// DeletePaymentMethod removes a saved instrument.
func DeletePaymentMethod(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/payment-methods/:id"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		methodID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("payment_methods").DeleteOne(ctx, bson.M{"_id": methodID, "userId": userID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, CodeInvalidRequest, "payment method not found")
			return
		}

		respondOK(c, http.StatusOK, "payment method deleted", nil)
	}
}
