package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublimarket/internal/models"
)

// GetOrders lists the requester's orders, newest first. Admins see every
// order. Supports ?status= filtering and pagination.
func GetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if roleFromContext(c) != "admin" {
			filter["userId"] = userID
		}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "orders could not be fetched")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "failed to parse orders")
			return
		}

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "orders could not be counted")
			return
		}

		respondOK(c, http.StatusOK, "orders fetched", gin.H{
			"orders": orders,
			"page":   page,
			"limit":  limit,
			"total":  total,
		})
	}
}

// GetOrder returns a single order to its owner or to an admin.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, CodeOrderNotFound, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}

		if order.UserID != userID && roleFromContext(c) != "admin" {
			respondError(c, http.StatusForbidden, route, CodeForbidden, "forbidden")
			return
		}

		respondOK(c, http.StatusOK, "order fetched", order)
	}
}
