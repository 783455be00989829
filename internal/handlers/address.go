package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sublimarket/internal/models"
)

type addressRequest struct {
	Title        string `json:"title" binding:"required"`
	Department   string `json:"department" binding:"required"`
	Municipality string `json:"municipality" binding:"required"`
	Street       string `json:"street" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Reference    string `json:"reference"`
	IsDefault    bool   `json:"isDefault"`
}

// GetUserAddresses lists the requester's saved addresses.
func GetUserAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /user/addresses"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, CodeInvalidRequest, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}

		if user.Addresses == nil {
			user.Addresses = []models.Address{}
		}
		respondOK(c, http.StatusOK, "addresses fetched", user.Addresses)
	}
}

// CreateUserAddress appends a new saved address.
func CreateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /user/addresses"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidAddress, "title, department, municipality, street and phone are required")
			return
		}
		if !phonePattern.MatchString(strings.TrimSpace(req.Phone)) {
			respondError(c, http.StatusBadRequest, route, CodeInvalidPhone, "phone must be a valid national number")
			return
		}

		address := models.Address{
			ID:           uuid.NewString(),
			Title:        strings.TrimSpace(req.Title),
			Department:   strings.TrimSpace(req.Department),
			Municipality: strings.TrimSpace(req.Municipality),
			Street:       strings.TrimSpace(req.Street),
			Phone:        strings.TrimSpace(req.Phone),
			Reference:    strings.TrimSpace(req.Reference),
			IsDefault:    req.IsDefault,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		update := bson.M{
			"$push": bson.M{"addresses": address},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		res, err := db.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, CodeInvalidRequest, "user not found")
			return
		}

		respondOK(c, http.StatusCreated, "address saved", address)
	}
}

// UpdateUserAddress replaces one saved address by its embedded id.
func UpdateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /user/addresses/:id"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		addressID := c.Param("id")

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidAddress, "title, department, municipality, street and phone are required")
			return
		}
		if !phonePattern.MatchString(strings.TrimSpace(req.Phone)) {
			respondError(c, http.StatusBadRequest, route, CodeInvalidPhone, "phone must be a valid national number")
			return
		}

		address := models.Address{
			ID:           addressID,
			Title:        strings.TrimSpace(req.Title),
			Department:   strings.TrimSpace(req.Department),
			Municipality: strings.TrimSpace(req.Municipality),
			Street:       strings.TrimSpace(req.Street),
			Phone:        strings.TrimSpace(req.Phone),
			Reference:    strings.TrimSpace(req.Reference),
			IsDefault:    req.IsDefault,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": userID, "addresses.id": addressID},
			bson.M{"$set": bson.M{"addresses.$": address, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, http.StatusNotFound, route, CodeInvalidRequest, "address not found")
			return
		}

		respondOK(c, http.StatusOK, "address updated", address)
	}
}

// DeleteUserAddress removes one saved address by its embedded id.
func DeleteUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /user/addresses/:id"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, CodeForbidden, "unauthorized")
			return
		}

		addressID := c.Param("id")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{
				"$pull": bson.M{"addresses": bson.M{"id": addressID}},
				"$set":  bson.M{"updatedAt": time.Now()},
			},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondError(c, http.StatusNotFound, route, CodeInvalidRequest, "address not found")
			return
		}

		respondOK(c, http.StatusOK, "address deleted", nil)
	}
}
