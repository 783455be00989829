package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Machine-readable error codes surfaced alongside the HTTP status.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidDesignID    = "INVALID_DESIGN_ID"
	CodeDesignNotFound     = "DESIGN_NOT_FOUND"
	CodeDesignNotQuoted    = "DESIGN_NOT_QUOTED"
	CodeDesignNotPriced    = "DESIGN_NOT_PRICED"
	CodeDuplicateOrder     = "DUPLICATE_ORDER"
	CodeProductInactive    = "PRODUCT_INACTIVE"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidAddress     = "INVALID_ADDRESS"
	CodeInvalidPhone       = "INVALID_PHONE"
	CodeInvalidMeetupDate  = "INVALID_MEETUP_DATE"
	CodeInvalidAdvance     = "INVALID_ADVANCE_PERCENT"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeAlreadyPaid        = "ALREADY_PAID"
	CodeNotPaid            = "NOT_PAID"
	CodeRefundExceedsPaid  = "REFUND_EXCEEDS_PAID"
	CodeInsufficientCash   = "INSUFFICIENT_CASH"
	CodeCannotCancel       = "CANNOT_CANCEL"
	CodeInvalidStage       = "INVALID_STAGE"
	CodeNotInProduction    = "NOT_IN_PRODUCTION"
	CodeSimulationDisabled = "SIMULATION_DISABLED"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeInternal           = "INTERNAL_ERROR"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "internal server error",
			"error":   gin.H{"code": CodeInternal},
		})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

// respondOK writes the uniform success envelope.
func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError writes the uniform failure envelope and logs it.
func respondError(c *gin.Context, status int, route, code, message string) {
	log.Printf("[%s] returning error %d %s: %s", route, status, code, message)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"error":   gin.H{"code": code},
	})
}

// userIDFromContext reads the id injected by the auth middleware.
func userIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	value, exists := c.Get("userId")
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := value.(primitive.ObjectID)
	return id, ok
}

// roleFromContext reads the role claim injected by the auth middleware.
func roleFromContext(c *gin.Context) string {
	value, _ := c.Get("role")
	role, _ := value.(string)
	return role
}
