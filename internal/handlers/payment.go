package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sublimarket/internal/payments"
)

func mapPaymentError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, payments.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, route, CodeOrderNotFound, "order not found")
	case errors.Is(err, payments.ErrAlreadyPaid):
		respondError(c, http.StatusBadRequest, route, CodeAlreadyPaid, "order is already paid")
	case errors.Is(err, payments.ErrNotPaid):
		respondError(c, http.StatusBadRequest, route, CodeNotPaid, "order has not been paid")
	case errors.Is(err, payments.ErrRefundExceedsPaid):
		respondError(c, http.StatusBadRequest, route, CodeRefundExceedsPaid, "refund amount exceeds paid amount")
	case errors.Is(err, payments.ErrInsufficientCash):
		respondError(c, http.StatusBadRequest, route, CodeInsufficientCash, "received amount does not cover the amount due")
	case errors.Is(err, payments.ErrSimulationUnavailable):
		respondError(c, http.StatusBadRequest, route, CodeSimulationDisabled, "simulated payments are disabled")
	case errors.Is(err, payments.ErrNotOrderOwner):
		respondError(c, http.StatusForbidden, route, CodeForbidden, "forbidden")
	case errors.Is(err, payments.ErrInvalidTransition):
		respondError(c, http.StatusBadRequest, route, CodeInvalidStatus, "payment is not in a state that allows this")
	default:
		respondError(c, http.StatusInternalServerError, route, CodeInternal, "db error")
	}
}

type confirmPaymentRequest struct {
	Note string `json:"note"`
}

// ConfirmPayment is the admin manual confirmation path.
func ConfirmPayment(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/confirm-payment"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		var req confirmPaymentRequest
		_ = c.ShouldBindJSON(&req) // note is optional

		adminID, _ := userIDFromContext(c)

		order, err := svc.ConfirmManual(c.Request.Context(), orderID, adminID, req.Note)
		if err != nil {
			mapPaymentError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, "payment confirmed", order)
	}
}

type cashPaymentRequest struct {
	ReceivedAmount float64 `json:"receivedAmount" binding:"required,gt=0"`
}

// RegisterCashPayment records cash collected at delivery.
func RegisterCashPayment(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/pay/cash"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		var req cashPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "receivedAmount is required")
			return
		}

		collectorID, _ := userIDFromContext(c)

		order, err := svc.RegisterCash(c.Request.Context(), orderID, collectorID, req.ReceivedAmount)
		if err != nil {
			mapPaymentError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, "cash payment registered", order)
	}
}

// SimulatePayment runs a weighted-random gateway outcome. Fictitious mode only.
func SimulatePayment(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/pay/simulate"
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

		tx, err := svc.Simulate(c.Request.Context(), orderID, userID, roleFromContext(c) == "admin")
		if err != nil {
			mapPaymentError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, "simulated transaction processed", tx)
	}
}

type refundRequest struct {
	Amount float64 `json:"amount"` // zero means refund everything still refundable
	Reason string  `json:"reason" binding:"required"`
}

// RefundOrder is the admin refund endpoint.
func RefundOrder(svc *payments.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/refund"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "invalid id")
			return
		}

		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, route, CodeInvalidRequest, "a refund reason is required")
			return
		}

		adminID, _ := userIDFromContext(c)

		order, err := svc.Refund(c.Request.Context(), orderID, req.Amount, req.Reason, adminID)
		if err != nil {
			mapPaymentError(c, route, err)
			return
		}

		respondOK(c, http.StatusOK, "refund recorded", order)
	}
}
