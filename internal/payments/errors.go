package payments

import "errors"

var (
	// ErrOrderNotFound is returned when the order id matches nothing.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyPaid guards every confirmation path: a paid order cannot
	// be paid again.
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrNotPaid is returned when a refund is requested for an unpaid order.
	ErrNotPaid = errors.New("order has not been paid")
	// ErrRefundExceedsPaid is returned when the refund amount is larger
	// than what was actually settled.
	ErrRefundExceedsPaid = errors.New("refund amount exceeds paid amount")
	// ErrInvalidTransition is returned for any disallowed payment status move.
	ErrInvalidTransition = errors.New("invalid payment status transition")
	// ErrInsufficientCash is returned when the collected cash does not
	// cover the amount due.
	ErrInsufficientCash = errors.New("received amount does not cover the amount due")
	// ErrSimulationUnavailable is returned when the simulate path is called
	// while a real gateway is configured.
	ErrSimulationUnavailable = errors.New("simulated payments are only available in fictitious mode")
	// ErrNotOrderOwner is returned when a settlement path is invoked by an
	// account that neither owns the order nor is an admin.
	ErrNotOrderOwner = errors.New("order belongs to another account")
)
