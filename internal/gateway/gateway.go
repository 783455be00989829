// Package gateway wraps the Wompi payment API. When credentials are absent
// the fictitious client stands in with deterministic success responses so the
// order flow keeps working in development.
package gateway

import (
	"context"
	"log"
)

// Transaction statuses as reported by the gateway.
const (
	TxApproved = "APPROVED"
	TxDeclined = "DECLINED"
	TxError    = "ERROR"
	TxPending  = "PENDING"
)

// PaymentLinkRequest describes a payment link to create.
type PaymentLinkRequest struct {
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	RedirectURL string  `json:"redirectUrl,omitempty"`
}

// PaymentLink is the created link.
type PaymentLink struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

// Transaction is the gateway's view of a payment attempt.
type Transaction struct {
	ID        string  `json:"id"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message,omitempty"`
}

// RefundResult is the outcome of a refund request.
type RefundResult struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// Client is the payment gateway surface the rest of the system depends on.
type Client interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	RefundTransaction(ctx context.Context, transactionID string, amount float64) (*RefundResult, error)
	ValidateWebhookSignature(body []byte, signature, timestamp string) bool
	Fictitious() bool
}

// Credentials configures the real client.
type Credentials struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
}

// New returns the real Wompi client when all credentials are present, the
// fictitious client otherwise.
func New(creds Credentials) Client {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.WebhookSecret == "" {
		log.Println("[GATEWAY] [WARN] wompi credentials missing, running in fictitious mode")
		return newFictitiousClient()
	}
	return newWompiClient(creds)
}
