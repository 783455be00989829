package gateway

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// fictitiousClient replaces every gateway call with a deterministic success
// payload carrying a synthetic reference. Development convenience only;
// config.Load refuses to start production without real credentials.
type fictitiousClient struct{}

func newFictitiousClient() *fictitiousClient { return &fictitiousClient{} }

func (f *fictitiousClient) Fictitious() bool { return true }

func (f *fictitiousClient) CreatePaymentLink(_ context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	id := "FICT-" + uuid.NewString()
	log.Println("[GATEWAY] [INFO] fictitious payment link created:", id)
	return &PaymentLink{
		ID:        id,
		URL:       "https://pay.example.test/" + id,
		Reference: req.Reference,
	}, nil
}

func (f *fictitiousClient) GetTransaction(_ context.Context, id string) (*Transaction, error) {
	return &Transaction{
		ID:        id,
		Reference: "FICT-" + id,
		Status:    TxApproved,
	}, nil
}

func (f *fictitiousClient) RefundTransaction(_ context.Context, transactionID string, amount float64) (*RefundResult, error) {
	return &RefundResult{
		Reference: "FICT-REFUND-" + uuid.NewString(),
		Amount:    amount,
		Status:    TxApproved,
	}, nil
}

func (f *fictitiousClient) ValidateWebhookSignature(_ []byte, _, _ string) bool {
	return true
}
