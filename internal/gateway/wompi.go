package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type wompiClient struct {
	creds Credentials
	http  *http.Client
}

func newWompiClient(creds Credentials) *wompiClient {
	return &wompiClient{
		creds: creds,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *wompiClient) Fictitious() bool { return false }

func (w *wompiClient) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	if req.Currency == "" {
		req.Currency = "USD"
	}

	var link PaymentLink
	if err := w.post(ctx, "/payment_links", req, &link); err != nil {
		return nil, fmt.Errorf("create payment link: %w", err)
	}
	if link.Reference == "" {
		link.Reference = req.Reference
	}
	return &link, nil
}

func (w *wompiClient) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	var tx Transaction
	if err := w.get(ctx, "/transactions/"+id, &tx); err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return &tx, nil
}

func (w *wompiClient) RefundTransaction(ctx context.Context, transactionID string, amount float64) (*RefundResult, error) {
	body := map[string]any{
		"transactionId": transactionID,
		"amount":        amount,
	}
	var result RefundResult
	if err := w.post(ctx, "/refunds", body, &result); err != nil {
		return nil, fmt.Errorf("refund transaction %s: %w", transactionID, err)
	}
	return &result, nil
}

func (w *wompiClient) ValidateWebhookSignature(body []byte, signature, timestamp string) bool {
	return VerifySignature(body, signature, timestamp, w.creds.WebhookSecret, time.Now())
}

func (w *wompiClient) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.creds.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return w.do(req, out)
}

func (w *wompiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.creds.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return w.do(req, out)
}

func (w *wompiClient) do(req *http.Request, out any) error {
	req.SetBasicAuth(w.creds.ClientID, w.creds.ClientSecret)

	resp, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wompi returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
