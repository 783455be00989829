package gateway

import (
	"strconv"
	"testing"
	"time"
)

const testSecret = "whsec_test"

func TestVerifySignatureAcceptsFreshPayload(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"event":"transaction.updated"}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	sig := ComputeSignature(body, ts, testSecret)
	if !VerifySignature(body, sig, ts, testSecret, now) {
		t.Fatal("expected fresh, correctly signed payload to verify")
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	body := []byte(`{"event":"transaction.updated"}`)

	// 301 seconds old, HMAC still correct.
	ts := strconv.FormatInt(now.Add(-301*time.Second).Unix(), 10)
	sig := ComputeSignature(body, ts, testSecret)

	if VerifySignature(body, sig, ts, testSecret, now) {
		t.Fatal("expected stale payload to be rejected even with a correct HMAC")
	}
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := ComputeSignature([]byte(`{"amount":59.89}`), ts, testSecret)

	if VerifySignature([]byte(`{"amount":5989.00}`), sig, ts, testSecret, now) {
		t.Fatal("expected tampered body to be rejected")
	}
}

func TestVerifySignatureRejectsGarbageTimestamp(t *testing.T) {
	if VerifySignature([]byte("{}"), "abc", "not-a-unix-time", testSecret, time.Now()) {
		t.Fatal("expected non-numeric timestamp to be rejected")
	}
}

func TestSimulatorDistribution(t *testing.T) {
	sim := NewSimulator(42)

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		tx := sim.Next(10)
		counts[tx.Status]++
	}

	if counts[TxApproved] < 5500 || counts[TxApproved] > 6500 {
		t.Fatalf("approved share out of range: %d/%d", counts[TxApproved], n)
	}
	if counts[TxDeclined] == 0 || counts[TxError] == 0 {
		t.Fatalf("expected declined and errored outcomes, got %v", counts)
	}
}

func TestFictitiousClientAlwaysApproves(t *testing.T) {
	c := newFictitiousClient()

	if !c.ValidateWebhookSignature([]byte("anything"), "bogus", "0") {
		t.Fatal("fictitious validator must accept any signature")
	}

	tx, err := c.GetTransaction(nil, "tx-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Status != TxApproved {
		t.Fatalf("expected APPROVED, got %s", tx.Status)
	}
}
