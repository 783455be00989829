package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// MaxSignatureAge is the freshness window for webhook timestamps.
const MaxSignatureAge = 300 * time.Second

// ComputeSignature returns the hex HMAC-SHA256 over body + timestamp + secret.
func ComputeSignature(body []byte, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the webhook signature headers. The timestamp is a
// unix-seconds string and must be within MaxSignatureAge of now; stale
// payloads are rejected before the HMAC comparison.
func VerifySignature(body []byte, signature, timestamp, secret string, now time.Time) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}

	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > MaxSignatureAge {
		return false
	}

	expected := ComputeSignature(body, timestamp, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
