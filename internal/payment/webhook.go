package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types reported by the gateway
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentFailed     = "checkout.session.async_payment_failed"
)

// DefaultTolerance bounds how old a signed webhook may be
const DefaultTolerance = 5 * time.Minute

// WebhookEvent is the decoded gateway callback payload
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string `json:"id"`
			ClientReferenceID string `json:"client_reference_id"`
			AmountTotal       int64  `json:"amount_total"`
		} `json:"object"`
	} `json:"data"`
}

// SessionID returns the payment session the event refers to
func (e *WebhookEvent) SessionID() string {
	return e.Data.Object.ID
}

// WebhookVerifier checks gateway signatures on inbound events
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the shared webhook secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

// VerifyAndParse checks the signature header against the payload and
// decodes the event. The header carries `t=<unix>,v1=<hex hmac>` and the
// signed message is `<t>.<payload>`.
func (v *WebhookVerifier) VerifyAndParse(payload []byte, sigHeader string) (*WebhookEvent, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return nil, fmt.Errorf("webhook timestamp outside tolerance")
	}

	expected := ComputeSignature(v.secret, timestamp, payload)
	valid := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("webhook signature mismatch")
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("webhook event missing id or type")
	}
	return &event, nil
}

// ComputeSignature returns the hex HMAC-SHA256 of `<t>.<payload>`
func ComputeSignature(secret []byte, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("missing signature header")
	}

	var timestamp int64 = -1
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed timestamp in signature header")
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("malformed signature header")
	}
	return timestamp, signatures, nil
}
