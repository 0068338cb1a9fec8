package payment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func signedHeader(t *testing.T, payload []byte, at time.Time) string {
	t.Helper()
	sig := ComputeSignature([]byte(testSecret), at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), sig)
}

func testVerifier(now time.Time) *WebhookVerifier {
	v := NewWebhookVerifier(testSecret)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyAndParseValidEvent(t *testing.T) {
	now := time.Now()
	payload := []byte(`{
		"id": "evt_123",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_abc", "amount_total": 25000}}
	}`)

	event, err := testVerifier(now).VerifyAndParse(payload, signedHeader(t, payload, now))
	require.NoError(t, err)

	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_abc", event.SessionID())
	assert.Equal(t, int64(25000), event.Data.Object.AmountTotal)
}

func TestVerifyAndParseRejectsBadSignature(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id": "evt_123", "type": "checkout.session.completed"}`)

	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(),
		ComputeSignature([]byte("wrong-secret"), now.Unix(), payload))

	_, err := testVerifier(now).VerifyAndParse(payload, header)
	assert.ErrorContains(t, err, "signature mismatch")
}

func TestVerifyAndParseRejectsTamperedPayload(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id": "evt_123", "type": "checkout.session.completed"}`)
	header := signedHeader(t, payload, now)

	tampered := []byte(`{"id": "evt_999", "type": "checkout.session.completed"}`)
	_, err := testVerifier(now).VerifyAndParse(tampered, header)
	assert.ErrorContains(t, err, "signature mismatch")
}

func TestVerifyAndParseRejectsStaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id": "evt_123", "type": "checkout.session.completed"}`)
	header := signedHeader(t, payload, now.Add(-10*time.Minute))

	_, err := testVerifier(now).VerifyAndParse(payload, header)
	assert.ErrorContains(t, err, "tolerance")
}

func TestVerifyAndParseRejectsMalformedHeader(t *testing.T) {
	payload := []byte(`{"id": "evt_123", "type": "x"}`)
	v := testVerifier(time.Now())

	for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc", "t=123"} {
		_, err := v.VerifyAndParse(payload, header)
		assert.Error(t, err, "header %q", header)
	}
}

func TestAbsoluteImageURL(t *testing.T) {
	g := NewGateway("sk_test", "https://gateway.example/sessions",
		"https://gateway.example/payment_methods",
		"https://shop.example/ok", "https://shop.example/cancel", "https://shop.example/")

	assert.Equal(t, "https://shop.example/uploads/a.png", g.AbsoluteImageURL("/uploads/a.png"))
	assert.Equal(t, "https://shop.example/uploads/b.png", g.AbsoluteImageURL("uploads/b.png"))
	assert.Equal(t, "https://cdn.example/c.png", g.AbsoluteImageURL("https://cdn.example/c.png"))
	assert.Equal(t, "https://shop.example/images/placeholder.png", g.AbsoluteImageURL(""))
}
