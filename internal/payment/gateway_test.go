package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPaymentMethods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.URL.Query().Get("customer"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"id": "pm_1", "type": "card", "brand": "visa", "last4": "4242"},
			{"id": "pm_2", "type": "card", "brand": "mastercard", "last4": "4444"}
		]}`))
	}))
	defer srv.Close()

	g := NewGateway("sk_test", "https://gateway.example/sessions",
		srv.URL+"/payment_methods",
		"https://shop.example/ok", "https://shop.example/cancel", "https://shop.example/")

	methods, err := g.ListPaymentMethods(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "pm_1", methods[0].ID)
	assert.Equal(t, "visa", methods[0].Brand)
	assert.Equal(t, "4242", methods[0].Last4)
}

func TestListPaymentMethodsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGateway("sk_bad", "https://gateway.example/sessions",
		srv.URL+"/payment_methods",
		"https://shop.example/ok", "https://shop.example/cancel", "https://shop.example/")

	_, err := g.ListPaymentMethods(context.Background(), 42)
	assert.ErrorContains(t, err, "gateway returned 401")
}
