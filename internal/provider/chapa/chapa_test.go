package chapa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitiatePayment(t *testing.T) {
	var got initializeRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data": map[string]any{
				"checkout_url": "https://checkout.chapa.co/checkout/payment/xyz",
			},
		})
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL), WithSecretKey("CHASECK_TEST-abc"))

	res := p.InitiatePayment(context.Background(), provider.InitiateRequest{
		Amount:         decimal.RequireFromString("347.79"),
		Currency:       "ETB",
		Email:          "abebe@example.com",
		FirstName:      "Abebe",
		LastName:       "Bikila",
		TransactionRef: "tx-123",
		CallbackURL:    "http://localhost:3002/api/payments/verify/chapa/",
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/xyz", res.CheckoutURL)

	assert.Equal(t, "Bearer CHASECK_TEST-abc", gotAuth)
	assert.Equal(t, "347.79", got.Amount)
	assert.Equal(t, "ETB", got.Currency)
	assert.Equal(t, "tx-123", got.TxRef)
	assert.Equal(t, "http://localhost:3002/api/payments/verify/chapa/", got.CallbackURL)
}

func TestInitiatePaymentGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "failed",
			"message": "Invalid currency.",
		})
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL), WithSecretKey("k"))

	res := p.InitiatePayment(context.Background(), provider.InitiateRequest{
		Amount: decimal.RequireFromString("10"), Currency: "XYZ", TransactionRef: "tx-1",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid currency.", res.Error)
}

func TestInitiatePaymentMissingCheckoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]any{}})
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL), WithSecretKey("k"))

	res := p.InitiatePayment(context.Background(), provider.InitiateRequest{
		Amount: decimal.RequireFromString("10"), Currency: "ETB", TransactionRef: "tx-1",
	})

	assert.False(t, res.Success)
}

func TestVerifyPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/transaction/verify/tx-123", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"status": "success", "amount": 347.79},
		})
	}))
	defer srv.Close()

	p := New(WithBaseURL(srv.URL), WithSecretKey("k"))

	data, err := p.VerifyPayment(context.Background(), "tx-123")
	require.NoError(t, err)
	assert.Equal(t, "success", data["status"])
}

func TestVerifyPaymentUnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	p := New(WithBaseURL(srv.URL), WithSecretKey("k"))

	_, err := p.VerifyPayment(context.Background(), "tx-123")
	assert.ErrorIs(t, err, errs.ErrProviderCommunication)
}

func TestHandleWebhook(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "snake case reference", body: `{"tx_ref":"tx-1","status":"success"}`, want: "tx-1"},
		{name: "camel case reference", body: `{"txRef":"tx-2","status":"success"}`, want: "tx-2"},
		{name: "missing reference", body: `{"status":"success"}`, want: ""},
		{name: "invalid json", body: `not-json`, want: ""},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, _ := p.HandleWebhook([]byte(tt.body))
			assert.Equal(t, tt.want, ref)
		})
	}
}
