// Package provider defines the capability contract every payment gateway
// adapter implements, plus the process-wide registry they are installed into
// at startup.
package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// InitiateRequest carries everything a gateway needs to open a checkout
// session for a payment attempt.
type InitiateRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Email          string
	FirstName      string
	LastName       string
	TransactionRef string
	CallbackURL    string
}

// InitiateResult is the outcome of a checkout-session creation. Gateway and
// network failures are reported through Success/Error, never as panics.
type InitiateResult struct {
	Success     bool
	CheckoutURL string
	Error       string
}

// PaymentProvider is implemented once per external gateway.
type PaymentProvider interface {
	// InitiatePayment opens a checkout session. Ordinary gateway or network
	// failures come back as Success=false with a message.
	InitiatePayment(ctx context.Context, req InitiateRequest) InitiateResult

	// VerifyPayment confirms a transaction with the gateway and returns the
	// provider-native response. The payload shape is provider-defined; the
	// orchestrator checks both the top-level and the nested data.status
	// fields because providers are inconsistent about nesting.
	VerifyPayment(ctx context.Context, transactionRef string) (map[string]any, error)

	// HandleWebhook extracts the correlation id from a provider webhook
	// body, tolerating historical field-name variants. An empty ref means
	// extraction failed; it never panics.
	HandleWebhook(body []byte) (transactionRef string, payload map[string]any)
}
