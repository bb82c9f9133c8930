package payment

import (
	"encoding/json"
	"time"

	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment attempt.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Provider keys for the supported payment gateways.
type Provider string

const (
	ProviderChapa    Provider = "chapa"
	ProviderPaystack Provider = "paystack"
	ProviderMpesa    Provider = "mpesa"
	ProviderCash     Provider = "cash"
)

// Payment is the single settlement record for an order. Retries mutate this
// row in place with a fresh transaction reference; a second row per order is
// never created.
type Payment struct {
	ID               uuid.UUID         `json:"paymentId"`
	OrderID          uuid.UUID         `json:"orderId"`
	UserID           uuid.UUID         `json:"userId"`
	Provider         Provider          `json:"provider"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         currency.Currency `json:"currency"`
	Status           Status            `json:"status"`
	TransactionRef   string            `json:"transactionRef"`
	CheckoutURL      string            `json:"checkoutUrl,omitempty"`
	ProviderResponse json.RawMessage   `json:"providerResponse,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// NewTransactionRef generates a provider-facing correlation id. A new one is
// issued for every initiation attempt.
func NewTransactionRef() string {
	return uuid.NewString()
}
