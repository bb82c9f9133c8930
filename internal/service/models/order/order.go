package order

import (
	"encoding/json"
	"time"

	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPending         Status = "pending"
	StatusProcessing      Status = "processing"
	StatusOnTransit       Status = "on_transit"
	StatusShipped         Status = "shipped"
	StatusDelivered       Status = "delivered"
	StatusCancelled       Status = "cancelled"
	StatusRefundRequested Status = "refund_requested"
	StatusRefunded        Status = "refunded"
)

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Order is an immutable snapshot of a customer's cart at checkout time.
// Items and amounts never change after creation; only status, payment_status
// and cancelled_at are mutated, by OrderLedger and the payment orchestrator.
type Order struct {
	ID              uuid.UUID             `json:"orderId"`
	OrderNumber     string                `json:"orderNumber"`
	UserID          uuid.UUID             `json:"userId"`
	Status          Status                `json:"status"`
	PaymentStatus   PaymentStatus         `json:"paymentStatus"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxAmount       decimal.Decimal       `json:"taxAmount"`
	ShippingCost    decimal.Decimal       `json:"shippingCost"`
	TotalAmount     decimal.Decimal       `json:"totalAmount"`
	Currency        currency.Currency     `json:"currency"`
	ShippingAddress json.RawMessage       `json:"shippingAddress,omitempty"`
	BillingAddress  json.RawMessage       `json:"billingAddress,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	CancelledAt     *time.Time            `json:"cancelledAt,omitempty"`
	OrderItems      []orderitem.OrderItem `json:"orderItems"`
}

// NewOrderNumber generates the human-readable short order number. It is
// derived from a fresh UUID so concurrent creations cannot collide on
// anything but random chance.
func NewOrderNumber() string {
	const numberLen = 8

	u := uuid.NewString()

	out := make([]byte, 0, numberLen)
	for i := 0; i < len(u) && len(out) < numberLen; i++ {
		c := u[i]
		if c == '-' {
			continue
		}
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}

	return string(out)
}
