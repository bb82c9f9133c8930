package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order lifecycle event types consumed by the notification service.
const (
	EventOrderCreated              = "order.created"
	EventOrderStatusChanged        = "order.status_changed"
	EventOrderPaymentStatusChanged = "order.payment_status_changed"
	EventOrderPaymentFailed        = "order.payment_failed"
)

// OrderEvent is the payload published for every order lifecycle event. The
// mailer downstream needs the order number and the customer's contact details
// to compose the email without calling back into this service.
type OrderEvent struct {
	Event        string    `json:"event"`
	OrderID      uuid.UUID `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	UserEmail    string    `json:"userEmail"`
	UserFullname string    `json:"userFullname"`
	OldValue     string    `json:"oldValue,omitempty"`
	NewValue     string    `json:"newValue,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewOrderEventMessage wraps an OrderEvent into an outbox Message bound to
// the notifications exchange.
func NewOrderEventMessage(exchange, routingKey string, ev OrderEvent, maxRetries int) (Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Message{}, err
	}

	now := time.Now()

	return Message{
		ExchangeName: exchange,
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}, nil
}
