package iorderrepo

import (
	"context"
	"time"

	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/google/uuid"
)

// Repository defines order persistence operations.
type Repository interface {
	// Insert persists a new order and returns it with server-side defaults applied.
	Insert(ctx context.Context, o order.Order) (order.Order, error)

	// GetByID fetches an order without its items.
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// GetByIDForUpdate fetches an order and takes a row lock for the
	// duration of the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error)

	// UpdateStatus persists the status, payment_status and cancelled_at fields.
	UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status, paymentStatus order.PaymentStatus, cancelledAt *time.Time) error

	// Query retrieves orders based on filter criteria.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}
