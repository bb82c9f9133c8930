package iorderitemrepo

import (
	"context"

	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
)

// Repository defines order item persistence operations.
type Repository interface {
	// BulkInsert persists the line items of a freshly created order.
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)

	// ListByOrderIDs fetches items for a set of orders.
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error)
}
