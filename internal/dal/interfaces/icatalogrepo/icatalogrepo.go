package icatalogrepo

import (
	"context"

	"github.com/addismart/storefront/internal/service/models/product"
	"github.com/google/uuid"
)

// Repository is the read-only product lookup used at order-creation time.
type Repository interface {
	// Get fetches a product's name and current unit price,
	// errs.ErrNotFound when the product does not exist.
	Get(ctx context.Context, productID uuid.UUID) (*product.Product, error)
}
