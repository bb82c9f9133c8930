package icartrepo

import (
	"context"

	"github.com/addismart/storefront/internal/service/models/cart"
	"github.com/google/uuid"
)

// Repository defines read/clear access to the cart store. The settlement
// core never adds items to carts; line item CRUD lives elsewhere.
type Repository interface {
	// GetByUserID fetches the user's cart, errs.ErrNoCart when absent.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)

	// ListItems fetches all line items of a cart.
	ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error)

	// Clear deletes all line items of a cart. Callable within the same
	// transaction as order creation.
	Clear(ctx context.Context, cartID uuid.UUID) error
}
