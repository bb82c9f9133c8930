package cart

import (
	"time"

	"github.com/google/uuid"
)

// Cart is a customer's mutable shopping cart. Each user has exactly one.
type Cart struct {
	ID        uuid.UUID `json:"cartId"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CartItem is a (product, quantity) pair inside a cart.
type CartItem struct {
	ID        uuid.UUID `json:"itemId"`
	CartID    uuid.UUID `json:"cartId"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}
