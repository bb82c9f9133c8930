package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/service/services/orderledger"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	"github.com/addismart/storefront/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateFromCart(ctx context.Context, p principal.Principal, req orderledger.CreateOrderRequest) (*order.Order, error)
}

// createOrderRequest represents a create order request. All fields are
// optional: addresses default to the principal's stored address.
type createOrderRequest struct {
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	BillingAddress  json.RawMessage `json:"billingAddress"`
	Notes           string          `json:"notes"`
}

// CreateOrder converts the principal's cart into an order.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)

		return
	}

	var req createOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to decode request body", http.StatusBadRequest)
			slog.Error("Error decoding request body for create order", "error", err)

			return
		}
	}

	o, err := service.CreateFromCart(r.Context(), p, orderledger.CreateOrderRequest{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error creating order from cart", "error", err)

		return
	}

	respond.JSON(w, http.StatusCreated, o)
}
