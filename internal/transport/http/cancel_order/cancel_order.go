package cancelorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	"github.com/addismart/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type service interface {
	Cancel(ctx context.Context, p principal.Principal, orderID uuid.UUID) (*order.Order, error)
}

// CancelOrder transitions a pending order to cancelled.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)

		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	o, err := service.Cancel(r.Context(), p, orderID)
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error cancelling order", "order_id", orderID, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, o)
}
