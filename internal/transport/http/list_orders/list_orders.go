package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	"github.com/addismart/storefront/internal/transport/http/respond"
	"github.com/gorilla/schema"
)

type service interface {
	GetOrders(ctx context.Context, p principal.Principal, query order.QueryOrdersModel) ([]order.Order, error)
}

type queryOrdersRequest struct {
	Limit  int `schema:"limit,omitempty"`
	Offset int `schema:"offset,omitempty"`
}

// ListOrders returns the principal's orders with their items.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)

		return
	}

	decoder := schema.NewDecoder()
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request", "error", err)

		return
	}

	orders, err := service.GetOrders(r.Context(), p, order.QueryOrdersModel{
		Limit:  query.Limit,
		Offset: query.Offset,
	})
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error getting orders", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, orders)
}
