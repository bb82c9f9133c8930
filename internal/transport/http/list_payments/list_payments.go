package listpayments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	"github.com/addismart/storefront/internal/transport/http/respond"
)

type service interface {
	GetPayments(ctx context.Context, p principal.Principal) ([]payment.Payment, error)
}

// ListPayments returns the principal's payments, newest first.
func ListPayments(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)

		return
	}

	payments, err := service.GetPayments(r.Context(), p)
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error getting payments", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, payments)
}
