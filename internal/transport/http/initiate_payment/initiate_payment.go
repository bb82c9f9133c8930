package initiatepayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/service/services/paymentsvc"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	"github.com/addismart/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type service interface {
	Initiate(ctx context.Context, p principal.Principal, orderID uuid.UUID, providerKey string, cur currency.Currency) (*paymentsvc.InitiateOutcome, error)
}

type initiatePaymentRequest struct {
	Provider string `json:"provider" validate:"required"`
	Currency string `json:"currency"`
}

type initiatePaymentResponse struct {
	CheckoutURL string `json:"checkout_url"`
	PaymentID   string `json:"payment_id"`
}

// InitiatePayment opens a checkout session for an order and returns the URL
// the client should redirect the customer to.
func InitiatePayment(w http.ResponseWriter, r *http.Request, service service) {
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

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for initiate payment", "error", err)

		return
	}

	if err := validator.New().Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	cur := currency.Default
	if req.Currency != "" {
		cur, err = currency.ParseCurrency(req.Currency)
		if err != nil {
			respond.Error(w, err)

			return
		}
	}

	outcome, err := service.Initiate(r.Context(), p, orderID, req.Provider, cur)
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error initiating payment", "order_id", orderID, "provider", req.Provider, "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, initiatePaymentResponse{
		CheckoutURL: outcome.CheckoutURL,
		PaymentID:   outcome.PaymentID.String(),
	})
}
