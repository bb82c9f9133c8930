// Package verifypayment handles both halves of the provider callback
// surface: the browser redirect after checkout and the server-to-server
// webhook. Both share the orchestrator's reconciliation; only the response
// shape differs.
package verifypayment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/service/services/paymentsvc"
	"github.com/addismart/storefront/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
)

type service interface {
	Verify(ctx context.Context, providerKey string, transactionRef string) (*paymentsvc.VerifyOutcome, error)
}

// VerifyRedirect handles the browser redirect from a provider after
// checkout and forwards the customer to the front-end result page.
func VerifyRedirect(w http.ResponseWriter, r *http.Request, service service) {
	providerKey := chi.URLParam(r, "provider")

	trxRef := r.URL.Query().Get("trx_ref")
	if trxRef == "" {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "Missing trx_ref"})

		return
	}

	outcome, err := service.Verify(r.Context(), providerKey, trxRef)
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error verifying payment", "provider", providerKey, "trx_ref", trxRef, "error", err)

		return
	}

	status := "failed"
	if outcome.Success {
		status = "success"
	}

	resultPage := viper.GetString("payments.result_page_url")
	if resultPage == "" {
		resultPage = "http://localhost:3000/order-confirmed"
	}
	http.Redirect(w, r, fmt.Sprintf("%s/%s?status=%s", resultPage, outcome.OrderID, status), http.StatusFound)
}

type webhookResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details"`
}

// VerifyWebhook handles the server-to-server notification from a provider.
func VerifyWebhook(w http.ResponseWriter, r *http.Request, service service) {
	providerKey := chi.URLParam(r, "provider")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)

		return
	}

	trxRef := extractTransactionRef(providerKey, body)
	if trxRef == "" {
		respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "Missing trx_ref"})

		return
	}

	outcome, err := service.Verify(r.Context(), providerKey, trxRef)
	if err != nil {
		respond.Error(w, err)
		slog.Error("Error verifying payment", "provider", providerKey, "trx_ref", trxRef, "error", err)

		return
	}

	status := "failed"
	if outcome.Success {
		status = "success"
	}

	respond.JSON(w, http.StatusOK, webhookResponse{
		Status:  status,
		Details: outcome.Details,
	})
}

// extractTransactionRef asks the provider adapter to parse its own webhook
// body first, then falls back to the generic field names used by our own
// integrations.
func extractTransactionRef(providerKey string, body []byte) string {
	if prov, ok := provider.Get(providerKey); ok {
		if ref, _ := prov.HandleWebhook(body); ref != "" {
			return ref
		}
	}

	var generic struct {
		TrxRef         string `json:"trx_ref"`
		TransactionRef string `json:"transaction_ref"`
	}
	if err := json.Unmarshal(body, &generic); err != nil {
		return ""
	}
	if generic.TrxRef != "" {
		return generic.TrxRef
	}

	return generic.TransactionRef
}
