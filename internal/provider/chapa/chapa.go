// Package chapa implements the PaymentProvider contract for the Chapa
// gateway (https://developer.chapa.co).
package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/spf13/viper"
)

const defaultBaseURL = "https://api.chapa.co/v1"

type Provider struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

type option func(*Provider)

// New creates a Chapa provider. The secret key comes from the environment,
// the base URL from config so tests can point it at a local server.
func New(opts ...option) *Provider {
	baseURL := viper.GetString("chapa.base_url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	p := &Provider{
		baseURL:   baseURL,
		secretKey: os.Getenv("CHAPA_SECRET_KEY"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithBaseURL overrides the gateway endpoint.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBaseURL(baseURL string) option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithSecretKey overrides the bearer secret.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSecretKey(secret string) option {
	return func(p *Provider) {
		p.secretKey = secret
	}
}

type initializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
}

// InitiatePayment starts a transaction with Chapa and returns the hosted
// checkout URL.
func (p *Provider) InitiatePayment(ctx context.Context, req provider.InitiateRequest) provider.InitiateResult {
	payload := initializeRequest{
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TransactionRef,
		CallbackURL: req.CallbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return provider.InitiateResult{Success: false, Error: fmt.Sprintf("failed to encode request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return provider.InitiateResult{Success: false, Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return provider.InitiateResult{Success: false, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return provider.InitiateResult{Success: false, Error: fmt.Sprintf("invalid JSON response: %v", err)}
	}

	// chapa marks errors with status != "success"
	if data["status"] != "success" {
		msg, _ := data["message"].(string)
		if msg == "" {
			msg = "Payment initialization failed."
		}

		return provider.InitiateResult{Success: false, Error: msg}
	}

	checkoutURL := ""
	if nested, ok := data["data"].(map[string]any); ok {
		checkoutURL, _ = nested["checkout_url"].(string)
	}
	if checkoutURL == "" {
		return provider.InitiateResult{Success: false, Error: "gateway response missing checkout_url"}
	}

	return provider.InitiateResult{Success: true, CheckoutURL: checkoutURL}
}

// VerifyPayment confirms a transaction's status with Chapa.
func (p *Provider) VerifyPayment(ctx context.Context, transactionRef string) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transaction/verify/"+transactionRef, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", errs.ErrProviderCommunication, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", errs.ErrProviderCommunication, err)
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %v", errs.ErrProviderCommunication, err)
	}

	return data, nil
}

// HandleWebhook extracts the transaction reference from a Chapa webhook
// body. Chapa has historically used both tx_ref and txRef.
func (p *Provider) HandleWebhook(body []byte) (string, map[string]any) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", nil
	}

	txRef, _ := data["tx_ref"].(string)
	if txRef == "" {
		txRef, _ = data["txRef"].(string)
	}

	return txRef, data
}
