// Package paymentsvc orchestrates the settlement workflow: it owns Payment
// records, talks to the gateway adapters, and reconciles verification
// results back into order state through the order ledger.
package paymentsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/addismart/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/dal/uow"
	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/service/services/orderledger"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type unitOfWork interface {
	orderledger.UnitOfWork

	PaymentRepository() ipaymentrepo.Repository
}

type ledger interface {
	ReconcilePayment(ctx context.Context, work orderledger.UnitOfWork, orderID uuid.UUID, success bool) (*order.Order, error)
}

// PaymentService drives payment initiation and verification.
type PaymentService struct {
	pgClient    *postgres.Client
	orderLedger ledger
	uowFactory  func() unitOfWork
	providers   func(key string) (provider.PaymentProvider, bool)
}

// option is a function that configures the PaymentService.
type option func(*PaymentService)

// MustNewPaymentService creates a new PaymentService.
func MustNewPaymentService(opts ...option) *PaymentService {
	s := &PaymentService{
		providers: provider.Get,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.uowFactory == nil {
		s.uowFactory = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the PaymentService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *PaymentService) {
		s.pgClient = pgClient
	}
}

// WithOrderLedger sets the ledger used to reconcile verification results.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderLedger(l ledger) option {
	return func(s *PaymentService) {
		s.orderLedger = l
	}
}

// WithUnitOfWorkFactory overrides the transaction factory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *PaymentService) {
		s.uowFactory = factory
	}
}

// WithProviderLookup overrides the gateway registry lookup.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProviderLookup(lookup func(key string) (provider.PaymentProvider, bool)) option {
	return func(s *PaymentService) {
		s.providers = lookup
	}
}

// InitiateOutcome is returned to the client for the checkout redirect.
type InitiateOutcome struct {
	CheckoutURL string    `json:"checkoutUrl"`
	PaymentID   uuid.UUID `json:"paymentId"`
}

// Initiate opens a checkout session for an order. The order row is locked
// for the whole check-and-mutate, so a concurrent initiate for the same
// order blocks here and then fails the in-progress guard instead of opening
// a second session. Retries after failure reuse the single Payment row with
// a fresh transaction reference.
func (s *PaymentService) Initiate(
	ctx context.Context,
	p principal.Principal,
	orderID uuid.UUID,
	providerKey string,
	cur currency.Currency,
) (*InitiateOutcome, error) {
	if cur == "" {
		cur = currency.Default
	}

	work := s.uowFactory()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to roll back payment initiation", "error", err)
		}
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != p.ID {
		return nil, errs.ErrNotFound
	}

	if o.PaymentStatus != order.PaymentStatusUnpaid && o.PaymentStatus != order.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: order already paid for or payment awaiting verification", errs.ErrInvalidState)
	}
	if o.Status == order.StatusCancelled {
		return nil, fmt.Errorf("%w: this order was cancelled, please place another order", errs.ErrInvalidState)
	}

	prov, ok := s.providers(providerKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedProvider, providerKey)
	}

	callbackBase := viper.GetString("payments.callback_urls." + providerKey)
	if callbackBase == "" {
		return nil, fmt.Errorf("%w: callback URL not configured for provider %s", errs.ErrConfiguration, providerKey)
	}

	pm, err := s.preparePayment(ctx, work, o, p, providerKey, cur)
	if err != nil {
		return nil, err
	}

	// The order row lock is held across the gateway call on purpose: it is
	// the guard that serializes concurrent initiations for one order.
	res := prov.InitiatePayment(ctx, provider.InitiateRequest{
		Amount:         pm.Amount,
		Currency:       pm.Currency.String(),
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		TransactionRef: pm.TransactionRef,
		CallbackURL:    fmt.Sprintf("%s/api/payments/verify/%s/", callbackBase, providerKey),
	})

	if !res.Success {
		pm.Status = payment.StatusFailed
		if err := work.PaymentRepository().Update(ctx, *pm); err != nil {
			return nil, err
		}
		if err := work.Commit(ctx); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %s", errs.ErrProviderCommunication, res.Error)
	}

	pm.Status = payment.StatusProcessing
	pm.CheckoutURL = res.CheckoutURL
	if err := work.PaymentRepository().Update(ctx, *pm); err != nil {
		return nil, err
	}
	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	return &InitiateOutcome{
		CheckoutURL: res.CheckoutURL,
		PaymentID:   pm.ID,
	}, nil
}

// preparePayment creates the order's Payment row on first initiation, or
// resets the existing one for a retry. A payment already processing or
// succeeded rejects the attempt.
func (s *PaymentService) preparePayment(
	ctx context.Context,
	work unitOfWork,
	o *order.Order,
	p principal.Principal,
	providerKey string,
	cur currency.Currency,
) (*payment.Payment, error) {
	pm, err := work.PaymentRepository().GetByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		switch pm.Status {
		case payment.StatusFailed, payment.StatusPending:
			pm.Provider = payment.Provider(providerKey)
			pm.Amount = o.TotalAmount
			pm.Currency = cur
			pm.TransactionRef = payment.NewTransactionRef()
			pm.Status = payment.StatusPending
			if err := work.PaymentRepository().Update(ctx, *pm); err != nil {
				return nil, err
			}

			return pm, nil
		default:
			return nil, fmt.Errorf(
				"%w: this order already has a payment in progress or completed",
				errs.ErrConcurrencyConflict,
			)
		}
	case isNotFound(err):
		now := time.Now()
		created, err := work.PaymentRepository().Insert(ctx, payment.Payment{
			ID:             uuid.New(),
			OrderID:        o.ID,
			UserID:         p.ID,
			Provider:       payment.Provider(providerKey),
			Amount:         o.TotalAmount,
			Currency:       cur,
			Status:         payment.StatusPending,
			TransactionRef: payment.NewTransactionRef(),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return nil, err
		}

		return &created, nil
	default:
		return nil, err
	}
}

// VerifyOutcome is the result of a verification call, consumed by both the
// redirect and the webhook response paths.
type VerifyOutcome struct {
	Success bool
	OrderID uuid.UUID
	Details map[string]any
}

// Verify confirms a transaction with its gateway and reconciles the result
// into payment and order state. Once a payment has succeeded, any further
// verification attempt is rejected, which makes duplicate webhook delivery
// and double redirects harmless.
func (s *PaymentService) Verify(
	ctx context.Context,
	providerKey string,
	transactionRef string,
) (*VerifyOutcome, error) {
	work := s.uowFactory()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to roll back payment verification", "error", err)
		}
	}()

	// The row lock serializes concurrent verifications of one transaction:
	// the loser blocks here and then trips the success guard.
	pm, err := work.PaymentRepository().GetByTransactionRefForUpdate(ctx, transactionRef)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: payment not found", errs.ErrNotFound)
		}

		return nil, err
	}

	if pm.Status == payment.StatusSuccess {
		return nil, fmt.Errorf(
			"%w: previous payment was successful, cannot be modified again",
			errs.ErrInvalidState,
		)
	}

	prov, ok := s.providers(providerKey)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %s", errs.ErrUnsupportedProvider, providerKey)
	}

	verify, err := prov.VerifyPayment(ctx, transactionRef)
	if err != nil {
		// Could not ask the gateway; leave the payment untouched so the
		// provider's retry (or the customer's redirect) can try again.
		return nil, err
	}

	success := topLevelSuccess(verify) || nestedSuccess(verify)

	raw, err := json.Marshal(verify)
	if err != nil {
		return nil, fmt.Errorf("failed to encode provider response: %w", err)
	}

	pm.ProviderResponse = raw
	if success {
		pm.Status = payment.StatusSuccess
	} else {
		pm.Status = payment.StatusFailed
	}
	if err := work.PaymentRepository().Update(ctx, *pm); err != nil {
		return nil, err
	}

	if _, err := s.orderLedger.ReconcilePayment(ctx, work, pm.OrderID, success); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	return &VerifyOutcome{
		Success: success,
		OrderID: pm.OrderID,
		Details: verify,
	}, nil
}

// GetPayments retrieves the principal's payments, newest first.
func (s *PaymentService) GetPayments(ctx context.Context, p principal.Principal) ([]payment.Payment, error) {
	work := s.uowFactory()

	return work.PaymentRepository().ListByUserID(ctx, p.ID)
}

// Providers report success either at the top level or nested under data,
// depending on the gateway; both locations must be checked.
func topLevelSuccess(verify map[string]any) bool {
	status, _ := verify["status"].(string)

	return status == "success"
}

func nestedSuccess(verify map[string]any) bool {
	data, ok := verify["data"].(map[string]any)
	if !ok {
		return false
	}
	status, _ := data["status"].(string)

	return status == "success"
}

func isNotFound(err error) bool {
	return errors.Is(err, errs.ErrNotFound)
}
