package paymentsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/addismart/storefront/internal/dal/interfaces/icartrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/icatalogrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/addismart/storefront/internal/provider"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/cart"
	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/addismart/storefront/internal/service/models/outbox"
	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/service/models/product"
	"github.com/addismart/storefront/internal/service/services/orderledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]order.Order
}

func (r *fakeOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	r.orders[o.ID] = o

	return o, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return &o, nil
}

func (r *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeOrderRepo) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	status order.Status,
	paymentStatus order.PaymentStatus,
	cancelledAt *time.Time,
) error {
	o := r.orders[id]
	o.Status = status
	o.PaymentStatus = paymentStatus
	o.CancelledAt = cancelledAt
	r.orders[id] = o

	return nil
}

func (r *fakeOrderRepo) Query(_ context.Context, _ *order.QueryOrdersModel) ([]order.Order, error) {
	return nil, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]payment.Payment
}

func (r *fakePaymentRepo) Insert(_ context.Context, p payment.Payment) (payment.Payment, error) {
	for _, existing := range r.payments {
		if existing.OrderID == p.OrderID {
			return payment.Payment{}, errs.ErrConcurrencyConflict
		}
	}
	r.payments[p.ID] = p

	return p, nil
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}

	return nil, errs.ErrNotFound
}

func (r *fakePaymentRepo) GetByTransactionRefForUpdate(_ context.Context, ref string) (*payment.Payment, error) {
	for _, p := range r.payments {
		if p.TransactionRef == ref {
			return &p, nil
		}
	}

	return nil, errs.ErrNotFound
}

func (r *fakePaymentRepo) Update(_ context.Context, p payment.Payment) error {
	r.payments[p.ID] = p

	return nil
}

func (r *fakePaymentRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]payment.Payment, error) {
	out := make([]payment.Payment, 0)
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}

	return out, nil
}

type noopCartRepo struct{}

func (noopCartRepo) GetByUserID(_ context.Context, _ uuid.UUID) (*cart.Cart, error) {
	return nil, errs.ErrNoCart
}
func (noopCartRepo) ListItems(_ context.Context, _ uuid.UUID) ([]cart.CartItem, error) {
	return nil, nil
}
func (noopCartRepo) Clear(_ context.Context, _ uuid.UUID) error { return nil }

type noopCatalogRepo struct{}

func (noopCatalogRepo) Get(_ context.Context, _ uuid.UUID) (*product.Product, error) {
	return nil, errs.ErrNotFound
}

type noopOrderItemRepo struct{}

func (noopOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	return items, nil
}
func (noopOrderItemRepo) ListByOrderIDs(_ context.Context, _ []uuid.UUID) ([]orderitem.OrderItem, error) {
	return nil, nil
}

type noopOutboxRepo struct{}

func (noopOutboxRepo) Insert(_ context.Context, _ outbox.Message) error { return nil }
func (noopOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return nil, nil
}
func (noopOutboxRepo) Delete(_ context.Context, _ int64) error { return nil }
func (noopOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

type fakeUOW struct {
	orderRepo   *fakeOrderRepo
	paymentRepo *fakePaymentRepo

	committed bool
}

func newFakeUOW() *fakeUOW {
	return &fakeUOW{
		orderRepo:   &fakeOrderRepo{orders: make(map[uuid.UUID]order.Order)},
		paymentRepo: &fakePaymentRepo{payments: make(map[uuid.UUID]payment.Payment)},
	}
}

func (u *fakeUOW) Begin(_ context.Context) error    { return nil }
func (u *fakeUOW) Commit(_ context.Context) error   { u.committed = true; return nil }
func (u *fakeUOW) Rollback(_ context.Context) error { return nil }

func (u *fakeUOW) OrderRepository() iorderrepo.Repository         { return u.orderRepo }
func (u *fakeUOW) OrderItemRepository() iorderitemrepo.Repository { return noopOrderItemRepo{} }
func (u *fakeUOW) CartRepository() icartrepo.Repository           { return noopCartRepo{} }
func (u *fakeUOW) CatalogRepository() icatalogrepo.Repository     { return noopCatalogRepo{} }
func (u *fakeUOW) OutboxRepository() ioutboxrepo.Repository       { return noopOutboxRepo{} }
func (u *fakeUOW) PaymentRepository() ipaymentrepo.Repository     { return u.paymentRepo }

// fakeLedger applies the reconciliation state machine directly against the
// fake order repo.
type fakeLedger struct {
	calls []bool
}

func (l *fakeLedger) ReconcilePayment(
	ctx context.Context,
	work orderledger.UnitOfWork,
	orderID uuid.UUID,
	success bool,
) (*order.Order, error) {
	l.calls = append(l.calls, success)

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if success {
		o.PaymentStatus = order.PaymentStatusPaid
		o.Status = order.StatusProcessing
	} else {
		o.PaymentStatus = order.PaymentStatusFailed
	}
	if err := work.OrderRepository().UpdateStatus(ctx, o.ID, o.Status, o.PaymentStatus, o.CancelledAt); err != nil {
		return nil, err
	}

	return o, nil
}

type fakeProvider struct {
	initiateResult provider.InitiateResult
	initiateCalls  []provider.InitiateRequest

	verifyResult map[string]any
	verifyErr    error
}

func (p *fakeProvider) InitiatePayment(_ context.Context, req provider.InitiateRequest) provider.InitiateResult {
	p.initiateCalls = append(p.initiateCalls, req)

	return p.initiateResult
}

func (p *fakeProvider) VerifyPayment(_ context.Context, _ string) (map[string]any, error) {
	return p.verifyResult, p.verifyErr
}

func (p *fakeProvider) HandleWebhook(_ []byte) (string, map[string]any) {
	return "", nil
}

func newTestService(u *fakeUOW, l *fakeLedger, prov *fakeProvider) *PaymentService {
	viper.Set("payments.callback_urls.chapa", "http://localhost:3002")

	return MustNewPaymentService(
		WithUnitOfWorkFactory(func() unitOfWork { return u }),
		WithOrderLedger(l),
		WithProviderLookup(func(key string) (provider.PaymentProvider, bool) {
			if key == "chapa" && prov != nil {
				return prov, true
			}

			return nil, false
		}),
	)
}

func seedOrder(u *fakeUOW, userID uuid.UUID, status order.Status, paymentStatus order.PaymentStatus) order.Order {
	o := order.Order{
		ID:            uuid.New(),
		OrderNumber:   order.NewOrderNumber(),
		UserID:        userID,
		Status:        status,
		PaymentStatus: paymentStatus,
		TotalAmount:   decimal.RequireFromString("347.79"),
		CreatedAt:     time.Now(),
	}
	u.orderRepo.orders[o.ID] = o

	return o
}

func seedPayment(u *fakeUOW, o order.Order, status payment.Status) payment.Payment {
	p := payment.Payment{
		ID:             uuid.New(),
		OrderID:        o.ID,
		UserID:         o.UserID,
		Provider:       payment.ProviderChapa,
		Amount:         o.TotalAmount,
		Currency:       currency.Default,
		Status:         status,
		TransactionRef: payment.NewTransactionRef(),
	}
	u.paymentRepo.payments[p.ID] = p

	return p
}

func TestInitiate(t *testing.T) {
	u := newFakeUOW()
	prov := &fakeProvider{
		initiateResult: provider.InitiateResult{
			Success:     true,
			CheckoutURL: "https://checkout.chapa.co/checkout/payment/abc",
		},
	}
	svc := newTestService(u, &fakeLedger{}, prov)

	p := principal.Principal{ID: uuid.New(), Email: "abebe@example.com", FirstName: "Abebe", LastName: "Bikila"}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)

	outcome, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/abc", outcome.CheckoutURL)
	assert.True(t, u.committed)

	stored := u.paymentRepo.payments[outcome.PaymentID]
	assert.Equal(t, payment.StatusProcessing, stored.Status)
	assert.Equal(t, outcome.CheckoutURL, stored.CheckoutURL)
	assert.True(t, stored.Amount.Equal(o.TotalAmount))

	require.Len(t, prov.initiateCalls, 1)
	req := prov.initiateCalls[0]
	assert.Equal(t, "abebe@example.com", req.Email)
	assert.Equal(t, stored.TransactionRef, req.TransactionRef)
	assert.Equal(t, "http://localhost:3002/api/payments/verify/chapa/", req.CallbackURL)
}

func TestInitiateDefaultsCurrency(t *testing.T) {
	u := newFakeUOW()
	prov := &fakeProvider{initiateResult: provider.InitiateResult{Success: true, CheckoutURL: "https://c"}}
	svc := newTestService(u, &fakeLedger{}, prov)

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)

	outcome, err := svc.Initiate(context.Background(), p, o.ID, "chapa", "")
	require.NoError(t, err)

	assert.Equal(t, currency.CurrencyETB, u.paymentRepo.payments[outcome.PaymentID].Currency)
}

func TestInitiateProviderFailure(t *testing.T) {
	u := newFakeUOW()
	prov := &fakeProvider{initiateResult: provider.InitiateResult{Success: false, Error: "insufficient balance"}}
	svc := newTestService(u, &fakeLedger{}, prov)

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)

	_, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	require.ErrorIs(t, err, errs.ErrProviderCommunication)

	// The failed attempt is persisted so a retry can reuse the row.
	assert.True(t, u.committed)
	require.Len(t, u.paymentRepo.payments, 1)
	for _, pm := range u.paymentRepo.payments {
		assert.Equal(t, payment.StatusFailed, pm.Status)
	}

	// The order itself stays unpaid until verification says otherwise.
	assert.Equal(t, order.PaymentStatusUnpaid, u.orderRepo.orders[o.ID].PaymentStatus)
}

func TestInitiateRetryReusesPaymentRow(t *testing.T) {
	u := newFakeUOW()
	prov := &fakeProvider{initiateResult: provider.InitiateResult{Success: true, CheckoutURL: "https://c2"}}
	svc := newTestService(u, &fakeLedger{}, prov)

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusFailed)
	existing := seedPayment(u, o, payment.StatusFailed)

	outcome, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, outcome.PaymentID)
	require.Len(t, u.paymentRepo.payments, 1)

	updated := u.paymentRepo.payments[existing.ID]
	assert.Equal(t, payment.StatusProcessing, updated.Status)
	assert.NotEqual(t, existing.TransactionRef, updated.TransactionRef)
}

func TestInitiateRejectsInProgressPayment(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusFailed)
	seedPayment(u, o, payment.StatusProcessing)

	_, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrConcurrencyConflict)
}

func TestInitiateRejectsPaidOrder(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusProcessing, order.PaymentStatusPaid)

	_, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestInitiateRejectsCancelledOrder(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusCancelled, order.PaymentStatusUnpaid)

	_, err := svc.Initiate(context.Background(), p, o.ID, "chapa", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestInitiateNotOwner(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	o := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)

	_, err := svc.Initiate(context.Background(), principal.Principal{ID: uuid.New()}, o.ID, "chapa", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInitiateUnsupportedProvider(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)

	_, err := svc.Initiate(context.Background(), p, o.ID, "telebirr", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrUnsupportedProvider)
}

func TestInitiateMissingCallbackConfig(t *testing.T) {
	u := newFakeUOW()
	prov := &fakeProvider{}
	svc := MustNewPaymentService(
		WithUnitOfWorkFactory(func() unitOfWork { return u }),
		WithOrderLedger(&fakeLedger{}),
		WithProviderLookup(func(string) (provider.PaymentProvider, bool) { return prov, true }),
	)
	viper.Set("payments.callback_urls.unconfigured", "")

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)

	_, err := svc.Initiate(context.Background(), p, o.ID, "unconfigured", currency.CurrencyETB)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestVerifySuccess(t *testing.T) {
	u := newFakeUOW()
	l := &fakeLedger{}
	prov := &fakeProvider{verifyResult: map[string]any{
		"status": "success",
		"data":   map[string]any{"amount": "347.79"},
	}}
	svc := newTestService(u, l, prov)

	o := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)
	pm := seedPayment(u, o, payment.StatusProcessing)

	outcome, err := svc.Verify(context.Background(), "chapa", pm.TransactionRef)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, o.ID, outcome.OrderID)
	assert.True(t, u.committed)

	assert.Equal(t, []bool{true}, l.calls)
	assert.Equal(t, payment.StatusSuccess, u.paymentRepo.payments[pm.ID].Status)
	assert.NotEmpty(t, u.paymentRepo.payments[pm.ID].ProviderResponse)
	assert.Equal(t, order.PaymentStatusPaid, u.orderRepo.orders[o.ID].PaymentStatus)
	assert.Equal(t, order.StatusProcessing, u.orderRepo.orders[o.ID].Status)
}

func TestVerifyNestedSuccessOnly(t *testing.T) {
	u := newFakeUOW()
	l := &fakeLedger{}
	prov := &fakeProvider{verifyResult: map[string]any{
		"status": "failed",
		"data":   map[string]any{"status": "success"},
	}}
	svc := newTestService(u, l, prov)

	o := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)
	pm := seedPayment(u, o, payment.StatusProcessing)

	outcome, err := svc.Verify(context.Background(), "chapa", pm.TransactionRef)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestVerifyFailure(t *testing.T) {
	u := newFakeUOW()
	l := &fakeLedger{}
	prov := &fakeProvider{verifyResult: map[string]any{"status": "failed"}}
	svc := newTestService(u, l, prov)

	o := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)
	pm := seedPayment(u, o, payment.StatusProcessing)

	outcome, err := svc.Verify(context.Background(), "chapa", pm.TransactionRef)
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, []bool{false}, l.calls)
	assert.Equal(t, payment.StatusFailed, u.paymentRepo.payments[pm.ID].Status)
	assert.Equal(t, order.PaymentStatusFailed, u.orderRepo.orders[o.ID].PaymentStatus)
	assert.Equal(t, order.StatusPending, u.orderRepo.orders[o.ID].Status)
}

func TestVerifyRejectsSettledPayment(t *testing.T) {
	u := newFakeUOW()
	l := &fakeLedger{}
	svc := newTestService(u, l, &fakeProvider{verifyResult: map[string]any{"status": "success"}})

	o := seedOrder(u, uuid.New(), order.StatusProcessing, order.PaymentStatusPaid)
	pm := seedPayment(u, o, payment.StatusSuccess)

	_, err := svc.Verify(context.Background(), "chapa", pm.TransactionRef)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Empty(t, l.calls)
}

func TestVerifyUnknownTransaction(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	_, err := svc.Verify(context.Background(), "chapa", "missing-ref")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestVerifyGatewayErrorLeavesPaymentUntouched(t *testing.T) {
	u := newFakeUOW()
	l := &fakeLedger{}
	prov := &fakeProvider{verifyErr: errors.New("connection reset")}
	svc := newTestService(u, l, prov)

	o := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)
	pm := seedPayment(u, o, payment.StatusProcessing)

	_, err := svc.Verify(context.Background(), "chapa", pm.TransactionRef)
	require.Error(t, err)

	assert.Empty(t, l.calls)
	assert.False(t, u.committed)
	assert.Equal(t, payment.StatusProcessing, u.paymentRepo.payments[pm.ID].Status)
}

func TestGetPayments(t *testing.T) {
	u := newFakeUOW()
	svc := newTestService(u, &fakeLedger{}, &fakeProvider{})

	p := principal.Principal{ID: uuid.New()}
	o := seedOrder(u, p.ID, order.StatusPending, order.PaymentStatusUnpaid)
	seedPayment(u, o, payment.StatusProcessing)

	other := seedOrder(u, uuid.New(), order.StatusPending, order.PaymentStatusUnpaid)
	seedPayment(u, other, payment.StatusProcessing)

	payments, err := svc.GetPayments(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, p.ID, payments[0].UserID)
}
