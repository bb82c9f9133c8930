package orderledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/addismart/storefront/internal/dal/interfaces/icartrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/icatalogrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iprincipalrepo"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/dal/uow"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/addismart/storefront/internal/service/models/outbox"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// UnitOfWork is the transactional repository set the ledger works against.
// The payment orchestrator passes its own open unit of work into
// ReconcilePayment so order and payment mutations commit together.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.Repository
	OrderItemRepository() iorderitemrepo.Repository
	CartRepository() icartrepo.Repository
	CatalogRepository() icatalogrepo.Repository
	OutboxRepository() ioutboxrepo.Repository
}

// OrderLedger creates immutable order snapshots from carts and owns every
// order state transition.
type OrderLedger struct {
	pgClient      *postgres.Client
	principalRepo iprincipalrepo.Repository
	uowFactory    func() UnitOfWork

	taxRate      decimal.Decimal
	shippingCost decimal.Decimal
	exchange     string
	maxRetries   int
}

// option is a function that configures the OrderLedger.
type option func(*OrderLedger)

// MustNewOrderLedger creates a new OrderLedger.
func MustNewOrderLedger(opts ...option) *OrderLedger {
	s := &OrderLedger{
		taxRate:      decimal.NewFromFloat(viper.GetFloat64("order.tax_rate")),
		shippingCost: decimal.NewFromFloat(viper.GetFloat64("order.shipping_cost")),
		exchange:     viper.GetString("rabbitmq.notifications.exchange"),
		maxRetries:   viper.GetInt("rabbitmq.outbox.max_retries"),
	}
	if s.maxRetries == 0 {
		s.maxRetries = 5
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.uowFactory == nil {
		s.uowFactory = func() UnitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderLedger.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderLedger) {
		s.pgClient = pgClient
	}
}

// WithPrincipalRepository sets the contact lookup used when reconciling
// payments arriving without an authenticated principal (webhooks).
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPrincipalRepository(repo iprincipalrepo.Repository) option {
	return func(s *OrderLedger) {
		s.principalRepo = repo
	}
}

// WithUnitOfWorkFactory overrides the transaction factory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() UnitOfWork) option {
	return func(s *OrderLedger) {
		s.uowFactory = factory
	}
}

// WithRates overrides the configured tax rate and flat shipping cost.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRates(taxRate, shippingCost decimal.Decimal) option {
	return func(s *OrderLedger) {
		s.taxRate = taxRate
		s.shippingCost = shippingCost
	}
}

// CreateOrderRequest carries the caller-supplied parts of a new order.
type CreateOrderRequest struct {
	ShippingAddress json.RawMessage
	BillingAddress  json.RawMessage
	Notes           string
}

// CreateFromCart converts the principal's cart into an immutable order in a
// single transaction: snapshot items, compute totals, clear the cart. On any
// failure nothing is persisted and the cart is left untouched.
func (s *OrderLedger) CreateFromCart(
	ctx context.Context,
	p principal.Principal,
	req CreateOrderRequest,
) (*order.Order, error) {
	work := s.uowFactory()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to roll back order creation", "error", err)
		}
	}()

	c, err := work.CartRepository().GetByUserID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	cartItems, err := work.CartRepository().ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, errs.ErrEmptyCart
	}

	now := time.Now()
	subtotal := decimal.Zero
	items := make([]orderitem.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		prod, err := work.CatalogRepository().Get(ctx, ci.ProductID)
		if err != nil {
			return nil, err
		}

		lineTotal := prod.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, orderitem.OrderItem{
			ID:           uuid.New(),
			ProductID:    ci.ProductID,
			ProductName:  prod.Name,
			Quantity:     ci.Quantity,
			PricePerItem: prod.UnitPrice,
			TotalPrice:   lineTotal,
			CreatedAt:    now,
		})
	}

	taxAmount := subtotal.Mul(s.taxRate).Round(2)
	totalAmount := subtotal.Add(taxAmount).Add(s.shippingCost)

	shippingAddress := req.ShippingAddress
	if len(shippingAddress) == 0 {
		shippingAddress = p.DefaultAddress
	}
	billingAddress := req.BillingAddress
	if len(billingAddress) == 0 {
		billingAddress = p.DefaultAddress
	}

	inserted, err := work.OrderRepository().Insert(ctx, order.Order{
		ID:              uuid.New(),
		OrderNumber:     order.NewOrderNumber(),
		UserID:          p.ID,
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentStatusUnpaid,
		Subtotal:        subtotal,
		TaxAmount:       taxAmount,
		ShippingCost:    s.shippingCost,
		TotalAmount:     totalAmount,
		Currency:        currency.Default,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = inserted.ID
	}
	if _, err := work.OrderItemRepository().BulkInsert(ctx, items); err != nil {
		return nil, err
	}

	if err := work.CartRepository().Clear(ctx, c.ID); err != nil {
		return nil, err
	}

	if err := s.emitEvent(ctx, work, outbox.OrderEvent{
		Event:        outbox.EventOrderCreated,
		OrderID:      inserted.ID,
		OrderNumber:  inserted.OrderNumber,
		UserEmail:    p.Email,
		UserFullname: p.FullName(),
		OccurredAt:   now,
	}); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	inserted.OrderItems = items

	return &inserted, nil
}

// Cancel transitions a pending, unpaid (or payment-failed) order to
// cancelled. This is the only transition a client can trigger directly.
func (s *OrderLedger) Cancel(ctx context.Context, p principal.Principal, orderID uuid.UUID) (*order.Order, error) {
	work := s.uowFactory()

	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to roll back order cancellation", "error", err)
		}
	}()

	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Non-owners get the same answer as a missing order.
	if o.UserID != p.ID {
		return nil, errs.ErrNotFound
	}

	if o.Status != order.StatusPending {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled", errs.ErrInvalidState)
	}
	if o.PaymentStatus != order.PaymentStatusUnpaid && o.PaymentStatus != order.PaymentStatusFailed {
		return nil, fmt.Errorf("%w: order already paid for, please request a refund instead", errs.ErrInvalidState)
	}

	old := *o
	now := time.Now()
	o.Status = order.StatusCancelled
	o.CancelledAt = &now

	if err := work.OrderRepository().UpdateStatus(ctx, o.ID, o.Status, o.PaymentStatus, o.CancelledAt); err != nil {
		return nil, err
	}

	if err := s.emitTransitions(ctx, work, old, *o, p); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}

// ReconcilePayment applies a payment verification result to the order inside
// the caller's open transaction. Success moves the order to paid/processing;
// failure marks payment_status failed and leaves status untouched so the
// customer can retry initiation.
func (s *OrderLedger) ReconcilePayment(
	ctx context.Context,
	work UnitOfWork,
	orderID uuid.UUID,
	success bool,
) (*order.Order, error) {
	o, err := work.OrderRepository().GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	old := *o
	if success {
		o.PaymentStatus = order.PaymentStatusPaid
		o.Status = order.StatusProcessing
	} else {
		o.PaymentStatus = order.PaymentStatusFailed
	}

	if err := work.OrderRepository().UpdateStatus(ctx, o.ID, o.Status, o.PaymentStatus, o.CancelledAt); err != nil {
		return nil, err
	}

	if err := s.emitTransitions(ctx, work, old, *o, s.resolveContact(ctx, o.UserID)); err != nil {
		return nil, err
	}

	return o, nil
}

// GetOrders retrieves the principal's orders with their items.
func (s *OrderLedger) GetOrders(
	ctx context.Context,
	p principal.Principal,
	query order.QueryOrdersModel,
) ([]order.Order, error) {
	query.UserIds = []uuid.UUID{p.ID}

	work := s.uowFactory()

	orders, err := work.OrderRepository().Query(ctx, &query)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

// resolveContact looks up the customer's contact details for notification
// payloads. Webhook-driven reconciliation has no authenticated principal, so
// a failed lookup degrades to an anonymous event rather than failing the
// settlement.
func (s *OrderLedger) resolveContact(ctx context.Context, userID uuid.UUID) principal.Principal {
	if s.principalRepo == nil {
		return principal.Principal{ID: userID}
	}

	p, err := s.principalRepo.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("Failed to resolve principal for notification", "user_id", userID, "error", err)

		return principal.Principal{ID: userID}
	}

	return *p
}

// emitTransitions compares the previously persisted order state with the new
// one and queues one event per changed field. A transition into a failed
// payment_status additionally queues a dedicated payment-failed event, so a
// failed payment produces two notifications.
func (s *OrderLedger) emitTransitions(
	ctx context.Context,
	work UnitOfWork,
	old, updated order.Order,
	contact principal.Principal,
) error {
	now := time.Now()

	base := outbox.OrderEvent{
		OrderID:      updated.ID,
		OrderNumber:  updated.OrderNumber,
		UserEmail:    contact.Email,
		UserFullname: contact.FullName(),
		OccurredAt:   now,
	}

	if old.Status != updated.Status {
		ev := base
		ev.Event = outbox.EventOrderStatusChanged
		ev.OldValue = string(old.Status)
		ev.NewValue = string(updated.Status)
		if err := s.emitEvent(ctx, work, ev); err != nil {
			return err
		}
	}

	if old.PaymentStatus != updated.PaymentStatus {
		ev := base
		ev.Event = outbox.EventOrderPaymentStatusChanged
		ev.OldValue = string(old.PaymentStatus)
		ev.NewValue = string(updated.PaymentStatus)
		if err := s.emitEvent(ctx, work, ev); err != nil {
			return err
		}
	}

	if updated.PaymentStatus == order.PaymentStatusFailed && old.PaymentStatus != order.PaymentStatusFailed {
		ev := base
		ev.Event = outbox.EventOrderPaymentFailed
		if err := s.emitEvent(ctx, work, ev); err != nil {
			return err
		}
	}

	return nil
}

func (s *OrderLedger) emitEvent(ctx context.Context, work UnitOfWork, ev outbox.OrderEvent) error {
	msg, err := outbox.NewOrderEventMessage(s.exchange, ev.Event, ev, s.maxRetries)
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", ev.Event, err)
	}

	return work.OutboxRepository().Insert(ctx, msg)
}
