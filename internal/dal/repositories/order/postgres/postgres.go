package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"order_id",
	"order_number",
	"user_id",
	"status",
	"payment_status",
	"subtotal",
	"tax_amount",
	"shipping_cost",
	"total_amount",
	"currency",
	"shipping_address",
	"billing_address",
	"notes",
	"created_at",
	"cancelled_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	Id              uuid.UUID       `db:"order_id"`
	OrderNumber     string          `db:"order_number"`
	UserId          uuid.UUID       `db:"user_id"`
	Status          string          `db:"status"`
	PaymentStatus   string          `db:"payment_status"`
	Subtotal        decimal.Decimal `db:"subtotal"`
	TaxAmount       decimal.Decimal `db:"tax_amount"`
	ShippingCost    decimal.Decimal `db:"shipping_cost"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	Currency        string          `db:"currency"`
	ShippingAddress []byte          `db:"shipping_address"`
	BillingAddress  []byte          `db:"billing_address"`
	Notes           string          `db:"notes"`
	CreatedAt       time.Time       `db:"created_at"`
	CancelledAt     *time.Time      `db:"cancelled_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.Currency)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:              o.Id,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserId,
		Status:          order.Status(o.Status),
		PaymentStatus:   order.PaymentStatus(o.PaymentStatus),
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		Currency:        cur,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		CancelledAt:     o.CancelledAt,
		OrderItems:      []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

type OrderRepository struct {
	conn postgres.Querier
}

func NewOrderRepository(conn postgres.Querier) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

func (r *OrderRepository) scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.OrderNumber,
		&dal.UserId,
		&dal.Status,
		&dal.PaymentStatus,
		&dal.Subtotal,
		&dal.TaxAmount,
		&dal.ShippingCost,
		&dal.TotalAmount,
		&dal.Currency,
		&dal.ShippingAddress,
		&dal.BillingAddress,
		&dal.Notes,
		&dal.CreatedAt,
		&dal.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	return dal.ToModel()
}

// Insert persists a new order and returns it as stored.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.OrderNumber,
			o.UserID,
			string(o.Status),
			string(o.PaymentStatus),
			o.Subtotal,
			o.TaxAmount,
			o.ShippingCost,
			o.TotalAmount,
			o.Currency.String(),
			[]byte(o.ShippingAddress),
			[]byte(o.BillingAddress),
			o.Notes,
			o.CreatedAt,
			o.CancelledAt,
		).
		Suffix("RETURNING " + joinColumns(orderColumns)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	inserted, err := r.scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return *inserted, nil
}

// GetByID fetches an order without its items.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate fetches an order and locks its row until the surrounding
// transaction ends.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.getByID(ctx, id, true)
}

func (r *OrderRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": id}).
		PlaceholderFormat(sq.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.scanOrder(r.conn.QueryRow(ctx, query, args...))
}

// UpdateStatus persists the status, payment_status and cancelled_at fields.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status order.Status,
	paymentStatus order.PaymentStatus,
	cancelledAt *time.Time,
) error {
	query, args, err := sq.Update("orders").
		Set("status", string(status)).
		Set("payment_status", string(paymentStatus)).
		Set("cancelled_at", cancelledAt).
		Where(sq.Eq{"order_id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return nil
}

// Query retrieves orders based on filter criteria.
func (r *OrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.Ids})
	}
	if len(filter.UserIds) > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserIds})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		model, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}

	return out
}
