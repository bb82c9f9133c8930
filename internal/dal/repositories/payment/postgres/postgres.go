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
	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

var paymentColumns = []string{
	"payment_id",
	"order_id",
	"user_id",
	"provider",
	"amount",
	"currency",
	"status",
	"transaction_ref",
	"checkout_url",
	"provider_response",
	"created_at",
	"updated_at",
}

// PaymentDal represents payment data access layer model
type PaymentDal struct {
	Id               uuid.UUID       `db:"payment_id"`
	OrderId          uuid.UUID       `db:"order_id"`
	UserId           uuid.UUID       `db:"user_id"`
	Provider         string          `db:"provider"`
	Amount           decimal.Decimal `db:"amount"`
	Currency         string          `db:"currency"`
	Status           string          `db:"status"`
	TransactionRef   string          `db:"transaction_ref"`
	CheckoutUrl      string          `db:"checkout_url"`
	ProviderResponse []byte          `db:"provider_response"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// ToModel converts PaymentDal to service layer Payment model
func (p *PaymentDal) ToModel() (*payment.Payment, error) {
	cur, err := currency.ParseCurrency(p.Currency)
	if err != nil {
		return nil, err
	}

	return &payment.Payment{
		ID:               p.Id,
		OrderID:          p.OrderId,
		UserID:           p.UserId,
		Provider:         payment.Provider(p.Provider),
		Amount:           p.Amount,
		Currency:         cur,
		Status:           payment.Status(p.Status),
		TransactionRef:   p.TransactionRef,
		CheckoutURL:      p.CheckoutUrl,
		ProviderResponse: p.ProviderResponse,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

type PaymentRepository struct {
	conn postgres.Querier
}

func NewPaymentRepository(conn postgres.Querier) *PaymentRepository {
	return &PaymentRepository{
		conn: conn,
	}
}

func (r *PaymentRepository) scanPayment(row pgx.Row) (*payment.Payment, error) {
	var dal PaymentDal
	err := row.Scan(
		&dal.Id,
		&dal.OrderId,
		&dal.UserId,
		&dal.Provider,
		&dal.Amount,
		&dal.Currency,
		&dal.Status,
		&dal.TransactionRef,
		&dal.CheckoutUrl,
		&dal.ProviderResponse,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}

		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	return dal.ToModel()
}

// Insert persists a new payment. A duplicate order_id or transaction_ref
// means another initiation won the race.
func (r *PaymentRepository) Insert(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	query, args, err := sq.Insert("payments").
		Columns(paymentColumns...).
		Values(
			p.ID,
			p.OrderID,
			p.UserID,
			string(p.Provider),
			p.Amount,
			p.Currency.String(),
			string(p.Status),
			p.TransactionRef,
			p.CheckoutURL,
			[]byte(p.ProviderResponse),
			p.CreatedAt,
			p.UpdatedAt,
		).
		Suffix("RETURNING payment_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return payment.Payment{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	var id uuid.UUID
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return payment.Payment{}, fmt.Errorf("%w: payment already exists for order", errs.ErrConcurrencyConflict)
		}

		return payment.Payment{}, fmt.Errorf("failed to insert payment: %w", err)
	}
	p.ID = id

	return p, nil
}

// GetByOrderID fetches the payment row of an order.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error) {
	query, args, err := sq.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"order_id": orderID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.scanPayment(r.conn.QueryRow(ctx, query, args...))
}

// GetByTransactionRefForUpdate fetches a payment by correlation id and locks
// its row until the surrounding transaction ends.
func (r *PaymentRepository) GetByTransactionRefForUpdate(ctx context.Context, ref string) (*payment.Payment, error) {
	query, args, err := sq.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"transaction_ref": ref}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.scanPayment(r.conn.QueryRow(ctx, query, args...))
}

// Update persists the mutable payment fields.
func (r *PaymentRepository) Update(ctx context.Context, p payment.Payment) error {
	query, args, err := sq.Update("payments").
		Set("provider", string(p.Provider)).
		Set("amount", p.Amount).
		Set("currency", p.Currency.String()).
		Set("status", string(p.Status)).
		Set("transaction_ref", p.TransactionRef).
		Set("checkout_url", p.CheckoutURL).
		Set("provider_response", []byte(p.ProviderResponse)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"payment_id": p.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: transaction reference already in use", errs.ErrConcurrencyConflict)
		}

		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}

	return nil
}

// ListByUserID fetches a customer's payments, newest first.
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]payment.Payment, error) {
	query, args, err := sq.Select(paymentColumns...).
		From("payments").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var result []payment.Payment
	for rows.Next() {
		model, err := r.scanPayment(rows)
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
