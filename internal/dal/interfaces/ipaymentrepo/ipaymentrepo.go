package ipaymentrepo

import (
	"context"

	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/google/uuid"
)

// Repository defines payment persistence operations.
type Repository interface {
	// Insert persists a new payment. The unique constraints on order_id and
	// transaction_ref backstop races; violations surface as
	// errs.ErrConcurrencyConflict.
	Insert(ctx context.Context, p payment.Payment) (payment.Payment, error)

	// GetByOrderID fetches the payment for an order, nil error and
	// errs.ErrNotFound when absent.
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*payment.Payment, error)

	// GetByTransactionRefForUpdate fetches a payment by its provider-facing
	// correlation id and takes a row lock for the surrounding transaction.
	GetByTransactionRefForUpdate(ctx context.Context, ref string) (*payment.Payment, error)

	// Update persists the mutable payment fields.
	Update(ctx context.Context, p payment.Payment) error

	// ListByUserID fetches a customer's payments, newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]payment.Payment, error)
}
