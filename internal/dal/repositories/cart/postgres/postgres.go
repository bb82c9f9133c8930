package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/cart"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CartRepository struct {
	conn postgres.Querier
}

func NewCartRepository(conn postgres.Querier) *CartRepository {
	return &CartRepository{
		conn: conn,
	}
}

// GetByUserID fetches the user's cart.
func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	query, args, err := sq.Select("cart_id", "user_id", "created_at").
		From("carts").
		Where(sq.Eq{"user_id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var c cart.Cart
	var createdAt time.Time
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&c.ID, &c.UserID, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNoCart
		}

		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	c.CreatedAt = createdAt

	return &c, nil
}

// ListItems fetches all line items of a cart.
func (r *CartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error) {
	query, args, err := sq.Select("item_id", "cart_id", "product_id", "quantity").
		From("cart_items").
		Where(sq.Eq{"cart_id": cartID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []cart.CartItem
	for rows.Next() {
		var item cart.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

// Clear deletes all line items of a cart.
func (r *CartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	query, args, err := sq.Delete("cart_items").
		Where(sq.Eq{"cart_id": cartID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
