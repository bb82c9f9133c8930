package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository is the read-only product lookup for order creation.
type CatalogRepository struct {
	conn postgres.Querier
}

func NewCatalogRepository(conn postgres.Querier) *CatalogRepository {
	return &CatalogRepository{
		conn: conn,
	}
}

// Get fetches a product's name and current unit price.
func (r *CatalogRepository) Get(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	query, args, err := sq.Select("product_id", "name", "unit_price").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var p product.Product
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Name, &p.UnitPrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", errs.ErrNotFound, productID)
		}

		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}
