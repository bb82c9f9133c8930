package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var orderItemColumns = []string{
	"item_id",
	"order_id",
	"product_id",
	"product_name",
	"quantity",
	"price_per_item",
	"total_price",
	"created_at",
}

// OrderItemDal represents order item data access layer model
type OrderItemDal struct {
	Id           uuid.UUID       `db:"item_id"`
	OrderId      uuid.UUID       `db:"order_id"`
	ProductId    uuid.UUID       `db:"product_id"`
	ProductName  string          `db:"product_name"`
	Quantity     int             `db:"quantity"`
	PricePerItem decimal.Decimal `db:"price_per_item"`
	TotalPrice   decimal.Decimal `db:"total_price"`
	CreatedAt    time.Time       `db:"created_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model
func (i *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:           i.Id,
		OrderID:      i.OrderId,
		ProductID:    i.ProductId,
		ProductName:  i.ProductName,
		Quantity:     i.Quantity,
		PricePerItem: i.PricePerItem,
		TotalPrice:   i.TotalPrice,
		CreatedAt:    i.CreatedAt,
	}
}

type OrderItemRepository struct {
	conn postgres.Querier
}

func NewOrderItemRepository(conn postgres.Querier) *OrderItemRepository {
	return &OrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts the line items of a freshly created order.
func (r *OrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := sq.Insert("order_items").
		Columns(orderItemColumns...).
		PlaceholderFormat(sq.Dollar)

	for _, item := range items {
		builder = builder.Values(
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.PricePerItem,
			item.TotalPrice,
			item.CreatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	return items, nil
}

// ListByOrderIDs fetches items for a set of orders.
func (r *OrderItemRepository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query, args, err := sq.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("created_at ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.ProductName,
			&dal.Quantity,
			&dal.PricePerItem,
			&dal.TotalPrice,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
