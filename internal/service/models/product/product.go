package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the read-only catalog view the settlement core consumes: just
// enough to snapshot a name and a unit price onto an order line item.
type Product struct {
	ID        uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
