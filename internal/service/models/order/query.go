package order

import "github.com/google/uuid"

// QueryOrdersModel filters order listings.
type QueryOrdersModel struct {
	Ids     []uuid.UUID
	UserIds []uuid.UUID
	Limit   int
	Offset  int
}
