package iprincipalrepo

import (
	"context"

	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/google/uuid"
)

// Repository resolves customer contact details for notification payloads.
// Identity management itself is owned by the auth service; this is a
// read-only view.
type Repository interface {
	// GetByID fetches a principal, errs.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*principal.Principal, error)
}
