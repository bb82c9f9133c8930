package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/addismart/storefront/internal/dal/postgres"
	"github.com/addismart/storefront/internal/service/errs"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PrincipalRepository is a read-only view over the auth service's users
// table, used to resolve contact details for notification payloads.
type PrincipalRepository struct {
	conn postgres.Querier
}

func NewPrincipalRepository(conn postgres.Querier) *PrincipalRepository {
	return &PrincipalRepository{
		conn: conn,
	}
}

// GetByID fetches a principal.
func (r *PrincipalRepository) GetByID(ctx context.Context, id uuid.UUID) (*principal.Principal, error) {
	query, args, err := sq.Select("user_id", "email", "first_name", "last_name", "default_address").
		From("users").
		Where(sq.Eq{"user_id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var p principal.Principal
	var address []byte
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", errs.ErrNotFound, id)
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	p.DefaultAddress = address

	return &p, nil
}
