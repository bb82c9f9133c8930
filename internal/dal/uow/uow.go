package uow

import (
	"context"

	"github.com/addismart/storefront/internal/dal/interfaces/icartrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/icatalogrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/addismart/storefront/internal/dal/interfaces/ipaymentrepo"
	"github.com/addismart/storefront/internal/dal/postgres"
	cartrepo "github.com/addismart/storefront/internal/dal/repositories/cart/postgres"
	catalogrepo "github.com/addismart/storefront/internal/dal/repositories/catalog/postgres"
	orderrepo "github.com/addismart/storefront/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/addismart/storefront/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/addismart/storefront/internal/dal/repositories/outbox/postgres"
	paymentrepo "github.com/addismart/storefront/internal/dal/repositories/payment/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork scopes a set of repositories to one database transaction.
// Before Begin the repositories run against the pool directly.
type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	orderRepo     iorderrepo.Repository
	orderItemRepo iorderitemrepo.Repository
	paymentRepo   ipaymentrepo.Repository
	cartRepo      icartrepo.Repository
	catalogRepo   icatalogrepo.Repository
	outboxRepo    ioutboxrepo.Repository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{
		pool: client.Pool(),
	}
	u.bindRepos(client.Pool())

	return u
}

func (u *UnitOfWork) bindRepos(conn postgres.Querier) {
	u.orderRepo = orderrepo.NewOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(conn)
	u.paymentRepo = paymentrepo.NewPaymentRepository(conn)
	u.cartRepo = cartrepo.NewCartRepository(conn)
	u.catalogRepo = catalogrepo.NewCatalogRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.Repository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.Repository {
	return u.orderItemRepo
}

func (u *UnitOfWork) PaymentRepository() ipaymentrepo.Repository {
	return u.paymentRepo
}

func (u *UnitOfWork) CartRepository() icartrepo.Repository {
	return u.cartRepo
}

func (u *UnitOfWork) CatalogRepository() icatalogrepo.Repository {
	return u.catalogRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.Repository {
	return u.outboxRepo
}

// Begin opens a transaction and rebinds every repository to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bindRepos(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

// Rollback is a no-op after a successful Commit.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return err
	}

	return nil
}
