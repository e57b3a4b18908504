package checkout

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/theatashaikh/locomeds/internal/cart"
	"github.com/theatashaikh/locomeds/internal/inventory"
	"github.com/theatashaikh/locomeds/internal/order"
)

// Committer applies the one mutating region of a checkout: decrement stock,
// persist the order, and (for cart checkouts) delete the source cart. All of
// it happens in a single transaction or not at all.
type Committer interface {
	Commit(ctx context.Context, o *order.Order, lines []inventory.Line, clearCartUserID string) error
}

// TxBeginner is the subset of *pgxpool.Pool the committer needs.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgCommitter struct {
	pool   TxBeginner
	orders order.Repository
	carts  cart.Repository
}

func NewPgCommitter(pool TxBeginner, orders order.Repository, carts cart.Repository) Committer {
	return &pgCommitter{pool: pool, orders: orders, carts: carts}
}

func (c *pgCommitter) Commit(ctx context.Context, o *order.Order, lines []inventory.Line, clearCartUserID string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := inventory.ReserveTx(ctx, tx, lines); err != nil {
		return err
	}

	if err := c.orders.InsertTx(ctx, tx, o); err != nil {
		return err
	}

	if clearCartUserID != "" {
		if err := c.carts.DeleteTx(ctx, tx, clearCartUserID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
