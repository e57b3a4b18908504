package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Line is a single product/quantity pair to reserve.
type Line struct {
	ProductID   string
	ProductName string
	Quantity    int
}

// InsufficientStockError reports the first line whose requested quantity
// exceeds the available stock.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}

// Manager gatekeeps and applies stock changes against the products table.
type Manager struct {
	pool Pool
}

// Pool is the subset of *pgxpool.Pool the manager needs for read-only probes.
type Pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewManager(pool Pool) *Manager {
	return &Manager{pool: pool}
}

// CheckAvailability verifies every line against current stock without
// mutating anything. It is a best-effort early gate; the authoritative
// check is the conditional decrement inside the commit transaction.
func (m *Manager) CheckAvailability(ctx context.Context, lines []Line) error {
	for _, line := range lines {
		var available int
		err := m.pool.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1`, line.ProductID).Scan(&available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &InsufficientStockError{ProductName: line.ProductName, Available: 0}
			}
			return fmt.Errorf("select quantity: %w", err)
		}
		if line.Quantity > available {
			return &InsufficientStockError{ProductName: line.ProductName, Available: available}
		}
	}
	return nil
}

// ReserveTx decrements stock for every line inside the caller's transaction.
// Each decrement is conditional on the resulting stock staying non-negative,
// so two concurrent checkouts for the same product cannot both succeed past
// the last unit. Any short line fails the whole transaction.
//
// Lines are locked in product-id order so that two transactions touching the
// same products always take their row locks in the same sequence.
func ReserveTx(ctx context.Context, tx pgx.Tx, lines []Line) error {
	ordered := make([]Line, len(lines))
	copy(ordered, lines)
	slices.SortFunc(ordered, func(a, b Line) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})

	for _, line := range ordered {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND quantity >= $2
		`, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		if tag.RowsAffected() == 0 {
			available := 0
			err := tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1`, line.ProductID).Scan(&available)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("re-read stock: %w", err)
			}
			return &InsufficientStockError{ProductName: line.ProductName, Available: available}
		}
	}
	return nil
}
