package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/theatashaikh/locomeds/internal/catalog"
)

var ErrCartNotFound = errors.New("cart not found")

// DBPool matches the methods from *pgxpool.Pool that the repository uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Get(ctx context.Context, userID string) (Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (Cart, error)
	Clear(ctx context.Context, userID string) error
	DeleteTx(ctx context.Context, tx pgx.Tx, userID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get returns the cart with product snapshots joined in.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, updated_at FROM carts WHERE user_id=$1`, userID,
	).Scan(&c.ID, &c.UserID, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ci.product_id, ci.quantity,
			p.name, p.price, p.quantity, p.is_prescription_necessary, p.is_available
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
	`, c.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var p catalog.Product
		if err := rows.Scan(&it.ProductID, &it.Quantity,
			&p.Name, &p.Price, &p.Quantity, &p.IsPrescriptionNecessary, &p.IsAvailable); err != nil {
			return Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		p.ID = it.ProductID
		it.Product = &p
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, fmt.Errorf("rows: %w", err)
	}

	return c, nil
}

// AddItem creates the cart lazily and merges the quantity into an existing
// line for the same product, else appends a new line.
func (r *PostgresRepository) AddItem(ctx context.Context, userID, productID string, quantity int) (Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Cart{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID string
	err = tx.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, uuid.NewString(), userID).Scan(&cartID)
	if err != nil {
		return Cart{}, fmt.Errorf("upsert cart: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, cartID, productID, quantity)
	if err != nil {
		return Cart{}, fmt.Errorf("upsert cart item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Cart{}, fmt.Errorf("commit: %w", err)
	}

	return r.Get(ctx, userID)
}

// RemoveItem drops the line for the given product. Removing a product that
// is not in the cart is a no-op; a missing cart is an error.
func (r *PostgresRepository) RemoveItem(ctx context.Context, userID, productID string) (Cart, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("select cart: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID); err != nil {
		return Cart{}, fmt.Errorf("delete cart item: %w", err)
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE carts SET updated_at=now() WHERE id=$1`, cartID); err != nil {
		return Cart{}, fmt.Errorf("bump cart: %w", err)
	}

	return r.Get(ctx, userID)
}

// Clear deletes the cart and its items.
func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

// DeleteTx removes the cart inside the caller's transaction; used by the
// checkout commit so the cart disappears atomically with the order insert.
func (r *PostgresRepository) DeleteTx(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
