package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that the repository uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	InsertTx(ctx context.Context, tx pgx.Tx, o *Order) error
	GetByID(ctx context.Context, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListByZone(ctx context.Context, zone string) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus Status) (Order, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `id, user_id, contact_number, zone, payment_method, payment_status, status,
	shipping_address, prescriptions_urls, total_amount, discount_percentage, discount_amount,
	total_amount_after_discount, delivery_charge, created_at, updated_at`

// InsertTx persists the order and its item snapshot inside the caller's
// transaction, so the insert commits or rolls back together with the stock
// decrements.
func (r *PostgresRepository) InsertTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	if len(o.Items) == 0 {
		return errors.New("no items in order")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	prescriptions := o.PrescriptionsURLs
	if prescriptions == nil {
		prescriptions = []string{}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, contact_number, zone, payment_method, payment_status, status,
			shipping_address, prescriptions_urls, total_amount, discount_percentage, discount_amount,
			total_amount_after_discount, delivery_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`, o.ID, o.UserID, o.ContactNumber, o.Zone, o.PaymentMethod, o.PaymentStatus, o.Status,
		addr, prescriptions, o.TotalAmount, o.DiscountPercentage, o.DiscountAmount,
		o.TotalAmountAfterDiscount, o.DeliveryCharge).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

// ListByZone returns the orders routed to the given zone; this is how a
// vendor sees its order book, since orders carry no explicit vendor key.
func (r *PostgresRepository) ListByZone(ctx context.Context, zone string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE zone=$1 ORDER BY created_at DESC`, zone)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]Order, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// UpdateStatus applies a forward-only transition. The current status is
// locked for the duration of the check so concurrent updates serialize.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, newStatus Status) (Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current Status
	var paymentMethod string
	err = tx.QueryRow(ctx,
		`SELECT status, payment_method FROM orders WHERE id=$1 FOR UPDATE`, orderID,
	).Scan(&current, &paymentMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("select status: %w", err)
	}

	if err := ValidateTransition(current, newStatus); err != nil {
		return Order{}, err
	}

	// Cash-on-delivery settles when the order is handed over.
	paymentStatus := PaymentPending
	if newStatus == StatusDelivered && paymentMethod == "cash on delivery" {
		paymentStatus = PaymentCompleted
	}

	if paymentStatus == PaymentCompleted {
		_, err = tx.Exec(ctx,
			`UPDATE orders SET status=$2, payment_status=$3, updated_at=now() WHERE id=$1`,
			orderID, newStatus, paymentStatus)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`,
			orderID, newStatus)
	}
	if err != nil {
		return Order{}, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}

	return r.GetByID(ctx, orderID)
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, product_name, unit_price, quantity
		FROM order_items WHERE order_id=$1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return items, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var addr []byte
	err := row.Scan(&o.ID, &o.UserID, &o.ContactNumber, &o.Zone, &o.PaymentMethod,
		&o.PaymentStatus, &o.Status, &addr, &o.PrescriptionsURLs, &o.TotalAmount,
		&o.DiscountPercentage, &o.DiscountAmount, &o.TotalAmountAfterDiscount,
		&o.DeliveryCharge, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return Order{}, fmt.Errorf("unmarshal shipping address: %w", err)
	}

	return o, nil
}
