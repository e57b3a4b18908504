package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ErrNotFound covers both an unknown code and a deactivated coupon: a code
// the caller supplied but cannot redeem aborts the checkout either way.
var ErrNotFound = errors.New("coupon not found")

type Coupon struct {
	ID                 string          `json:"couponId"`
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	MaxDiscount        decimal.Decimal `json:"maxDiscount"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func (c Coupon) Validate() error {
	if c.Code == "" {
		return errors.New("code is required")
	}
	if c.DiscountPercentage.IsNegative() || c.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("discount percentage must be between 0 and 100")
	}
	if c.MaxDiscount.IsNegative() {
		return errors.New("max discount must not be negative")
	}
	return nil
}

// DBPool matches the methods from *pgxpool.Pool that the repository uses.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetActiveByCode(ctx context.Context, code string) (Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, c *Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO coupons (id, code, discount_percentage, max_discount, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Code, c.DiscountPercentage, c.MaxDiscount, c.IsActive)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetActiveByCode(ctx context.Context, code string) (Coupon, error) {
	var c Coupon
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, discount_percentage, max_discount, is_active, created_at
		FROM coupons WHERE code=$1 AND is_active
	`, code).Scan(&c.ID, &c.Code, &c.DiscountPercentage, &c.MaxDiscount, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, fmt.Errorf("select coupon: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, discount_percentage, max_discount, is_active, created_at
		FROM coupons ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("select coupons: %w", err)
	}
	defer rows.Close()

	var coupons []Coupon
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountPercentage, &c.MaxDiscount, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return coupons, nil
}
