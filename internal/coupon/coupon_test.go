package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponValidate(t *testing.T) {
	valid := Coupon{Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10), MaxDiscount: decimal.NewFromInt(20)}
	require.NoError(t, valid.Validate())

	noCode := valid
	noCode.Code = ""
	require.Error(t, noCode.Validate())

	over := valid
	over.DiscountPercentage = decimal.NewFromInt(101)
	require.Error(t, over.Validate())

	negative := valid
	negative.MaxDiscount = decimal.NewFromInt(-1)
	require.Error(t, negative.Validate())
}

func TestGetActiveByCode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	t.Run("found", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "code", "discount_percentage", "max_discount", "is_active", "created_at"}).
			AddRow("c1", "SAVE10", "10", "20", true, time.Now())
		mock.ExpectQuery("SELECT id, code, discount_percentage").
			WithArgs("SAVE10").
			WillReturnRows(rows)

		c, err := repo.GetActiveByCode(context.Background(), "SAVE10")
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", c.Code)
		assert.True(t, c.DiscountPercentage.Equal(decimal.NewFromInt(10)))
		assert.True(t, c.MaxDiscount.Equal(decimal.NewFromInt(20)))
	})

	t.Run("unknown or inactive code", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, code, discount_percentage").
			WithArgs("GONE").
			WillReturnRows(pgxmock.NewRows([]string{"id", "code", "discount_percentage", "max_discount", "is_active", "created_at"}))

		_, err := repo.GetActiveByCode(context.Background(), "GONE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	t.Run("assigns an id and inserts", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO coupons").
			WithArgs(pgxmock.AnyArg(), "SAVE10", decimal.NewFromInt(10), decimal.NewFromInt(20), true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		c := Coupon{Code: "SAVE10", DiscountPercentage: decimal.NewFromInt(10), MaxDiscount: decimal.NewFromInt(20), IsActive: true}
		require.NoError(t, repo.Create(context.Background(), &c))
		assert.NotEmpty(t, c.ID)
	})

	t.Run("rejects invalid coupons before touching the db", func(t *testing.T) {
		c := Coupon{Code: "", DiscountPercentage: decimal.NewFromInt(10)}
		require.Error(t, repo.Create(context.Background(), &c))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
