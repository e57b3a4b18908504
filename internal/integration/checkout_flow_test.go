package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theatashaikh/locomeds/internal/cart"
	"github.com/theatashaikh/locomeds/internal/catalog"
	"github.com/theatashaikh/locomeds/internal/checkout"
	"github.com/theatashaikh/locomeds/internal/coupon"
	"github.com/theatashaikh/locomeds/internal/inventory"
	"github.com/theatashaikh/locomeds/internal/order"
	"github.com/theatashaikh/locomeds/internal/testutil"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

type noopNotifier struct{}

func (noopNotifier) PublishOrderPlaced(context.Context, order.Order, vendor.Vendor) error {
	return nil
}

type noopAssets struct{}

func (noopAssets) UploadPrescription(_ context.Context, f checkout.PrescriptionFile) (string, error) {
	return "https://assets.test/prescriptions/" + f.Name, nil
}

type env struct {
	products catalog.Repository
	carts    cart.Repository
	coupons  coupon.Repository
	vendors  vendor.Repository
	orders   order.Repository
	svc      *checkout.Service
}

func startEnv(t *testing.T) *env {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	pool, cleanup := testutil.StartPostgres(ctx, t)
	t.Cleanup(cleanup)

	e := &env{
		products: catalog.NewPostgresRepository(pool),
		carts:    cart.NewPostgresRepository(pool),
		coupons:  coupon.NewPostgresRepository(pool),
		vendors:  vendor.NewPostgresRepository(pool),
		orders:   order.NewPostgresRepository(pool),
	}
	e.svc = checkout.NewService(checkout.Deps{
		Carts:          e.carts,
		Products:       e.products,
		Coupons:        e.coupons,
		Vendors:        e.vendors,
		Stock:          inventory.NewManager(pool),
		Assets:         noopAssets{},
		Committer:      checkout.NewPgCommitter(pool, e.orders, e.carts),
		Notifier:       noopNotifier{},
		Logger:         log.New(io.Discard, "", 0),
		DeliveryCharge: decimal.NewFromInt(40),
	})
	return e
}

func (e *env) seedProduct(ctx context.Context, t *testing.T, price string, quantity int) catalog.Product {
	t.Helper()
	p := catalog.Product{
		Name:         gofakeit.ProductName(),
		Description:  gofakeit.Sentence(6),
		Category:     "medicine",
		Manufacturer: gofakeit.Company(),
		Price:        decimal.RequireFromString(price),
		Quantity:     quantity,
		IsAvailable:  true,
	}
	require.NoError(t, e.products.Create(ctx, &p))
	return p
}

func (e *env) seedVendor(ctx context.Context, t *testing.T, zone string) vendor.Vendor {
	t.Helper()
	v := vendor.Vendor{
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		BusinessName: gofakeit.Company(),
		Email:        gofakeit.Email(),
		PhoneNumber:  gofakeit.Phone(),
		Zone:         zone,
	}
	require.NoError(t, e.vendors.Register(ctx, &v))
	return v
}

func checkoutRequest(zone string) checkout.Request {
	return checkout.Request{
		Zone:          zone,
		ContactNumber: "9876543210",
		PaymentMethod: "upi",
		ShippingAddress: order.ShippingAddress{
			AddressLine: gofakeit.Street(),
			City:        gofakeit.City(),
			State:       gofakeit.State(),
			Pincode:     gofakeit.Zip(),
			Zone:        zone,
		},
	}
}

func TestCheckoutFlow(t *testing.T) {
	e := startEnv(t)
	ctx := context.Background()

	pa := e.seedProduct(ctx, t, "30", 10)
	pb := e.seedProduct(ctx, t, "110", 5)
	e.seedVendor(ctx, t, "andheri")

	require.NoError(t, e.coupons.Create(ctx, &coupon.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: decimal.NewFromInt(10),
		MaxDiscount:        decimal.NewFromInt(20),
		IsActive:           true,
	}))

	_, err := e.carts.AddItem(ctx, "u1", pa.ID, 2)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", pb.ID, 1)
	require.NoError(t, err)

	req := checkoutRequest("andheri")
	req.CouponCode = "SAVE10"

	placed, err := e.svc.Checkout(ctx, "u1", req)
	require.NoError(t, err)
	require.NotEmpty(t, placed.ID)

	// 2*30 + 110 = 170, 10% = 17 under the 20 cap.
	assert.True(t, placed.TotalAmount.Equal(decimal.NewFromInt(170)), placed.TotalAmount)
	assert.True(t, placed.DiscountAmount.Equal(decimal.NewFromInt(17)), placed.DiscountAmount)
	assert.True(t, placed.TotalAmountAfterDiscount.Equal(decimal.NewFromInt(153)))

	// Order is durable and readable back with its items.
	loaded, err := e.orders.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.UserID)
	assert.Len(t, loaded.Items, 2)
	assert.Equal(t, order.StatusPending, loaded.Status)

	// Stock reserved.
	got, err := e.products.GetByID(ctx, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)

	// Cart deleted by the same transaction.
	_, err = e.carts.Get(ctx, "u1")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	// Vendor sees the order in its zone.
	zoneOrders, err := e.orders.ListByZone(ctx, "andheri")
	require.NoError(t, err)
	require.Len(t, zoneOrders, 1)
	assert.Equal(t, placed.ID, zoneOrders[0].ID)
}

func TestBuyNowConcurrentOversell(t *testing.T) {
	e := startEnv(t)
	ctx := context.Background()

	p := e.seedProduct(ctx, t, "500", 1)
	e.seedVendor(ctx, t, "bandra")

	const attempts = 4
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.BuyNow(ctx, fmt.Sprintf("user-%d", i), p.ID, 1, checkoutRequest("bandra"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *inventory.InsufficientStockError
		require.True(t, errors.As(err, &stockErr), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded, "only one request may take the last unit")

	got, err := e.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity, "stock must never go negative")
}

func TestOrderStatusLifecycle(t *testing.T) {
	e := startEnv(t)
	ctx := context.Background()

	p := e.seedProduct(ctx, t, "90", 3)
	e.seedVendor(ctx, t, "powai")

	req := checkoutRequest("powai")
	req.PaymentMethod = "cash on delivery"

	placed, err := e.svc.BuyNow(ctx, "u9", p.ID, 1, req)
	require.NoError(t, err)

	for _, next := range []order.Status{order.StatusShipped, order.StatusOutForDelivery} {
		_, err = e.orders.UpdateStatus(ctx, placed.ID, next)
		require.NoError(t, err)
	}

	// Backward moves are rejected.
	_, err = e.orders.UpdateStatus(ctx, placed.ID, order.StatusShipped)
	var transitionErr *order.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// Delivery completes a cash on delivery payment.
	delivered, err := e.orders.UpdateStatus(ctx, placed.ID, order.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, delivered.Status)
	assert.Equal(t, order.PaymentCompleted, delivered.PaymentStatus)
}

func TestCartLifecycle(t *testing.T) {
	e := startEnv(t)
	ctx := context.Background()

	p := e.seedProduct(ctx, t, "25", 10)

	// Adding the same product again accumulates quantity.
	_, err := e.carts.AddItem(ctx, "u3", p.ID, 1)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u3", p.ID, 2)
	require.NoError(t, err)

	c, err := e.carts.Get(ctx, "u3")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	require.NotNil(t, c.Items[0].Product)
	assert.Equal(t, p.Name, c.Items[0].Product.Name)

	// Removing is idempotent: a second remove of the same product is a no-op.
	_, err = e.carts.RemoveItem(ctx, "u3", p.ID)
	require.NoError(t, err)
	c, err = e.carts.RemoveItem(ctx, "u3", p.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	require.NoError(t, e.carts.Clear(ctx, "u3"))
	_, err = e.carts.Get(ctx, "u3")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

func TestVendorZoneExclusivity(t *testing.T) {
	e := startEnv(t)
	ctx := context.Background()

	e.seedVendor(ctx, t, "juhu")

	v := vendor.Vendor{
		FirstName: gofakeit.FirstName(), LastName: gofakeit.LastName(),
		BusinessName: gofakeit.Company(), Email: gofakeit.Email(),
		PhoneNumber: gofakeit.Phone(), Zone: "juhu",
	}
	err := e.vendors.Register(ctx, &v)
	assert.ErrorIs(t, err, vendor.ErrZoneTaken)
}
