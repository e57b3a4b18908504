// Package checkout converts a mutable cart (or a single buy-now line) into
// an immutable, priced, stock-reserving order routed to the vendor serving
// the order's zone.
package checkout

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/theatashaikh/locomeds/internal/cart"
	"github.com/theatashaikh/locomeds/internal/catalog"
	"github.com/theatashaikh/locomeds/internal/coupon"
	"github.com/theatashaikh/locomeds/internal/inventory"
	"github.com/theatashaikh/locomeds/internal/order"
	"github.com/theatashaikh/locomeds/internal/pricing"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

// Request carries the checkout parameters shared by the cart and buy-now
// paths.
type Request struct {
	Zone              string
	ContactNumber     string
	PaymentMethod     string
	ShippingAddress   order.ShippingAddress
	CouponCode        string
	PrescriptionFiles []PrescriptionFile
}

// StockChecker is the read-only availability probe run before any pricing
// work. The authoritative check happens again inside the commit.
type StockChecker interface {
	CheckAvailability(ctx context.Context, lines []inventory.Line) error
}

// Notifier delivers the best-effort order notifications.
type Notifier interface {
	PublishOrderPlaced(ctx context.Context, o order.Order, v vendor.Vendor) error
}

type Service struct {
	carts    cart.Repository
	products catalog.Repository
	coupons  coupon.Repository
	vendors  vendor.Repository
	stock    StockChecker
	assets   AssetStore
	commit   Committer
	notifier Notifier
	logger   *log.Logger

	deliveryCharge decimal.Decimal
}

type Deps struct {
	Carts          cart.Repository
	Products       catalog.Repository
	Coupons        coupon.Repository
	Vendors        vendor.Repository
	Stock          StockChecker
	Assets         AssetStore
	Committer      Committer
	Notifier       Notifier
	Logger         *log.Logger
	DeliveryCharge decimal.Decimal
}

func NewService(d Deps) *Service {
	return &Service{
		carts:          d.Carts,
		products:       d.Products,
		coupons:        d.Coupons,
		vendors:        d.Vendors,
		stock:          d.Stock,
		assets:         d.Assets,
		commit:         d.Committer,
		notifier:       d.Notifier,
		logger:         d.Logger,
		deliveryCharge: d.DeliveryCharge,
	}
}

// line pairs a requested quantity with the product snapshot read at the
// start of the attempt.
type line struct {
	product  catalog.Product
	quantity int
}

// Checkout converts the consumer's persisted cart into an order and deletes
// the cart as part of the commit.
func (s *Service) Checkout(ctx context.Context, userID string, req Request) (order.Order, error) {
	if err := validateRequest(req); err != nil {
		return order.Order{}, err
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}

	lines := make([]line, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		lines = append(lines, line{product: *it.Product, quantity: it.Quantity})
	}
	if len(lines) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	return s.assemble(ctx, userID, req, lines, userID)
}

// BuyNow orders a single product directly, bypassing the cart. The cart, if
// any, is left untouched.
func (s *Service) BuyNow(ctx context.Context, userID, productID string, quantity int, req Request) (order.Order, error) {
	if err := validateRequest(req); err != nil {
		return order.Order{}, err
	}
	if productID == "" {
		return order.Order{}, &ValidationError{Field: "productId"}
	}
	if quantity < 1 {
		return order.Order{}, &ValidationError{Field: "quantity"}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return order.Order{}, err
	}

	return s.assemble(ctx, userID, req, []line{{product: p, quantity: quantity}}, "")
}

// assemble runs the shared gate pipeline. Steps before the commit are
// read-only probes; a failure at any of them leaves no state behind.
func (s *Service) assemble(ctx context.Context, userID string, req Request, lines []line, clearCartUserID string) (order.Order, error) {
	invLines := lo.Map(lines, func(l line, _ int) inventory.Line {
		return inventory.Line{ProductID: l.product.ID, ProductName: l.product.Name, Quantity: l.quantity}
	})

	if err := s.stock.CheckAvailability(ctx, invLines); err != nil {
		return order.Order{}, err
	}

	var cpn *coupon.Coupon
	if req.CouponCode != "" {
		c, err := s.coupons.GetActiveByCode(ctx, req.CouponCode)
		if err != nil {
			return order.Order{}, err
		}
		cpn = &c
	}

	quote := pricing.Calculate(lo.Map(lines, func(l line, _ int) pricing.Line {
		return pricing.Line{UnitPrice: l.product.Price, Quantity: l.quantity}
	}), cpn, s.deliveryCharge)

	prescriptionURLs, err := gatePrescriptions(ctx, s.assets, lines, req.PrescriptionFiles)
	if err != nil {
		return order.Order{}, err
	}

	v, err := s.vendors.ResolveByZone(ctx, req.Zone)
	if err != nil {
		return order.Order{}, err
	}

	o := order.Order{
		UserID:          userID,
		ContactNumber:   req.ContactNumber,
		Zone:            strings.ToLower(req.Zone),
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   order.PaymentPending,
		Status:          order.StatusPending,
		ShippingAddress: req.ShippingAddress,
		Items: lo.Map(lines, func(l line, _ int) order.Item {
			return order.Item{
				ProductID:   l.product.ID,
				ProductName: l.product.Name,
				UnitPrice:   l.product.Price,
				Quantity:    l.quantity,
			}
		}),
		PrescriptionsURLs:        prescriptionURLs,
		TotalAmount:              quote.TotalAmount,
		DiscountPercentage:       quote.DiscountPercentage,
		DiscountAmount:           quote.DiscountAmount,
		TotalAmountAfterDiscount: quote.TotalAmountAfterDiscount,
		DeliveryCharge:           quote.DeliveryCharge,
	}

	if err := s.commit.Commit(ctx, &o, invLines, clearCartUserID); err != nil {
		return order.Order{}, err
	}

	s.notify(ctx, o, v)

	return o, nil
}

// notify fires the order notifications without blocking the response.
// Failures are logged and never surfaced to the caller.
func (s *Service) notify(ctx context.Context, o order.Order, v vendor.Vendor) {
	if s.notifier == nil {
		return
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	go func() {
		defer cancel()
		if err := s.notifier.PublishOrderPlaced(notifyCtx, o, v); err != nil {
			s.logger.Printf("order %s: publish notification: %v", o.ID, err)
		}
	}()
}

func validateRequest(req Request) error {
	if req.Zone == "" {
		return &ValidationError{Field: "zone"}
	}
	if req.ContactNumber == "" {
		return &ValidationError{Field: "contactNumber"}
	}
	if req.PaymentMethod == "" {
		return &ValidationError{Field: "paymentMethod"}
	}
	if !order.IsValidPaymentMethod(req.PaymentMethod) {
		return &ValidationError{Field: "paymentMethod"}
	}
	addr := req.ShippingAddress
	if addr.AddressLine == "" || addr.City == "" || addr.State == "" || addr.Pincode == "" {
		return &ValidationError{Field: "shippingAddress"}
	}
	return nil
}
