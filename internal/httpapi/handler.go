// Package httpapi exposes the storefront, checkout and vendor endpoints
// over HTTP. Identity arrives in headers (X-User-Id, X-Vendor-Id); the
// handlers translate domain errors into statuses and never leak SQL
// details to callers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/theatashaikh/locomeds/internal/cart"
	"github.com/theatashaikh/locomeds/internal/catalog"
	"github.com/theatashaikh/locomeds/internal/checkout"
	"github.com/theatashaikh/locomeds/internal/coupon"
	"github.com/theatashaikh/locomeds/internal/inventory"
	"github.com/theatashaikh/locomeds/internal/order"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

const (
	userIDHeader   = "X-User-Id"
	vendorIDHeader = "X-Vendor-Id"
)

// CheckoutService matches *checkout.Service.
type CheckoutService interface {
	Checkout(ctx context.Context, userID string, req checkout.Request) (order.Order, error)
	BuyNow(ctx context.Context, userID, productID string, quantity int, req checkout.Request) (order.Order, error)
}

// StatusNotifier publishes order status changes. Delivery is best-effort;
// a broker outage never blocks the vendor's update.
type StatusNotifier interface {
	PublishOrderStatusChanged(ctx context.Context, o order.Order, oldStatus order.Status) error
}

type Handler struct {
	checkout CheckoutService
	orders   order.Repository
	carts    cart.Repository
	products catalog.Repository
	coupons  coupon.Repository
	vendors  vendor.Repository
	events   StatusNotifier
	logger   *log.Logger
	timeout  time.Duration
}

type Deps struct {
	Checkout CheckoutService
	Orders   order.Repository
	Carts    cart.Repository
	Products catalog.Repository
	Coupons  coupon.Repository
	Vendors  vendor.Repository
	Events   StatusNotifier
	Logger   *log.Logger
	Timeout  time.Duration
}

func NewHandler(d Deps) *Handler {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		checkout: d.Checkout,
		orders:   d.Orders,
		carts:    d.Carts,
		products: d.Products,
		coupons:  d.Coupons,
		vendors:  d.Vendors,
		events:   d.Events,
		logger:   logger,
		timeout:  timeout,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "locomeds",
	})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// userID pulls the authenticated user from the request, writing 401 when
// absent. Authentication itself happens upstream.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userIDHeader+" header")
		return "", false
	}
	return id, true
}

func (h *Handler) vendorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(vendorIDHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing "+vendorIDHeader+" header")
		return "", false
	}
	return id, true
}

// writeDomainError maps domain failures onto HTTP statuses. Anything
// unrecognized is a persistence or programming fault and comes back as a
// plain 500 with the detail kept in the server log.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *checkout.ValidationError
		fieldErr      *catalog.FieldError
		stockErr      *inventory.InsufficientStockError
		rxErr         *checkout.PrescriptionRequiredError
		zoneErr       *vendor.NoVendorForZoneError
		statusErr     *order.InvalidTransitionError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fieldErr),
		errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusBadRequest, "coupon not found or inactive")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"product":   stockErr.ProductName,
			"available": stockErr.Available,
		})
	case errors.As(err, &rxErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   rxErr.Error(),
			"product": rxErr.ProductName,
		})
	case errors.As(err, &zoneErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": zoneErr.Error(),
			"zone":  zoneErr.Zone,
		})
	case errors.As(err, &statusErr):
		writeError(w, http.StatusConflict, statusErr.Error())
	case errors.Is(err, cart.ErrCartNotFound):
		writeError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, vendor.ErrNotFound):
		writeError(w, http.StatusNotFound, "vendor not found")
	case errors.Is(err, vendor.ErrZoneTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Printf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
