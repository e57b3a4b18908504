package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theatashaikh/locomeds/internal/catalog"
	"github.com/theatashaikh/locomeds/internal/coupon"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.products.Create(ctx, &p); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	products, err := h.products.List(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := h.requestContext(r)
	defer cancel()

	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// Restock sets the absolute stock level for a product. Zero is legal and
// marks the product sold out.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var body restockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.products.SetQuantity(ctx, productID, body.Quantity); err != nil {
		h.writeDomainError(w, err)
		return
	}

	p, err := h.products.GetByID(ctx, productID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c coupon.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.coupons.Create(ctx, &c); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	coupons, err := h.coupons.List(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if coupons == nil {
		coupons = []coupon.Coupon{}
	}

	writeJSON(w, http.StatusOK, coupons)
}

func (h *Handler) RegisterVendor(w http.ResponseWriter, r *http.Request) {
	var v vendor.Vendor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if v.Email == "" || v.Zone == "" {
		writeError(w, http.StatusBadRequest, "email and zone are required")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.vendors.Register(ctx, &v); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}
