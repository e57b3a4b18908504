package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/theatashaikh/locomeds/internal/order"
)

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := h.requestContext(r)
	defer cancel()

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	// Orders are only visible to their owner; a guessable id must look
	// the same as a missing one.
	if o.UserID != userID {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.vendorID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.vendors.GetByID(ctx, vendorID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	orders, err := h.orders.ListByZone(ctx, v.Zone)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := h.vendorID(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "orderId")

	var body updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	newStatus, err := order.ToStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	v, err := h.vendors.GetByID(ctx, vendorID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	// A vendor only manages the orders routed to its zone.
	if o.Zone != v.Zone {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	updated, err := h.orders.UpdateStatus(ctx, orderID, newStatus)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if h.events != nil {
		notifyCtx, done := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
		go func() {
			defer done()
			if err := h.events.PublishOrderStatusChanged(notifyCtx, updated, o.Status); err != nil {
				h.logger.Printf("order %s: publish status change: %v", updated.ID, err)
			}
		}()
	}

	writeJSON(w, http.StatusOK, updated)
}
