package httpapi

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/theatashaikh/locomeds/internal/checkout"
	"github.com/theatashaikh/locomeds/internal/order"
)

// Prescription uploads are scans or photos; anything past this is abuse.
const maxCheckoutBody = 20 << 20

type checkoutRequest struct {
	Zone            string                `json:"zone"`
	ContactNumber   string                `json:"contactNumber"`
	PaymentMethod   string                `json:"paymentMethod"`
	CouponCode      string                `json:"couponCode"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	ProductID       string                `json:"productId"`
	Quantity        int                   `json:"quantity"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req, _, _, ok := h.parseCheckoutRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	o, err := h.checkout.Checkout(ctx, userID, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	req, productID, quantity, ok := h.parseCheckoutRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	o, err := h.checkout.BuyNow(ctx, userID, productID, quantity, req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// parseCheckoutRequest accepts either a JSON body or multipart/form-data.
// Multipart is how prescription scans arrive: text fields plus one or more
// "prescriptions" file parts, with shippingAddress sent as a JSON field.
func (h *Handler) parseCheckoutRequest(w http.ResponseWriter, r *http.Request) (checkout.Request, string, int, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		return h.parseMultipartCheckout(w, r)
	}

	var body checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return checkout.Request{}, "", 0, false
	}

	return checkout.Request{
		Zone:            body.Zone,
		ContactNumber:   body.ContactNumber,
		PaymentMethod:   body.PaymentMethod,
		CouponCode:      body.CouponCode,
		ShippingAddress: body.ShippingAddress,
	}, body.ProductID, body.Quantity, true
}

func (h *Handler) parseMultipartCheckout(w http.ResponseWriter, r *http.Request) (checkout.Request, string, int, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBody)
	if err := r.ParseMultipartForm(maxCheckoutBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return checkout.Request{}, "", 0, false
	}

	req := checkout.Request{
		Zone:          r.FormValue("zone"),
		ContactNumber: r.FormValue("contactNumber"),
		PaymentMethod: r.FormValue("paymentMethod"),
		CouponCode:    r.FormValue("couponCode"),
	}

	if raw := r.FormValue("shippingAddress"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.ShippingAddress); err != nil {
			writeError(w, http.StatusBadRequest, "invalid shippingAddress field")
			return checkout.Request{}, "", 0, false
		}
	}

	quantity := 0
	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid quantity field")
			return checkout.Request{}, "", 0, false
		}
		quantity = q
	}

	for _, fh := range r.MultipartForm.File["prescriptions"] {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable prescription upload")
			return checkout.Request{}, "", 0, false
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable prescription upload")
			return checkout.Request{}, "", 0, false
		}
		req.PrescriptionFiles = append(req.PrescriptionFiles, checkout.PrescriptionFile{
			Name:    fh.Filename,
			Content: content,
		})
	}

	return req, r.FormValue("productId"), quantity, true
}
