package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// ShippingAddress is stored as a free-form snapshot on the order; later
// edits to a user's address never affect historical orders.
type ShippingAddress struct {
	AddressLine string `json:"addressLine"`
	District    string `json:"district"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Zone        string `json:"zone"`
}

type Order struct {
	ID                       string          `json:"orderId"`
	UserID                   string          `json:"userId"`
	ContactNumber            string          `json:"contactNumber"`
	Items                    []Item          `json:"items"`
	Zone                     string          `json:"zone"`
	PaymentMethod            string          `json:"paymentMethod"`
	PaymentStatus            PaymentStatus   `json:"paymentStatus"`
	Status                   Status          `json:"status"`
	ShippingAddress          ShippingAddress `json:"shippingAddress"`
	PrescriptionsURLs        []string        `json:"prescriptionsUrls"`
	TotalAmount              decimal.Decimal `json:"totalAmount"`
	DiscountPercentage       decimal.Decimal `json:"discountPercentage"`
	DiscountAmount           decimal.Decimal `json:"discountAmount"`
	TotalAmountAfterDiscount decimal.Decimal `json:"totalAmountAfterDiscount"`
	DeliveryCharge           decimal.Decimal `json:"deliveryCharge"`
	CreatedAt                time.Time       `json:"createdAt"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

var validPaymentMethods = map[string]struct{}{
	"upi":              {},
	"cash on delivery": {},
	"debit card":       {},
	"credit card":      {},
}

func IsValidPaymentMethod(m string) bool {
	_, ok := validPaymentMethods[m]
	return ok
}
