package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                      string          `json:"productId"`
	Name                    string          `json:"name"`
	Description             string          `json:"description"`
	Category                string          `json:"category"`
	Manufacturer            string          `json:"manufacturer"`
	Price                   decimal.Decimal `json:"price"`
	Quantity                int             `json:"quantity"`
	IsAvailable             bool            `json:"isAvailable"`
	IsPrescriptionNecessary bool            `json:"isPrescriptionNecessary"`
	IsFeatured              bool            `json:"isFeatured"`
	ImageURLs               []string        `json:"imageUrls"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

func (p Product) Validate() error {
	if p.Name == "" {
		return &FieldError{Field: "name"}
	}
	if p.Price.IsNegative() {
		return &FieldError{Field: "price"}
	}
	// Sold out (quantity 0) is a legal state; only negative stock is rejected.
	if p.Quantity < 0 {
		return &FieldError{Field: "quantity"}
	}
	return nil
}

type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "invalid or missing field: " + e.Field
}
