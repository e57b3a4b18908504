package checkout

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when a cart checkout finds nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError names the request field that is missing or malformed.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// PrescriptionRequiredError reports the first line item that requires a
// prescription when none was supplied.
type PrescriptionRequiredError struct {
	ProductName string
}

func (e *PrescriptionRequiredError) Error() string {
	return fmt.Sprintf("%q requires a prescription upload", e.ProductName)
}
