package order

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusShipped        Status = "shipped"
	StatusOutForDelivery Status = "out for delivery"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

var validStatuses = map[Status]struct{}{
	StatusPending:        {},
	StatusShipped:        {},
	StatusOutForDelivery: {},
	StatusDelivered:      {},
	StatusCanceled:       {},
}

func ToStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid order status")
}

// transitions is the forward-only delivery ladder plus a single cancel edge.
var transitions = map[Status][]Status{
	StatusPending:        {StatusShipped, StatusCanceled},
	StatusShipped:        {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCanceled:       {},
}

// InvalidTransitionError names both states so the caller can see what was
// attempted.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %q to %q", e.From, e.To)
}

// ValidateTransition reports whether from→to is an allowed move.
func ValidateTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}
