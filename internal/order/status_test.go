package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStatus(t *testing.T) {
	for _, s := range []string{"pending", "shipped", "out for delivery", "delivered", "canceled"} {
		got, err := ToStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ToStatus("returned")
	assert.Error(t, err)
}

func TestValidateTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusCanceled},
		{StatusShipped, StatusOutForDelivery},
		{StatusOutForDelivery, StatusDelivered},
	}
	for _, tr := range allowed {
		assert.NoError(t, ValidateTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusOutForDelivery}, // skips a state
		{StatusPending, StatusDelivered},
		{StatusShipped, StatusPending}, // backward
		{StatusShipped, StatusCanceled},
		{StatusDelivered, StatusCanceled},
		{StatusCanceled, StatusShipped},
		{StatusDelivered, StatusPending},
	}
	for _, tr := range denied {
		err := ValidateTransition(tr.from, tr.to)
		require.Error(t, err, "%s -> %s", tr.from, tr.to)

		var invalid *InvalidTransitionError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, tr.from, invalid.From)
		assert.Equal(t, tr.to, invalid.To)
	}
}
