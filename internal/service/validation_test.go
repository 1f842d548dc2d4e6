package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ShippingInput {
	return ShippingInput{
		FirstName: "Petya",
		LastName:  "Petrov",
		Email:     "petya@example.com",
		Phone:     "+380501234567",
		City:      "Kyiv",
		Address:   "Khreshchatyk 12",
		OrderDate: "2025-06-01T14:30",
	}
}

func TestValidateQuantity(t *testing.T) {
	assert.Nil(t, validateQuantity(1, 5))
	assert.Nil(t, validateQuantity(5, 5))

	verr := validateQuantity(6, 5)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "quantity")

	verr = validateQuantity(0, 5)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "quantity")

	verr = validateQuantity(-3, 5)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "quantity")
}

func TestValidateShippingInputValid(t *testing.T) {
	orderDate, verr := validInput().Validate(true)
	require.Nil(t, verr)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), orderDate)
}

func TestValidateShippingInputRFC3339Date(t *testing.T) {
	in := validInput()
	in.OrderDate = "2025-06-01T14:30:00Z"

	_, verr := in.Validate(true)
	assert.Nil(t, verr)
}

func TestValidateNumericCity(t *testing.T) {
	in := validInput()
	in.City = "12345"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "city")
}

func TestValidateBareNumberAddress(t *testing.T) {
	in := validInput()
	in.Address = "123456"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "address")
}

func TestValidateShortAddress(t *testing.T) {
	in := validInput()
	in.Address = "a 1"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "address")
}

func TestValidatePhone(t *testing.T) {
	in := validInput()
	in.Phone = "not-a-phone"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "phone")
}

func TestValidateOrderDate(t *testing.T) {
	in := validInput()
	in.OrderDate = "yesterday"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "order_date")

	in.OrderDate = ""
	_, verr = in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "order_date")
}

func TestValidateAnonymousRequiresIdentityFields(t *testing.T) {
	in := validInput()
	in.FirstName = ""
	in.LastName = "X"
	in.Email = "nope"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Contains(t, verr.Fields, "first_name")
	assert.Contains(t, verr.Fields, "last_name")
	assert.Contains(t, verr.Fields, "email")

	// The same input passes for an authenticated shopper, whose identity
	// comes from the account.
	_, verr = in.Validate(false)
	assert.Nil(t, verr)
}

func TestValidationErrorEnumeratesFields(t *testing.T) {
	in := validInput()
	in.City = "99"
	in.Phone = "abc"

	_, verr := in.Validate(true)
	require.NotNil(t, verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Error(), "city")
	assert.Contains(t, verr.Error(), "phone")
}
