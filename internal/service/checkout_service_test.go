package service

import (
	"context"
	"testing"

	"shop-service/internal/util"

	"github.com/stretchr/testify/assert"
)

// Outside business hours checkout fails before touching any collaborator,
// so a service with nil store and sessions is enough to exercise the gate.
func closedCheckoutService() *CheckoutService {
	return &CheckoutService{
		hours:  hoursAt(4),
		logger: util.GetLogger(),
	}
}

func TestSubmitOutsideBusinessHours(t *testing.T) {
	cs := closedCheckoutService()

	result, err := cs.Submit(context.Background(), Shopper{UserID: 1}, ShippingInput{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrShopClosed)
}

func TestReviewOutsideBusinessHours(t *testing.T) {
	cs := closedCheckoutService()

	review, err := cs.ReviewOrder(context.Background(), Shopper{Token: "tok"})

	assert.Nil(t, review)
	assert.ErrorIs(t, err, ErrShopClosed)
}

func TestSubmitRejectsInvalidShippingBeforeAnyLookup(t *testing.T) {
	cs := &CheckoutService{
		hours:  hoursAt(12),
		logger: util.GetLogger(),
	}

	// Anonymous shopper with an empty form: every required field is reported
	// and no collaborator is touched.
	result, err := cs.Submit(context.Background(), Shopper{Token: "tok"}, ShippingInput{})

	assert.Nil(t, result)
	verr, ok := err.(*ValidationError)
	if assert.True(t, ok, "expected ValidationError, got %v", err) {
		assert.Contains(t, verr.Fields, "city")
		assert.Contains(t, verr.Fields, "address")
		assert.Contains(t, verr.Fields, "phone")
		assert.Contains(t, verr.Fields, "order_date")
		assert.Contains(t, verr.Fields, "first_name")
		assert.Contains(t, verr.Fields, "email")
	}
}
