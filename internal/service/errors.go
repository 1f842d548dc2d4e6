package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrProductNotFound signals an unknown or unavailable product id
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound signals an unknown order id
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoActiveOrder signals that the shopper has no in-progress cart
	ErrNoActiveOrder = errors.New("no active order")
	// ErrShopClosed signals a checkout attempt outside business hours
	ErrShopClosed = errors.New("shop is closed")
	// ErrOrderCompleted signals a mutation against an already completed order
	ErrOrderCompleted = errors.New("order already completed")
	// ErrCheckoutInProgress signals a concurrent submission of the same order
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// ValidationError reports bad user input with per-field messages. It never
// accompanies a state change.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotificationError wraps a confirmation delivery failure. The checkout it
// follows has already committed and is not rolled back.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("order confirmation not sent: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
