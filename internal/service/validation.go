package service

import (
	"regexp"
	"time"
	"unicode"
)

// ShippingInput is the checkout form. Authenticated shoppers leave the name
// and email fields empty; those come from the account.
type ShippingInput struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Address   string `json:"address"`
	OrderDate string `json:"order_date"`
	Comment   string `json:"comment,omitempty"`
}

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Accepted order date layouts: RFC 3339 or the HTML datetime-local format
var orderDateLayouts = []string{time.RFC3339, "2006-01-02T15:04"}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validateAddressFields checks city and address, shared by the authenticated
// and anonymous validators. A city name cannot be numeric; an address must
// be more than a bare house number.
func validateAddressFields(city, address string, fields map[string]string) {
	if len(city) < 2 || len(city) > 20 {
		fields["city"] = "city must be between 2 and 20 characters"
	} else if isDigits(city) {
		fields["city"] = "city name cannot be numeric"
	}

	if len(address) < 5 || len(address) > 50 {
		fields["address"] = "address must be between 5 and 50 characters"
	} else if isDigits(address) {
		fields["address"] = "address must have a street name and house number"
	}
}

func validateName(field, value string, fields map[string]string) {
	if len(value) < 2 || len(value) > 20 {
		fields[field] = field + " must be between 2 and 20 characters"
	}
}

// Validate checks the shipping input and parses the order date. Anonymous
// shoppers must additionally supply first name, last name and email. On
// failure the returned ValidationError enumerates every bad field.
func (in ShippingInput) Validate(anonymous bool) (time.Time, *ValidationError) {
	fields := make(map[string]string)

	validateAddressFields(in.City, in.Address, fields)

	if !phonePattern.MatchString(in.Phone) {
		fields["phone"] = "invalid phone number"
	}

	var orderDate time.Time
	if in.OrderDate == "" {
		fields["order_date"] = "order date is required"
	} else {
		parsed := false
		for _, layout := range orderDateLayouts {
			if t, err := time.Parse(layout, in.OrderDate); err == nil {
				orderDate = t
				parsed = true
				break
			}
		}
		if !parsed {
			fields["order_date"] = "invalid order date"
		}
	}

	if anonymous {
		validateName("first_name", in.FirstName, fields)
		validateName("last_name", in.LastName, fields)
		if !emailPattern.MatchString(in.Email) {
			fields["email"] = "invalid email address"
		}
	}

	if len(fields) > 0 {
		return time.Time{}, &ValidationError{Fields: fields}
	}
	return orderDate, nil
}

// validateQuantity checks a requested cart quantity against product stock
func validateQuantity(requested, stock int) *ValidationError {
	if requested < 1 {
		return &ValidationError{Fields: map[string]string{
			"quantity": "quantity must be a positive integer",
		}}
	}
	if requested > stock {
		return &ValidationError{Fields: map[string]string{
			"quantity": "this number of products is not in stock",
		}}
	}
	return nil
}
