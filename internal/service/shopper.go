package service

// Shopper identifies who owns a cart: an authenticated account or an
// anonymous session token. Exactly one of the two carries identity.
type Shopper struct {
	UserID    int64  // 0 when anonymous
	FirstName string // account fields, empty when anonymous
	LastName  string
	Email     string
	Token     string // session token for anonymous carts
}

// Authenticated reports whether the shopper has an account
func (s Shopper) Authenticated() bool {
	return s.UserID != 0
}
