package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Product represents a product in the catalog. Price is a decimal currency
// value; stock is read-only input to cart validation.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Slug        string          `db:"slug" json:"slug"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Available   bool            `db:"available" json:"available"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Order is a shopper's order. While status is in_progress it acts as the
// cart; once completed it is immutable history. UserID is nil for anonymous
// shoppers, whose order id lives in the session store instead.
type Order struct {
	ID            int64               `db:"id" json:"id"`
	UserID        *int64              `db:"user_id" json:"user_id,omitempty"`
	Status        string              `db:"status" json:"status"`
	FirstName     string              `db:"first_name" json:"first_name,omitempty"`
	LastName      string              `db:"last_name" json:"last_name,omitempty"`
	Email         string              `db:"email" json:"email,omitempty"`
	Phone         string              `db:"phone" json:"phone,omitempty"`
	City          string              `db:"city" json:"city,omitempty"`
	Address       string              `db:"address" json:"address,omitempty"`
	Comment       string              `db:"comment" json:"comment,omitempty"`
	TotalPrice    decimal.NullDecimal `db:"total_price" json:"total_price,omitempty"`
	TotalQuantity *int                `db:"total_quantity" json:"total_quantity,omitempty"`
	OrderDate     *time.Time          `db:"order_date" json:"order_date,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// OrderLine is one product's quantity within an order. At most one line
// exists per (order, product) pair; quantity 0 means not yet set.
type OrderLine struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	InCart    bool  `db:"in_cart" json:"in_cart"`
}

// CartLine is a priced row joined from order_lines and products, consumed by
// the pricing aggregator.
type CartLine struct {
	ProductID   int64           `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

// Order statuses
const (
	OrderStatusNew        = "new"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
