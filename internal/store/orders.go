package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shop-service/internal/models"

	"github.com/shopspring/decimal"
)

// ErrOrderNotInProgress is returned when a mutation targets an order whose
// status is no longer in_progress.
var ErrOrderNotInProgress = fmt.Errorf("order is not in progress")

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetInProgressOrderByUserID retrieves the most recent in_progress order for
// a user. Returns nil without error when the user has no open cart.
func (s *Store) GetInProgressOrderByUserID(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1",
		userID, models.OrderStatusInProgress)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrCreateInProgressOrder finds or creates the in_progress order for a
// user. The partial unique index on (user_id) WHERE status = 'in_progress'
// makes the find-or-create race safe: a concurrent insert degrades to a
// fetch of the existing row.
func (s *Store) GetOrCreateInProgressOrder(ctx context.Context, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		INSERT INTO orders (user_id, status)
		VALUES ($1, $2)
		ON CONFLICT (user_id) WHERE status = 'in_progress' DO NOTHING
		RETURNING *`,
		userID, models.OrderStatusInProgress)
	if err == nil {
		return &order, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	existing, err := s.GetInProgressOrderByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("order upsert for user %d returned no row", userID)
	}
	return existing, nil
}

// CreateAnonymousOrder creates a fresh in_progress order with no owner.
// Anonymous carts are identified through the session store, not through a
// uniqueness constraint.
func (s *Store) CreateAnonymousOrder(ctx context.Context) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"INSERT INTO orders (user_id, status) VALUES (NULL, $1) RETURNING *",
		models.OrderStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymous order: %w", err)
	}
	return &order, nil
}

// AddCartLine upserts the line for (order, product) and increments its
// quantity by one, atomically. Returns the resulting quantity.
func (s *Store) AddCartLine(ctx context.Context, orderID, productID int64) (int, error) {
	var quantity int
	err := s.db.GetContext(ctx, &quantity, `
		INSERT INTO order_lines (order_id, product_id, quantity, in_cart)
		VALUES ($1, $2, 1, TRUE)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET quantity = order_lines.quantity + 1, in_cart = TRUE
		RETURNING quantity`,
		orderID, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to add cart line: %w", err)
	}
	return quantity, nil
}

// SetCartLineQuantity overwrites the quantity of an existing line. Returns
// false when no line exists for (order, product).
func (s *Store) SetCartLineQuantity(ctx context.Context, orderID, productID int64, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE order_lines SET quantity = $1 WHERE order_id = $2 AND product_id = $3",
		quantity, orderID, productID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteCartLine deletes the line for (order, product); deleting an absent
// line is not an error.
func (s *Store) DeleteCartLine(ctx context.Context, orderID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM order_lines WHERE order_id = $1 AND product_id = $2",
		orderID, productID)
	return err
}

// ClearCartLines deletes all lines of an order
func (s *Store) ClearCartLines(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM order_lines WHERE order_id = $1", orderID)
	return err
}

// CountCartProducts counts distinct products in an order
func (s *Store) CountCartProducts(ctx context.Context, orderID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM order_lines WHERE order_id = $1", orderID)
	return count, err
}

// GetCartLines retrieves priced cart rows for an order. Only lines of an
// in_progress order are returned; completed orders keep their persisted
// totals instead.
func (s *Store) GetCartLines(ctx context.Context, orderID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines, `
		SELECT l.product_id, p.name AS product_name, p.price AS unit_price, l.quantity
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		JOIN orders o ON o.id = l.order_id
		WHERE l.order_id = $1 AND o.status = $2
		ORDER BY l.id`,
		orderID, models.OrderStatusInProgress)
	return lines, err
}

// GetOrderLinesByOrderID retrieves raw lines for an order
func (s *Store) GetOrderLinesByOrderID(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE order_id = $1", orderID)
	return lines, err
}

// CompleteOrderParams carries the shipping fields and totals written onto an
// order at checkout.
type CompleteOrderParams struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	City          string
	Address       string
	Comment       string
	OrderDate     time.Time
	TotalPrice    decimal.Decimal
	TotalQuantity int
}

// CompleteOrderTx transitions an order to completed inside a single
// transaction. The row is locked and its status re-checked so that the
// transition happens exactly once; a second submission sees
// ErrOrderNotInProgress and nothing changes.
func (s *Store) CompleteOrderTx(ctx context.Context, orderID int64, params CompleteOrderParams) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.GetContext(ctx, &status,
		"SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if status != models.OrderStatusInProgress {
		return fmt.Errorf("order %d: %w", orderID, ErrOrderNotInProgress)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET first_name = $1, last_name = $2, email = $3, phone = $4,
		    city = $5, address = $6, comment = $7, order_date = $8,
		    total_price = $9, total_quantity = $10,
		    status = $11, updated_at = NOW()
		WHERE id = $12`,
		params.FirstName, params.LastName, params.Email, params.Phone,
		params.City, params.Address, params.Comment, params.OrderDate,
		params.TotalPrice, params.TotalQuantity,
		models.OrderStatusCompleted, orderID)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}

	return tx.Commit()
}
