package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/broker"
	"shop-service/internal/models"
	"shop-service/internal/session"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService owns the mapping from a shopper to their in-progress order and
// its lines. It is the sole writer of line quantities.
type CartService struct {
	store          *store.Store
	sessions       *session.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	store *store.Store,
	sessions *session.Store,
	eventPublisher *broker.EventPublisher,
) *CartService {
	return &CartService{
		store:          store,
		sessions:       sessions,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ResolveCurrentOrder finds the shopper's in-progress order without creating
// anything. Returns nil when there is none. A session binding that points at
// an order no longer in progress counts as no active cart; sessions are only
// cleared after a successful checkout, so stale bindings can happen.
func (cs *CartService) ResolveCurrentOrder(ctx context.Context, shopper Shopper) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ResolveCurrentOrder")
	defer span.End()

	if shopper.Authenticated() {
		return cs.store.GetInProgressOrderByUserID(ctx, shopper.UserID)
	}

	orderID, ok, err := cs.sessions.OrderID(ctx, shopper.Token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	order, err := cs.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusInProgress {
		return nil, nil
	}
	return order, nil
}

// currentOrderOrCreate finds or creates the shopper's in-progress order. For
// anonymous shoppers a fresh order is bound into the session store.
func (cs *CartService) currentOrderOrCreate(ctx context.Context, shopper Shopper) (*models.Order, error) {
	if shopper.Authenticated() {
		return cs.store.GetOrCreateInProgressOrder(ctx, shopper.UserID)
	}

	order, err := cs.ResolveCurrentOrder(ctx, shopper)
	if err != nil {
		return nil, err
	}
	if order != nil {
		return order, nil
	}

	order, err = cs.store.CreateAnonymousOrder(ctx)
	if err != nil {
		return nil, err
	}
	if err := cs.sessions.Bind(ctx, shopper.Token, order.ID); err != nil {
		return nil, fmt.Errorf("failed to bind session to order %d: %w", order.ID, err)
	}

	cs.logger.Info("Anonymous cart created",
		zap.Int64("order_id", order.ID),
		zap.String("session", shopper.Token))
	return order, nil
}

// AddItem puts one unit of a product into the shopper's cart, creating the
// order and the line as needed. Each call adds exactly one unit.
func (cs *CartService) AddItem(ctx context.Context, shopper Shopper, productID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	product, err := cs.store.GetAvailableProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return err
	}

	order, err := cs.currentOrderOrCreate(ctx, shopper)
	if err != nil {
		return err
	}

	quantity, err := cs.store.AddCartLine(ctx, order.ID, product.ID)
	if err != nil {
		return err
	}

	util.CartItemsAddedTotal.Inc()
	cs.logger.Info("Product added to cart",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity))

	if cs.eventPublisher == nil {
		return nil
	}

	event := &models.CartItemAddedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCartItemAdded,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  quantity,
	}
	if err := cs.eventPublisher.PublishCartItemAdded(ctx, event); err != nil {
		cs.logger.Error("Failed to publish CartItemAdded event", zap.Error(err))
	}

	return nil
}

// SetItemQuantity overwrites the quantity of a cart line. The requested
// quantity must be positive and must not exceed the product's stock; on any
// violation the cart is left unchanged.
func (cs *CartService) SetItemQuantity(ctx context.Context, shopper Shopper, productID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CartService.SetItemQuantity")
	defer span.End()

	product, err := cs.store.GetProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return err
	}

	if verr := validateQuantity(quantity, product.Stock); verr != nil {
		util.CartValidationFailuresTotal.Inc()
		return verr
	}

	order, err := cs.ResolveCurrentOrder(ctx, shopper)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrNoActiveOrder
	}

	updated, err := cs.store.SetCartLineQuantity(ctx, order.ID, product.ID, quantity)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: %d not in cart", ErrProductNotFound, productID)
	}

	cs.logger.Info("Cart quantity updated",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity))
	return nil
}

// RemoveItem deletes a product's line from the cart. Removing an absent line
// is a no-op, not an error.
func (cs *CartService) RemoveItem(ctx context.Context, shopper Shopper, productID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	order, err := cs.ResolveCurrentOrder(ctx, shopper)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	return cs.store.DeleteCartLine(ctx, order.ID, productID)
}

// ClearCart deletes every line of the shopper's cart; without a current
// order it is a no-op.
func (cs *CartService) ClearCart(ctx context.Context, shopper Shopper) error {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	order, err := cs.ResolveCurrentOrder(ctx, shopper)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	return cs.store.ClearCartLines(ctx, order.ID)
}

// ItemCount returns how many distinct products are in the shopper's cart
func (cs *CartService) ItemCount(ctx context.Context, shopper Shopper) (int, error) {
	order, err := cs.ResolveCurrentOrder(ctx, shopper)
	if err != nil {
		return 0, err
	}
	if order == nil {
		return 0, nil
	}
	return cs.store.CountCartProducts(ctx, order.ID)
}
