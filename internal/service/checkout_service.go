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

// Notifier sends the order confirmation after checkout. Failures surface to
// the caller; there is no internal retry.
type Notifier interface {
	Send(ctx context.Context, order *models.Order, selection *Selection) error
}

// CheckoutService finalizes orders: it validates shipping data, flips the
// order to completed exactly once, triggers the confirmation and clears the
// anonymous session binding. It is the sole writer of order status and
// shipping fields.
type CheckoutService struct {
	store          *store.Store
	sessions       *session.Store
	pricing        *PricingService
	notifier       Notifier
	eventPublisher *broker.EventPublisher
	hours          *Hours
	lockTTL        time.Duration
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store *store.Store,
	sessions *session.Store,
	pricing *PricingService,
	notifier Notifier,
	eventPublisher *broker.EventPublisher,
	hours *Hours,
	lockTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		sessions:       sessions,
		pricing:        pricing,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		hours:          hours,
		lockTTL:        lockTTL,
		logger:         util.GetLogger(),
	}
}

// Review is the priced cart plus the form fields the shopper must fill in
type Review struct {
	Selection      *Selection `json:"selection"`
	RequiredFields []string   `json:"required_fields"`
}

var (
	shippingFields  = []string{"city", "address", "phone", "order_date"}
	anonymousFields = []string{"first_name", "last_name", "email"}
)

// ReviewOrder returns the order review for checkout. Outside business hours
// it returns ErrShopClosed and no data; the shopper must not proceed to
// submission.
func (cs *CheckoutService) ReviewOrder(ctx context.Context, shopper Shopper) (*Review, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ReviewOrder")
	defer span.End()

	if !cs.hours.IsOpenNow() {
		return nil, ErrShopClosed
	}

	order, err := cs.resolveInProgress(ctx, shopper)
	if err != nil {
		return nil, err
	}

	selection, err := cs.pricing.PriceSelection(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	fields := shippingFields
	if !shopper.Authenticated() {
		fields = append(anonymousFields, shippingFields...)
	}

	return &Review{Selection: selection, RequiredFields: fields}, nil
}

// SubmitResult reports a finalized checkout
type SubmitResult struct {
	OrderID          int64  `json:"order_id"`
	Status           string `json:"status"`
	NotificationSent bool   `json:"notification_sent"`
}

// Submit validates the shipping input and completes the shopper's order.
// Outside business hours nothing is written. The completed transition is
// terminal: a second submission of the same order fails with
// ErrOrderCompleted. A notification failure is returned alongside the
// result; the completion is already committed and stays committed.
func (cs *CheckoutService) Submit(ctx context.Context, shopper Shopper, input ShippingInput) (*SubmitResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Submit")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if !cs.hours.IsOpenNow() {
		util.CheckoutsFailedTotal.WithLabelValues("shop_closed").Inc()
		return nil, ErrShopClosed
	}

	orderDate, verr := input.Validate(!shopper.Authenticated())
	if verr != nil {
		util.CheckoutsFailedTotal.WithLabelValues("invalid_input").Inc()
		return nil, verr
	}

	if shopper.Authenticated() {
		input.FirstName = shopper.FirstName
		input.LastName = shopper.LastName
		input.Email = shopper.Email
	}

	order, err := cs.resolveInProgress(ctx, shopper)
	if err != nil {
		return nil, err
	}

	locked, err := cs.sessions.AcquireLock(ctx, fmt.Sprintf("checkout:%d", order.ID), cs.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !locked {
		util.CheckoutsFailedTotal.WithLabelValues("concurrent_submit").Inc()
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := cs.sessions.ReleaseLock(ctx, fmt.Sprintf("checkout:%d", order.ID)); err != nil {
			cs.logger.Warn("Failed to release checkout lock", zap.Error(err))
		}
	}()

	selection, err := cs.pricing.PriceSelection(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if selection.TotalQuantity == 0 {
		util.CheckoutsFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, &ValidationError{Fields: map[string]string{"cart": "cart is empty"}}
	}

	params := store.CompleteOrderParams{
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		Phone:         input.Phone,
		City:          input.City,
		Address:       input.Address,
		Comment:       input.Comment,
		OrderDate:     orderDate,
		TotalPrice:    selection.TotalPrice,
		TotalQuantity: selection.TotalQuantity,
	}

	if err := cs.store.CompleteOrderTx(ctx, order.ID, params); err != nil {
		if errors.Is(err, store.ErrOrderNotInProgress) {
			util.CheckoutsFailedTotal.WithLabelValues("already_completed").Inc()
			return nil, fmt.Errorf("%w: %d", ErrOrderCompleted, order.ID)
		}
		util.CheckoutsFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	util.CheckoutsCompletedTotal.Inc()
	cs.logger.Info("Order completed",
		zap.Int64("order_id", order.ID),
		zap.String("total_price", selection.TotalPrice.String()))

	completed, err := cs.store.GetOrderByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	cs.publishOrderCompleted(ctx, completed, selection)

	if !shopper.Authenticated() {
		if err := cs.sessions.Clear(ctx, shopper.Token); err != nil {
			cs.logger.Warn("Failed to clear session binding",
				zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	result := &SubmitResult{
		OrderID:          order.ID,
		Status:           completed.Status,
		NotificationSent: true,
	}

	if err := cs.notifier.Send(ctx, completed, selection); err != nil {
		util.NotificationsFailedTotal.Inc()
		cs.logger.Error("Failed to send order confirmation",
			zap.Int64("order_id", order.ID), zap.Error(err))
		result.NotificationSent = false
		return result, &NotificationError{Err: err}
	}

	util.NotificationsSentTotal.Inc()
	return result, nil
}

// resolveInProgress finds the shopper's current order or fails with
// ErrNoActiveOrder
func (cs *CheckoutService) resolveInProgress(ctx context.Context, shopper Shopper) (*models.Order, error) {
	if shopper.Authenticated() {
		order, err := cs.store.GetInProgressOrderByUserID(ctx, shopper.UserID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, ErrNoActiveOrder
		}
		return order, nil
	}

	orderID, ok, err := cs.sessions.OrderID(ctx, shopper.Token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoActiveOrder
	}

	order, err := cs.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveOrder
	}
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusInProgress {
		return nil, ErrNoActiveOrder
	}
	return order, nil
}

func (cs *CheckoutService) publishOrderCompleted(ctx context.Context, order *models.Order, selection *Selection) {
	if cs.eventPublisher == nil {
		return
	}

	lines := make([]models.OrderLineData, 0, len(selection.Lines))
	for _, line := range selection.Lines {
		lines = append(lines, models.OrderLineData{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		Email:         order.Email,
		TotalPrice:    selection.TotalPrice,
		TotalQuantity: selection.TotalQuantity,
		Lines:         lines,
	}

	if err := cs.eventPublisher.PublishOrderCompleted(ctx, event); err != nil {
		cs.logger.Error("Failed to publish OrderCompleted event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}
