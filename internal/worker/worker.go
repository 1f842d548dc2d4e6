package worker

import (
	"context"
	"fmt"

	"shop-service/internal/broker"
	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// StockWorker deducts sold stock after checkout. It consumes OrderCompleted
// events so the checkout request path never waits on inventory writes.
type StockWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewStockWorker creates a new stock worker
func NewStockWorker(consumer *broker.Consumer, store *store.Store) *StockWorker {
	w := &StockWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(w.handleOrderCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	w.logger.Info("Stopping stock worker")
	return w.consumer.Close()
}

// handleOrderCompleted applies the stock deduction for each sold line.
// Redelivered events are skipped via the processed_events table.
func (w *StockWorker) handleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	for _, line := range event.Lines {
		if err := w.store.DeductStockTx(ctx, line.ProductID, line.Quantity); err != nil {
			util.StockDeductionsFailed.WithLabelValues("db_error").Inc()
			return fmt.Errorf("failed to deduct stock for product %d: %w", line.ProductID, err)
		}
		util.StockDeductionsTotal.Inc()
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	w.logger.Info("Stock deducted for completed order", zap.Int64("order_id", event.OrderID))
	return nil
}
