package service

import (
	"context"

	"shop-service/internal/models"
	"shop-service/internal/store"
	"shop-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SelectionLine is one priced cart row
type SelectionLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Selection is the priced view of a cart: its lines plus order totals
type Selection struct {
	Lines         []SelectionLine `json:"lines"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
}

// PricingService computes line totals and order totals from the current
// cart state
type PricingService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPricingService creates a new pricing service
func NewPricingService(store *store.Store) *PricingService {
	return &PricingService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// PriceSelection prices the cart of an in-progress order. Lines belonging to
// an order in any other status are excluded by the store query, so a
// completed order prices as empty. An empty cart yields zero totals.
func (ps *PricingService) PriceSelection(ctx context.Context, orderID int64) (*Selection, error) {
	ctx, span := util.StartSpan(ctx, "PricingService.PriceSelection")
	defer span.End()

	rows, err := ps.store.GetCartLines(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return aggregateSelection(rows), nil
}

// aggregateSelection computes decimal line totals and sums. Decimal
// arithmetic keeps sub-cent precision through the aggregation.
func aggregateSelection(rows []models.CartLine) *Selection {
	selection := &Selection{
		Lines:      make([]SelectionLine, 0, len(rows)),
		TotalPrice: decimal.Zero,
	}

	for _, row := range rows {
		lineTotal := row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		selection.Lines = append(selection.Lines, SelectionLine{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			UnitPrice:   row.UnitPrice,
			Quantity:    row.Quantity,
			LineTotal:   lineTotal,
		})
		selection.TotalPrice = selection.TotalPrice.Add(lineTotal)
		selection.TotalQuantity += row.Quantity
	}

	return selection
}
