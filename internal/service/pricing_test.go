package service

import (
	"math/rand"
	"testing"

	"shop-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSelectionEmptyCart(t *testing.T) {
	selection := aggregateSelection(nil)

	assert.True(t, selection.TotalPrice.IsZero())
	assert.Zero(t, selection.TotalQuantity)
	assert.Empty(t, selection.Lines)
}

func TestAggregateSelectionTotals(t *testing.T) {
	rows := []models.CartLine{
		{ProductID: 1, ProductName: "A", UnitPrice: decimal.NewFromInt(3), Quantity: 1},
		{ProductID: 2, ProductName: "B", UnitPrice: decimal.RequireFromString("4.85"), Quantity: 5},
	}

	selection := aggregateSelection(rows)

	require.Len(t, selection.Lines, 2)
	assert.True(t, selection.Lines[0].LineTotal.Equal(decimal.NewFromInt(3)),
		"line total was %s", selection.Lines[0].LineTotal)
	assert.True(t, selection.Lines[1].LineTotal.Equal(decimal.RequireFromString("24.25")),
		"line total was %s", selection.Lines[1].LineTotal)
	assert.True(t, selection.TotalPrice.Equal(decimal.RequireFromString("27.25")),
		"total was %s", selection.TotalPrice)
	assert.Equal(t, 6, selection.TotalQuantity)
}

func TestAggregateSelectionConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := rng.Intn(10) + 1
		rows := make([]models.CartLine, n)
		for i := range rows {
			// price in cents keeps the expected sum exact
			cents := int64(rng.Intn(100000))
			rows[i] = models.CartLine{
				ProductID: int64(i + 1),
				UnitPrice: decimal.New(cents, -2),
				Quantity:  rng.Intn(20) + 1,
			}
		}

		selection := aggregateSelection(rows)

		expectedPrice := decimal.Zero
		expectedQty := 0
		for _, row := range rows {
			expectedPrice = expectedPrice.Add(row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity))))
			expectedQty += row.Quantity
		}

		require.True(t, selection.TotalPrice.Equal(expectedPrice),
			"run %d: got %s, want %s", run, selection.TotalPrice, expectedPrice)
		require.Equal(t, expectedQty, selection.TotalQuantity, "run %d", run)
	}
}
