// File: shop-product-service/internal/domain/cart_test.go
package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// colorProduct is the worked example: base price 10.00 USD, attribute Color
// with options Red/Blue, and two enabled variations: Red (delta 0, stock 5)
// and Blue (delta 2.00, stock 0).
func colorProduct() *Product {
	return &Product{
		ID:       7,
		Title:    "T-Shirt",
		Price:    decimal.RequireFromString("10.00"),
		Currency: "USD",
		Attributes: []Attribute{
			{ID: 1, ProductID: 7, Title: "Color"},
		},
		Options: []Option{
			{ID: 200, AttributeID: 1, Title: "Red"},
			{ID: 201, AttributeID: 1, Title: "Blue"},
		},
		Variations: []Variation{
			{
				ID: 30, ProductID: 7, Enabled: true,
				PriceDelta: decimal.Zero,
				Stock:      StockLevel{ID: 91, Level: 5},
				Options:    []Option{{ID: 200, AttributeID: 1, Title: "Red"}},
			},
			{
				ID: 31, ProductID: 7, Enabled: true,
				PriceDelta: decimal.RequireFromString("2.00"),
				Stock:      StockLevel{ID: 92, Level: 0},
				Options:    []Option{{ID: 201, AttributeID: 1, Title: "Blue"}},
			},
		},
	}
}

func TestBuildLine_VariationInStock(t *testing.T) {
	product := colorProduct()

	line, err := BuildLine(product, 1, Selection{1: 200}, "$")
	require.NoError(t, err)
	require.NotNil(t, line)

	assert.NotEmpty(t, line.ID)
	assert.Equal(t, product.ID, line.ProductID)
	require.NotNil(t, line.VariationID)
	assert.Equal(t, int64(30), *line.VariationID)
	assert.Equal(t, int64(1), line.Quantity)
	assert.True(t, line.Price.Amount.Equal(decimal.RequireFromString("10.00")), "Red has no delta")
	assert.Equal(t, "USD", line.Price.Currency)
}

func TestBuildLine_VariationOutOfStock(t *testing.T) {
	product := colorProduct()

	line, err := BuildLine(product, 1, Selection{1: 201}, "$")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfStock))
	assert.Nil(t, line)
}

func TestBuildLine_PriceSnapshotIncludesDelta(t *testing.T) {
	product := colorProduct()
	product.Variations[1].Stock.Level = 3

	line, err := BuildLine(product, 2, Selection{1: 201}, "$")
	require.NoError(t, err)
	assert.True(t, line.Price.Amount.Equal(decimal.RequireFromString("12.00")), "Blue carries a 2.00 delta")
	assert.Equal(t, int64(2), line.Quantity)
}

func TestBuildLine_EmptySelectionRequiredVariation(t *testing.T) {
	product := colorProduct()

	_, err := BuildLine(product, 1, Selection{}, "$")
	assert.True(t, errors.Is(err, ErrNoMatchingVariation))

	_, err = BuildLine(product, 1, nil, "$")
	assert.True(t, errors.Is(err, ErrNoMatchingVariation))
}

func TestBuildLine_SelectionNotBelongingToProduct(t *testing.T) {
	product := colorProduct()

	_, err := BuildLine(product, 1, Selection{99: 200}, "$")
	assert.True(t, errors.Is(err, ErrInvalidSelection), "unknown attribute")

	_, err = BuildLine(product, 1, Selection{1: 999}, "$")
	assert.True(t, errors.Is(err, ErrInvalidSelection), "unknown option")
}

func TestBuildLine_NoMatchingCombination(t *testing.T) {
	product := colorProduct()
	product.Variations[0].Enabled = false

	_, err := BuildLine(product, 1, Selection{1: 200}, "$")
	assert.True(t, errors.Is(err, ErrNoMatchingVariation), "disabled variations never match")
}

func TestBuildLine_PlainProduct(t *testing.T) {
	product := &Product{
		ID:       8,
		Title:    "Mug",
		Price:    decimal.RequireFromString("4.50"),
		Currency: "USD",
		Stock:    &StockLevel{ID: 93, Level: 10},
	}

	line, err := BuildLine(product, 0, nil, "$")
	require.NoError(t, err)
	assert.Nil(t, line.VariationID)
	assert.Equal(t, int64(1), line.Quantity, "quantity defaults to 1 when unspecified")
}

func TestBuildLine_PlainProductOutOfStock(t *testing.T) {
	product := &Product{
		ID:       8,
		Price:    decimal.RequireFromString("4.50"),
		Currency: "USD",
		Stock:    &StockLevel{ID: 93, Level: 0},
	}

	_, err := BuildLine(product, 1, nil, "$")
	assert.True(t, errors.Is(err, ErrOutOfStock))

	// Out of stock wins even when the selection would also be rejected.
	_, err = BuildLine(product, 1, Selection{1: 200}, "$")
	assert.True(t, errors.Is(err, ErrOutOfStock))
}

func TestBuildLine_PlainProductRejectsSelection(t *testing.T) {
	product := &Product{
		ID:       8,
		Price:    decimal.RequireFromString("4.50"),
		Currency: "USD",
		Stock:    &StockLevel{ID: 93, Level: 10},
	}

	_, err := BuildLine(product, 1, Selection{1: 200}, "$")
	assert.True(t, errors.Is(err, ErrInvalidSelection))
}

func TestBuildLine_InvalidQuantity(t *testing.T) {
	product := colorProduct()

	_, err := BuildLine(product, -2, Selection{1: 200}, "$")
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestBuildLine_UnlimitedStock(t *testing.T) {
	product := &Product{
		ID:       9,
		Price:    decimal.RequireFromString("4.50"),
		Currency: "USD",
		Stock:    &StockLevel{ID: 94, Level: UnlimitedStock},
	}

	line, err := BuildLine(product, 3, nil, "$")
	require.NoError(t, err)
	assert.Equal(t, int64(3), line.Quantity)
}

func TestStockLevelForLine(t *testing.T) {
	product := colorProduct()

	line, err := BuildLine(product, 1, Selection{1: 200}, "$")
	require.NoError(t, err)

	ledger := StockLevelForLine(product, line)
	require.NotNil(t, ledger)
	assert.Equal(t, int64(91), ledger.ID, "the resolved variation's own ledger is debited")

	// Worked example continued: consuming the line leaves Red at 4.
	ledger.Adjust(-line.Quantity)
	assert.Equal(t, int64(4), ledger.Level)

	plain := &Product{ID: 8, Price: decimal.Zero, Stock: &StockLevel{ID: 93, Level: 10}}
	plainLine := &LineItem{ProductID: 8, Quantity: 1}
	assert.Equal(t, plain.Stock, StockLevelForLine(plain, plainLine))
}
