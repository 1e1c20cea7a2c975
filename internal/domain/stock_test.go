// File: shop-product-service/internal/domain/stock_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStockLevel_Adjust(t *testing.T) {
	tests := []struct {
		name  string
		level int64
		delta int64
		want  int64
	}{
		{"consume", 5, -1, 4},
		{"consume several", 5, -3, 2},
		{"restore", 2, 4, 6},
		{"clamped at zero", 2, -5, 0},
		{"zero stays zero on consume", 0, -1, 0},
		{"restore from zero", 0, 3, 3},
		{"unlimited ignores consume", UnlimitedStock, -10, UnlimitedStock},
		{"unlimited ignores restore", UnlimitedStock, 10, UnlimitedStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &StockLevel{Level: tt.level}
			got := s.Adjust(tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Level, "returned level should be persisted on the ledger")
			assert.GreaterOrEqual(t, got, UnlimitedStock, "level can never drop below the sentinel")
		})
	}
}

func TestStockLevel_InStock(t *testing.T) {
	assert.True(t, (&StockLevel{Level: 5}).InStock())
	assert.True(t, (&StockLevel{Level: UnlimitedStock}).InStock(), "unlimited is always in stock")
	assert.False(t, (&StockLevel{Level: 0}).InStock())
}

func TestProduct_InStock_OwnLedger(t *testing.T) {
	product := &Product{Price: decimal.NewFromInt(10), Stock: &StockLevel{Level: 3}}
	assert.True(t, product.InStock())

	product.Stock.Level = 0
	assert.False(t, product.InStock())

	product.Stock = nil
	assert.False(t, product.InStock(), "a product without a ledger cannot be sold")
}

func TestProduct_InStock_VariationRequired(t *testing.T) {
	product := &Product{
		Attributes: []Attribute{{ID: 1, Title: "Size"}},
		Variations: []Variation{
			{ID: 10, Enabled: true, Stock: StockLevel{Level: 0}},
			{ID: 11, Enabled: true, Stock: StockLevel{Level: 2}},
		},
	}
	assert.True(t, product.InStock(), "a single variation in stock is enough")

	product.Variations[1].Stock.Level = 0
	assert.False(t, product.InStock())

	product.Variations[1].Stock.Level = 2
	product.Variations[1].Enabled = false
	assert.False(t, product.InStock(), "disabled variations do not count towards availability")
}

func TestProduct_InStock_VariationRequiredIgnoresOwnLedger(t *testing.T) {
	// The product's own ledger is not consulted once attributes exist.
	product := &Product{
		Attributes: []Attribute{{ID: 1, Title: "Size"}},
		Stock:      &StockLevel{Level: 99},
	}
	assert.False(t, product.InStock(), "zero variations means out of stock, whatever the own ledger says")
}
