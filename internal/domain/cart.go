// File: shop-product-service/internal/domain/cart.go
package domain

import "github.com/google/uuid"

// LineItem is what the cart line builder emits to the order subsystem:
// the product, the resolved variation if one was required, the quantity and
// a snapshot of the resolved price at add time. Orders keep the snapshot so
// later product edits cannot change what the customer agreed to pay.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   int64  `json:"product_id"`
	VariationID *int64 `json:"variation_id,omitempty"`
	Quantity    int64  `json:"quantity"`
	Price       Price  `json:"price"`
}

// UnprocessedQuantity reports how much of a product sits in carts and in
// unprocessed orders (status Cart, Pending or Processing) of the order
// subsystem.
type UnprocessedQuantity struct {
	InCarts  int64 `json:"in_carts"`
	InOrders int64 `json:"in_orders"`
}

// BuildLine validates an add-to-cart request against the product and builds
// the resulting line item. Quantity 0 means unspecified and defaults to 1.
//
// For a product with attributes the selection must exactly match one enabled
// variation and that variation's own ledger must be in stock. For a plain
// product the own ledger must be in stock — checked before the selection, so
// an out-of-stock product reports ErrOutOfStock regardless of what was
// selected — and the selection must be empty.
//
// BuildLine is pure: the caller is responsible for persisting the line item
// and for putting the matching -quantity adjustment through the stock
// ledger. This is the only place stock may be consumed; the symmetric
// positive adjustment belongs to cart removal and abandoned-order reclaim.
func BuildLine(product *Product, quantity int64, sel Selection, symbol string) (*LineItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var variation *Variation
	if product.RequiresVariation() {
		if err := product.ValidateSelection(sel); err != nil {
			return nil, err
		}
		variation = FindExactMatch(product.Variations, sel)
		if variation == nil {
			return nil, ErrNoMatchingVariation
		}
		if !variation.InStock() {
			return nil, ErrOutOfStock
		}
	} else {
		if product.Stock == nil || !product.Stock.InStock() {
			return nil, ErrOutOfStock
		}
		if len(sel) > 0 {
			return nil, ErrInvalidSelection
		}
	}

	line := &LineItem{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     ResolvePrice(product, variation, symbol),
	}
	if variation != nil {
		line.VariationID = &variation.ID
	}
	return line, nil
}

// StockLevelForLine returns the ledger a successful line must be debited
// against: the variation's when one was resolved, otherwise the product's
// own.
func StockLevelForLine(product *Product, line *LineItem) *StockLevel {
	if line.VariationID != nil {
		for i := range product.Variations {
			if product.Variations[i].ID == *line.VariationID {
				return &product.Variations[i].Stock
			}
		}
		return nil
	}
	return product.Stock
}
