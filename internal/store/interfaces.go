// File: shop-product-service/internal/store/interfaces.go
package store

import (
	"context"

	"shop-product-service/internal/domain"
)

// ListProductsParams holds parameters for listing products (for pagination,
// filtering, sorting).
type ListProductsParams struct {
	Limit       int
	Offset      int
	SearchQuery *string // For searching by title
	CategoryID  *int64  // For filtering by category membership
	Published   *bool   // Filter by published status
	SortBy      string  // e.g. "title", "price", "created_at"
	SortOrder   string  // "asc" or "desc"
}

// ProductStorer defines the database operations for products. Fetches return
// the full aggregate: images, attributes, options, variations with their own
// stock ledgers, and category memberships.
type ProductStorer interface {
	// CreateProduct inserts a product together with its own stock ledger
	// initialised to stockLevel (the request-supplied value, or the
	// unlimited sentinel when stock is not tracked). When the product is
	// placed under a category page, membership in that category is added
	// automatically.
	CreateProduct(ctx context.Context, product *domain.Product, stockLevel int64) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetProductPublished(ctx context.Context, id int64, published bool) error
	// GetUnprocessedQuantity aggregates line-item quantity for the product
	// across orders in Cart, Pending or Processing status.
	GetUnprocessedQuantity(ctx context.Context, productID int64) (domain.UnprocessedQuantity, error)
}

// VariationStorer defines the database operations for product variations.
type VariationStorer interface {
	// CreateVariation inserts a variation with a fresh stock ledger at
	// stockLevel and links its chosen options.
	CreateVariation(ctx context.Context, variation *domain.Variation, stockLevel int64) (*domain.Variation, error)
	ListVariationsByProduct(ctx context.Context, productID int64) ([]domain.Variation, error)
}

// StockStorer is the persisted stock ledger. All stock mutations in the
// system, including the external abandoned-order reclaim, go through
// AdjustStockLevel so the floor-at-zero and unlimited-sentinel rules are
// applied uniformly.
type StockStorer interface {
	// AdjustStockLevel applies a delta atomically and returns the new level.
	// The unlimited sentinel is returned unchanged and a level never drops
	// below zero.
	AdjustStockLevel(ctx context.Context, stockLevelID int64, delta int64) (int64, error)
}

// OrderStorer records the line items the cart line builder emits to the
// order subsystem.
type OrderStorer interface {
	CreateLineItem(ctx context.Context, line *domain.LineItem) error
}
