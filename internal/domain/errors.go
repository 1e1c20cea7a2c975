// File: shop-product-service/internal/domain/errors.go
package domain

import "errors"

// Predefined errors for catalog business rules. All of these map to a 4xx
// response at the API layer; none are fatal to the process.
var (
	// ErrNoMatchingVariation means the submitted selection does not
	// correspond to any enabled variation of the product.
	ErrNoMatchingVariation = errors.New("domain: no enabled variation matches the selected options")

	// ErrOutOfStock means the stock predicate was false at add-to-cart time.
	ErrOutOfStock = errors.New("domain: product is out of stock")

	// ErrVariationsDisabled means a publish was attempted on a product that
	// requires variations while none of them are enabled.
	ErrVariationsDisabled = errors.New("domain: cannot publish product when no variations are enabled")

	// ErrInvalidSelection means the selection references an attribute or
	// option that does not belong to the product.
	ErrInvalidSelection = errors.New("domain: selection references an attribute or option not belonging to the product")

	// ErrInvalidQuantity means an add-to-cart quantity below 1 was supplied.
	ErrInvalidQuantity = errors.New("domain: quantity must be at least 1")
)
