// File: shop-product-service/internal/domain/stock.go
package domain

import "time"

// UnlimitedStock is the sentinel stock level meaning the quantity is never
// tracked: it is never incremented, decremented or floored.
const UnlimitedStock int64 = -1

// StockLevel tracks the available quantity for a product or for a single
// variation. Exactly one of the two owns a given ledger for availability
// purposes, never both.
type StockLevel struct {
	ID        int64     `json:"id"`
	Level     int64     `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Adjust applies a delta to the stock level and returns the new level.
// A negative delta represents stock consumed (item added to a cart), a
// positive delta stock restored (item removed or order abandoned).
// The unlimited sentinel is left untouched and a level can never drop
// below zero.
func (s *StockLevel) Adjust(delta int64) int64 {
	if s.Level == UnlimitedStock {
		return s.Level
	}
	s.Level += delta
	if s.Level < 0 {
		s.Level = 0
	}
	return s.Level
}

// InStock reports whether this ledger has stock available. The unlimited
// sentinel (-1) is nonzero and therefore always in stock.
func (s *StockLevel) InStock() bool {
	return s.Level != 0
}
