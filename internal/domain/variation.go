// File: shop-product-service/internal/domain/variation.go
package domain

import (
	"maps"

	"github.com/shopspring/decimal"
)

// Selection maps an attribute ID to the option ID chosen for it, as
// submitted by a storefront request.
type Selection map[int64]int64

// Variation is one concrete combination of options across a product's
// attributes, with its own stock ledger and price delta. A variation can be
// disabled independently of its stock.
type Variation struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Enabled    bool            `json:"enabled"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Stock      StockLevel      `json:"stock"`
	Options    []Option        `json:"options"` // at most one per attribute
}

// SelectionMap builds the attribute -> option map from the variation's
// chosen options.
func (v *Variation) SelectionMap() Selection {
	sel := make(Selection, len(v.Options))
	for _, o := range v.Options {
		sel[o.AttributeID] = o.ID
	}
	return sel
}

// OptionForAttribute returns the option this variation has chosen for the
// given attribute, if any.
func (v *Variation) OptionForAttribute(attributeID int64) (Option, bool) {
	for _, o := range v.Options {
		if o.AttributeID == attributeID {
			return o, true
		}
	}
	return Option{}, false
}

// InStock reports whether this variation's own ledger has stock.
func (v *Variation) InStock() bool {
	return v.Stock.InStock()
}

// Matches reports whether the variation's option set is exactly equal to the
// selection: same attributes, same options, no extras, no omissions. Exact
// equality (not subset) because a variation must carry a value for every one
// of the product's attributes to be orderable.
func (v *Variation) Matches(sel Selection) bool {
	return maps.Equal(v.SelectionMap(), sel)
}

// ValidFor reports whether the variation has exactly one chosen option for
// every attribute of its product.
func (v *Variation) ValidFor(attributes []Attribute) bool {
	if len(v.Options) != len(attributes) {
		return false
	}
	for _, a := range attributes {
		if _, ok := v.OptionForAttribute(a.ID); !ok {
			return false
		}
	}
	return true
}

// FindExactMatch returns the first enabled variation whose option set is
// exactly equal to the selection, or nil when none corresponds. A nil result
// is not an error: it means no variation exists for that combination.
func FindExactMatch(variations []Variation, sel Selection) *Variation {
	for i := range variations {
		v := &variations[i]
		if v.Enabled && v.Matches(sel) {
			return v
		}
	}
	return nil
}

// FilterBySelection retains the enabled variations compatible with a partial
// selection: for every pair in the partial selection the variation must have
// chosen that exact option. Attributes not yet constrained are ignored, so
// the result narrows progressively as the shopper picks options.
func FilterBySelection(variations []Variation, partial Selection) []Variation {
	filtered := make([]Variation, 0, len(variations))
	for _, v := range variations {
		if !v.Enabled {
			continue
		}
		vsel := v.SelectionMap()
		keep := true
		for attributeID, optionID := range partial {
			if vsel[attributeID] != optionID {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// OptionsForNextAttribute collects the distinct options chosen for the given
// attribute across the filtered variations, preserving first-seen order.
// An empty result means the current partial selection has no valid
// continuation.
func OptionsForNextAttribute(filtered []Variation, nextAttributeID int64) []Option {
	seen := make(map[int64]bool)
	options := make([]Option, 0, len(filtered))
	for _, v := range filtered {
		o, ok := v.OptionForAttribute(nextAttributeID)
		if !ok || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		options = append(options, o)
	}
	return options
}
