// File: shop-product-service/internal/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Parent placement values for Product.ParentID. A product either lives at
// the site root, under a category page, or outside the page tree entirely
// (reachable only through the generic /product/ URLs).
const (
	ParentRoot   int64 = 0
	ParentExempt int64 = -1
)

// Category is a page-tree node products can belong to. Membership is
// many-to-many and is auto-populated from tree placement on create.
type Category struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attribute is a selectable dimension of product variation, e.g. "Color".
type Attribute struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
}

// Option is one concrete value of an Attribute, e.g. "Red".
type Option struct {
	ID          int64  `json:"id"`
	AttributeID int64  `json:"attribute_id"`
	Title       string `json:"title"`
}

// Image is a product photo reference. Ordering is significant for display;
// the first image by sort order is the summary image.
type Image struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	SortOrder int    `json:"sort_order"`
}

// Product is the catalog aggregate: pricing, placement, images, attributes
// with their options, variations and an optional own stock ledger. Prices
// are stored in the shop's base currency.
type Product struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	ParentID  int64           `json:"parent_id"`
	Published bool            `json:"published"`

	// Stock is nil when the product has variations; availability is then
	// derived from the variations' own ledgers.
	Stock *StockLevel `json:"stock,omitempty"`

	Images      []Image     `json:"images,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Variations  []Variation `json:"variations,omitempty"`
	CategoryIDs []int64     `json:"category_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequiresVariation reports whether the product must be added to a cart with
// a variation. Any product with attributes does.
func (p *Product) RequiresVariation() bool {
	return len(p.Attributes) > 0
}

// InStock reports whether the product can currently be sold. A product with
// variations is in stock when any single enabled variation is; a product
// with zero variations that requires them is never in stock. Otherwise the
// product's own ledger decides.
func (p *Product) InStock() bool {
	if p.RequiresVariation() {
		for i := range p.Variations {
			v := &p.Variations[i]
			if v.Enabled && v.InStock() {
				return true
			}
		}
		return false
	}
	return p.Stock != nil && p.Stock.InStock()
}

// ParentType classifies the product's placement in the page tree: "root",
// "exempt" (not part of the tree) or "subpage".
func (p *Product) ParentType() string {
	switch p.ParentID {
	case ParentRoot:
		return "root"
	case ParentExempt:
		return "exempt"
	default:
		return "subpage"
	}
}

// FirstImage returns the product's summary image, the first by sort order,
// or nil when the product has no images.
func (p *Product) FirstImage() *Image {
	if len(p.Images) == 0 {
		return nil
	}
	first := &p.Images[0]
	for i := 1; i < len(p.Images); i++ {
		if p.Images[i].SortOrder < first.SortOrder {
			first = &p.Images[i]
		}
	}
	return first
}

// OptionsForAttribute lists the options available for one attribute,
// restricted to enabled, in-stock variations so the storefront never offers
// a combination that cannot be bought.
func (p *Product) OptionsForAttribute(attributeID int64) []Option {
	seen := make(map[int64]bool)
	options := make([]Option, 0, len(p.Variations))
	for i := range p.Variations {
		v := &p.Variations[i]
		if !v.Enabled || !v.InStock() {
			continue
		}
		o, ok := v.OptionForAttribute(attributeID)
		if !ok || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		options = append(options, o)
	}
	return options
}

// HasAttribute reports whether the attribute belongs to this product.
func (p *Product) HasAttribute(attributeID int64) bool {
	for _, a := range p.Attributes {
		if a.ID == attributeID {
			return true
		}
	}
	return false
}

// HasOption reports whether the option belongs to the given attribute of
// this product.
func (p *Product) HasOption(attributeID, optionID int64) bool {
	for _, o := range p.Options {
		if o.ID == optionID && o.AttributeID == attributeID {
			return true
		}
	}
	return false
}

// ValidateSelection checks that every pair of a selection references an
// attribute and option belonging to this product. It does not check whether
// a variation exists for the combination.
func (p *Product) ValidateSelection(sel Selection) error {
	for attributeID, optionID := range sel {
		if !p.HasAttribute(attributeID) || !p.HasOption(attributeID, optionID) {
			return ErrInvalidSelection
		}
	}
	return nil
}

/// ValidatePublish guards the transition to the published state: a product
// that requires variations must have at least one enabled variation.
func (p *Product) ValidatePublish() error {
	if !p.RequiresVariation() {
		return nil
	}
	for i := range p.Variations {
		if p.Variations[i].Enabled {
			return nil
		}
	}
	return ErrVariationsDisabled
}
