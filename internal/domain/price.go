// File: shop-product-service/internal/domain/price.go
package domain

import "github.com/shopspring/decimal"

// Price is an amount in the shop's base currency together with the display
// symbol sourced from shop configuration.
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Symbol   string          `json:"symbol"`
}

// Nice formats the price for display, e.g. "$10.00 USD".
func (p Price) Nice() string {
	return p.Symbol + p.Amount.StringFixed(2) + " " + p.Currency
}

// ResolvePrice computes the total price for a product with an optional
// variation. The variation's delta is added only when it is positive: a zero
// delta leaves the base price unchanged, and a negative delta is treated as
// no delta rather than an error (the admin surface only ever records
// non-negative deltas).
func ResolvePrice(product *Product, variation *Variation, symbol string) Price {
	amount := product.Price
	if variation != nil && variation.PriceDelta.IsPositive() {
		amount = amount.Add(variation.PriceDelta)
	}
	return Price{
		Amount:   amount,
		Currency: product.Currency,
		Symbol:   symbol,
	}
}

// PriceDifference formats a positive variation delta for display next to an
// option, e.g. "(+$2.00 USD)". It returns "" when the variation is nil or
// its delta is not positive, in which case no difference should be shown.
func PriceDifference(product *Product, variation *Variation, symbol string) string {
	if variation == nil || !variation.PriceDelta.IsPositive() {
		return ""
	}
	delta := Price{Amount: variation.PriceDelta, Currency: product.Currency, Symbol: symbol}
	return "(+" + delta.Nice() + ")"
}
