// Package pricing implements progressive per-position photo pricing.
//
// The n-th photo in a cart costs BasePrice × 0.8^(n-1) for the first five
// positions and a flat BulkPrice from the sixth on. Prices are exact decimals;
// rounding to cents happens once, on the running total, so the sum of the
// charged line amounts always equals the displayed total.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// BasePrice is the price of the first photo in a cart.
	BasePrice = decimal.RequireFromString("6.90")
	// DecayFactor is applied once per position after the first.
	DecayFactor = decimal.RequireFromString("0.8")
	// BulkPrice is the flat price from BulkFromPosition onward.
	BulkPrice = decimal.RequireFromString("1.99")

	hundred = decimal.NewFromInt(100)
)

// BulkFromPosition is the first 1-indexed cart position charged BulkPrice.
const BulkFromPosition = 6

// Line is the priced item at one cart position.
type Line struct {
	Position int             `json:"position"`
	Price    decimal.Decimal `json:"price"`
	// AmountCents is what the processor is charged for this line.
	AmountCents int64 `json:"amount_cents"`
}

// Quote is the full pricing of a cart.
type Quote struct {
	Lines      []Line          `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	TotalCents int64           `json:"total_cents"`
}

// PriceAt returns the unrounded price of the item at 1-indexed position.
// Positions below 1 are priced at zero.
func PriceAt(position int) decimal.Decimal {
	if position < 1 {
		return decimal.Zero
	}
	if position >= BulkFromPosition {
		return BulkPrice
	}

	price := BasePrice
	for i := 1; i < position; i++ {
		price = price.Mul(DecayFactor)
	}
	return price
}

// Total returns the exact, unrounded sum for a cart of n items.
func Total(n int) decimal.Decimal {
	total := decimal.Zero
	for p := 1; p <= n; p++ {
		total = total.Add(PriceAt(p))
	}
	return total
}

// QuoteFor prices a cart of n items.
//
// Each line's cents are the difference between the rounded running totals
// before and after it, which makes Σ AmountCents == round(Total × 100).
func QuoteFor(n int) Quote {
	q := Quote{
		Lines: make([]Line, 0, n),
		Total: decimal.Zero,
	}

	var prevCents int64
	for p := 1; p <= n; p++ {
		price := PriceAt(p)
		q.Total = q.Total.Add(price)

		cents := toCents(q.Total)
		q.Lines = append(q.Lines, Line{
			Position:    p,
			Price:       price,
			AmountCents: cents - prevCents,
		})
		prevCents = cents
	}
	q.TotalCents = prevCents

	return q
}

// Display formats an amount for the storefront, rounded to two places.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FromCents converts minor units back into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func toCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
