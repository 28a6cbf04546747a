package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceAt_GeometricThenFlat(t *testing.T) {
	tests := []struct {
		position int
		want     string
	}{
		{1, "6.90"},
		{2, "5.52"},
		{3, "4.416"},
		{4, "3.5328"},
		{5, "2.82624"},
		{6, "1.99"},
		{7, "1.99"},
		{50, "1.99"},
	}

	for _, tt := range tests {
		got := PriceAt(tt.position)
		assert.True(t, got.Equal(dec(tt.want)), "position %d: got %s, want %s", tt.position, got, tt.want)
	}
}

func TestPriceAt_InvalidPosition(t *testing.T) {
	assert.True(t, PriceAt(0).IsZero())
	assert.True(t, PriceAt(-3).IsZero())
}

func TestTotal_IsSumOfPositions(t *testing.T) {
	for n := 0; n <= 12; n++ {
		want := decimal.Zero
		for p := 1; p <= n; p++ {
			want = want.Add(PriceAt(p))
		}
		assert.True(t, Total(n).Equal(want), "n=%d", n)
	}
}

func TestTotal_ThreeItems(t *testing.T) {
	total := Total(3)

	assert.True(t, total.Equal(dec("16.836")), "got %s", total)
	assert.Equal(t, "16.84", Display(total))
}

func TestQuoteFor_SevenItems(t *testing.T) {
	q := QuoteFor(7)

	assert.Len(t, q.Lines, 7)
	assert.True(t, q.Lines[5].Price.Equal(BulkPrice))
	assert.True(t, q.Lines[6].Price.Equal(BulkPrice))
	assert.Equal(t, int64(199), q.Lines[5].AmountCents)
	assert.Equal(t, int64(199), q.Lines[6].AmountCents)
	assert.True(t, q.Total.Equal(dec("27.17504")))
}

func TestQuoteFor_ChargedEqualsDisplayed(t *testing.T) {
	for n := 0; n <= 60; n++ {
		q := QuoteFor(n)

		var sum int64
		for _, line := range q.Lines {
			sum += line.AmountCents
		}

		assert.Equal(t, q.TotalCents, sum, "n=%d", n)
		assert.Equal(t, Display(q.Total), Display(FromCents(sum)), "n=%d", n)
	}
}

func TestQuoteFor_CumulativeRounding(t *testing.T) {
	q := QuoteFor(3)

	got := []int64{q.Lines[0].AmountCents, q.Lines[1].AmountCents, q.Lines[2].AmountCents}
	assert.Equal(t, []int64{690, 552, 442}, got)
	assert.Equal(t, int64(1684), q.TotalCents)
}

func TestQuoteFor_Empty(t *testing.T) {
	q := QuoteFor(0)

	assert.Empty(t, q.Lines)
	assert.True(t, q.Total.IsZero())
	assert.Equal(t, int64(0), q.TotalCents)
}
