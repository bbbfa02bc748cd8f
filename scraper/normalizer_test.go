package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"symbol and separators", "$1,234.56 ", "1234.56", true},
		{"integer", "1234", "1234", true},
		{"whole part widget", "1,234.", "1234", true},
		{"first two-decimal match wins", "$19.99 - $24.99", "19.99", true},
		{"euro style", "€ 45.00", "45", true},
		{"empty", "", "0", false},
		{"no digits", "Price not available", "0", false},
		{"only a dot", ".", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePrice(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestNormalizePrice_NeverNegative(t *testing.T) {
	got, ok := NormalizePrice("-12.50")
	require.True(t, ok)
	assert.False(t, got.IsNegative())
}

func TestExtractPrice_FirstTextDecides(t *testing.T) {
	// the first selector yields text that does not normalize; later ones are not consulted
	doc := mustParse(t, `<p class="a">Call for price</p><p class="b">$10.00</p>`)
	_, ok := ExtractPrice(doc, SelectorChain{".a", ".b"})
	assert.False(t, ok)
}

func TestExtractCurrency(t *testing.T) {
	assert.Equal(t, "$", ExtractCurrency(mustParse(t, productPage)))
	assert.Equal(t, "€", ExtractCurrency(mustParse(t, `<span class="a-price-symbol">€EUR</span>`)))
	assert.Equal(t, "", ExtractCurrency(mustParse(t, `<p>none</p>`)))
}

func TestResolvePrices(t *testing.T) {
	ten := decimal.NewFromInt(10)
	twenty := decimal.NewFromInt(20)

	tests := []struct {
		name         string
		current      decimal.Decimal
		hasCurrent   bool
		original     decimal.Decimal
		hasOriginal  bool
		wantCurrent  decimal.Decimal
		wantOriginal decimal.Decimal
		wantErr      error
	}{
		{"both present", ten, true, twenty, true, ten, twenty, nil},
		{"current falls back to original", decimal.Zero, false, twenty, true, twenty, twenty, nil},
		{"original falls back to current", ten, true, decimal.Zero, false, ten, ten, nil},
		{"zero current counts as missing", decimal.Zero, true, twenty, true, twenty, twenty, nil},
		{"both missing", decimal.Zero, false, decimal.Zero, false, decimal.Zero, decimal.Zero, ErrPriceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, original, err := resolvePrices(tt.current, tt.hasCurrent, tt.original, tt.hasOriginal)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantCurrent.Equal(current))
			assert.True(t, tt.wantOriginal.Equal(original))
		})
	}
}
