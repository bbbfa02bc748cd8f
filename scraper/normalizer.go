package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.]`)
	twoDecimalsRe = regexp.MustCompile(`\d+\.\d{2}`)
)

// NormalizePrice turns raw price text into a decimal. Every character that is
// not a digit or a dot is dropped; the first \d+\.\d{2} match wins, otherwise
// the whole cleaned string is parsed. The bool is false when no number
// could be recovered, which callers must treat as "price unavailable".
func NormalizePrice(raw string) (decimal.Decimal, bool) {
	cleaned := nonPriceChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return decimal.Zero, false
	}

	candidate := cleaned
	if match := twoDecimalsRe.FindString(cleaned); match != "" {
		candidate = match
	}

	// "1,234." as rendered by split whole/fraction price widgets
	candidate = strings.TrimSuffix(candidate, ".")
	if candidate == "" {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(candidate)
	if err != nil || price.IsNegative() {
		return decimal.Zero, false
	}
	return price, true
}

// ExtractPrice normalizes the first non-empty text in the chain. Later
// selectors are not consulted once one yields text, even if that text
// does not normalize to a number.
func ExtractPrice(doc Document, chain SelectorChain) (decimal.Decimal, bool) {
	text := ExtractField(doc, chain)
	if text == "" {
		return decimal.Zero, false
	}
	return NormalizePrice(text)
}

// ExtractCurrency returns the first character of the currency element, or ""
func ExtractCurrency(doc Document) string {
	text := ExtractField(doc, CurrencyChain)
	if text == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// resolvePrices applies the sibling fallback: a missing current price takes
// the original price and vice versa.
func resolvePrices(current decimal.Decimal, hasCurrent bool, original decimal.Decimal, hasOriginal bool) (decimal.Decimal, decimal.Decimal, error) {
	// zero is falsy for the purpose of fallback
	hasCurrent = hasCurrent && !current.IsZero()
	hasOriginal = hasOriginal && !original.IsZero()

	switch {
	case hasCurrent && hasOriginal:
		return current, original, nil
	case hasCurrent:
		return current, current, nil
	case hasOriginal:
		return original, original, nil
	default:
		return decimal.Zero, decimal.Zero, ErrPriceUnavailable
	}
}
