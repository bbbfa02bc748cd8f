package scraper

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// SelectorChain is a priority-ordered list of selectors for one field.
// The first selector yielding non-empty text wins.
type SelectorChain []string

// Selector chains for Amazon-style product pages
var (
	TitleChain = SelectorChain{"#productTitle"}

	CurrentPriceChain = SelectorChain{
		".priceToPay span.a-price-whole",
		".a.size.base.a-color-price",
		".a-button-selected .a-color-base",
	}

	OriginalPriceChain = SelectorChain{
		"#priceblock_ourprice",
		".a-price.a-text-price span.a-offscreen",
		"#listPrice",
		"#priceblock_dealprice",
		".a-size-base.a-color-price",
	}

	CurrencyChain     = SelectorChain{".a-price-symbol"}
	DiscountChain     = SelectorChain{".savingsPercentage"}
	AvailabilityChain = SelectorChain{"#availability span"}
	CategoryChain     = SelectorChain{"#wayfinding-breadcrumbs_feature_div li a"}

	// ImageContainers hold a data-a-dynamic-image attribute, first one wins
	ImageContainers = []string{"#imgBlkFront", "#landingImage"}
)

var errMalformedImages = errors.New("dynamic image attribute is not a JSON object")

const (
	unavailablePhrase     = "currently unavailable"
	dynamicImageAttribute = "data-a-dynamic-image"
	defaultCategory       = "category"
)

// ExtractField returns the first non-empty trimmed text found by the chain,
// or "" when every selector misses.
func ExtractField(doc Document, chain SelectorChain) string {
	text, _ := doc.FindFirst(chain...)
	return text
}

// IsOutOfStock reports whether the availability text is exactly the unavailability phrase
func IsOutOfStock(doc Document) bool {
	availability := ExtractField(doc, AvailabilityChain)
	return strings.ToLower(strings.TrimSpace(availability)) == unavailablePhrase
}

// ExtractImages reads the dynamic-image JSON object and returns its keys in
// document order. Absence or malformed JSON yields an empty set.
func ExtractImages(doc Document) []string {
	raw := ""
	for _, container := range ImageContainers {
		if value, ok := doc.Attr(container, dynamicImageAttribute); ok && strings.TrimSpace(value) != "" {
			raw = value
			break
		}
	}
	if raw == "" {
		return []string{}
	}

	keys, err := objectKeys(raw)
	if err != nil {
		return []string{}
	}
	return keys
}

// objectKeys decodes a JSON object token by token so key order survives
func objectKeys(raw string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errMalformedImages
	}

	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errMalformedImages
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return keys, nil
}

// ExtractDiscountRate reads the savings badge ("-23%") as a percentage.
// A missing or unparseable badge is a zero discount.
func ExtractDiscountRate(doc Document) decimal.Decimal {
	text := ExtractField(doc, DiscountChain)
	text = strings.NewReplacer("-", "", "%", "").Replace(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero
	}

	rate, err := decimal.NewFromString(text)
	if err != nil || rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}

// ExtractCategory returns the deepest breadcrumb entry
func ExtractCategory(doc Document) string {
	crumbs := doc.FindAll(CategoryChain[0])
	for i := len(crumbs) - 1; i >= 0; i-- {
		if crumb := cleanText(crumbs[i]); crumb != "" {
			return crumb
		}
	}
	return defaultCategory
}
