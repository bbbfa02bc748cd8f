package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, markup string) *HTMLDocument {
	t.Helper()
	doc, err := ParseHTML(markup)
	require.NoError(t, err)
	return doc
}

func TestParseHTML_Empty(t *testing.T) {
	_, err := ParseHTML("   \n")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtractField(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		chain  SelectorChain
		want   string
	}{
		{
			name:   "first selector wins",
			markup: `<p class="a">first</p><p class="b">second</p>`,
			chain:  SelectorChain{".a", ".b"},
			want:   "first",
		},
		{
			name:   "empty match falls through",
			markup: `<p class="a">  </p><p class="b">second</p>`,
			chain:  SelectorChain{".a", ".b"},
			want:   "second",
		},
		{
			name:   "all miss",
			markup: `<p class="c">other</p>`,
			chain:  SelectorChain{".a", ".b"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.markup)
			assert.Equal(t, tt.want, ExtractField(doc, tt.chain))
		})
	}
}

func TestIsOutOfStock(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Currently unavailable.", false},
		{"  Currently Unavailable  ", true},
		{"currently unavailable", true},
		{"In Stock", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			doc := mustParse(t, `<div id="availability"><span>`+tt.text+`</span></div>`)
			assert.Equal(t, tt.want, IsOutOfStock(doc))
		})
	}
}

func TestExtractImages(t *testing.T) {
	t.Run("keys in document order", func(t *testing.T) {
		doc := mustParse(t, productPage)
		assert.Equal(t, []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}, ExtractImages(doc))
	})

	t.Run("front image container takes precedence", func(t *testing.T) {
		doc := mustParse(t, `<img id="landingImage" data-a-dynamic-image='{"b.jpg":[1,1]}'>
			<img id="imgBlkFront" data-a-dynamic-image='{"a.jpg":[1,1]}'>`)
		assert.Equal(t, []string{"a.jpg"}, ExtractImages(doc))
	})

	t.Run("malformed json yields empty set", func(t *testing.T) {
		doc := mustParse(t, `<img id="landingImage" data-a-dynamic-image='{"a.jpg":'>`)
		assert.Empty(t, ExtractImages(doc))
	})

	t.Run("array is not an image map", func(t *testing.T) {
		doc := mustParse(t, `<img id="landingImage" data-a-dynamic-image='["a.jpg"]'>`)
		assert.Empty(t, ExtractImages(doc))
	})

	t.Run("missing attribute", func(t *testing.T) {
		doc := mustParse(t, `<img id="landingImage" src="a.jpg">`)
		images := ExtractImages(doc)
		assert.NotNil(t, images)
		assert.Empty(t, images)
	})
}

func TestExtractDiscountRate(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"badge", `<span class="savingsPercentage">-23%</span>`, "23"},
		{"no badge", `<span>nothing</span>`, "0"},
		{"garbage", `<span class="savingsPercentage">Save big</span>`, "0"},
		{"two badges concatenate", `<span class="savingsPercentage">-23%</span><span class="savingsPercentage">-15%</span>`, "2315"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.markup)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(ExtractDiscountRate(doc)))
		})
	}
}

func TestExtractCategory(t *testing.T) {
	assert.Equal(t, "Headphones", ExtractCategory(mustParse(t, productPage)))
	assert.Equal(t, "category", ExtractCategory(mustParse(t, `<p>no breadcrumbs</p>`)))
}
