package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/models"
)

func TestTemplateRenderer_Render(t *testing.T) {
	r := NewTemplateRenderer(DefaultPolicy())
	info := models.ProductInfo{
		Title:    "Acme Noise Cancelling Headphones",
		SourceID: "https://www.example.com/dp/B0001",
	}

	tests := []struct {
		kind    models.NotificationKind
		subject string
		snippet string
	}{
		{models.NotificationWelcome, "Welcome to Price Tracking for Acme Noise Cancellin...", "You are now tracking Acme Noise Cancelling Headphones."},
		{models.NotificationChangeOfStock, "Acme Noise Cancellin... is now back in stock!", "is now restocked!"},
		{models.NotificationLowestPrice, "Lowest Price Alert for Acme Noise Cancellin...", "has reached its lowest price ever"},
		{models.NotificationThresholdMet, "Discount Alert for Acme Noise Cancellin...", "at a discount of 40% or more"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			email, err := r.Render(info, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, email.Subject)
			assert.Contains(t, email.Body, tt.snippet)
			assert.Contains(t, email.Body, `href="https://www.example.com/dp/B0001"`)
		})
	}
}

func TestTemplateRenderer_ShortTitleUntouched(t *testing.T) {
	email, err := NewTemplateRenderer(DefaultPolicy()).Render(models.ProductInfo{Title: "Mug"}, models.NotificationLowestPrice)
	require.NoError(t, err)
	assert.Equal(t, "Lowest Price Alert for Mug", email.Subject)
}

func TestTemplateRenderer_EscapesTitle(t *testing.T) {
	email, err := NewTemplateRenderer(DefaultPolicy()).Render(models.ProductInfo{Title: "<script>x</script>"}, models.NotificationChangeOfStock)
	require.NoError(t, err)
	assert.NotContains(t, email.Body, "<script>")
}

func TestTemplateRenderer_Threshold(t *testing.T) {
	r := NewTemplateRenderer(Policy{DiscountThreshold: decimal.NewFromInt(25)})
	email, err := r.Render(models.ProductInfo{Title: "Mug"}, models.NotificationThresholdMet)
	require.NoError(t, err)
	assert.Contains(t, email.Body, "25% or more")
}

func TestTemplateRenderer_UnknownKind(t *testing.T) {
	_, err := NewTemplateRenderer(DefaultPolicy()).Render(models.ProductInfo{Title: "Mug"}, models.NotificationNone)
	assert.Error(t, err)
}
