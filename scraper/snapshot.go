package scraper

import (
	"fmt"
	"time"

	"pricewatch/models"
)

// Snapshotter turns fetched markup into a normalized ProductSnapshot
type Snapshotter struct {
	summary SummaryOptions
	now     func() time.Time
}

// NewSnapshotter creates a snapshotter with the given description bounds
func NewSnapshotter(summary SummaryOptions) *Snapshotter {
	return &Snapshotter{
		summary: summary,
		now:     time.Now,
	}
}

// Snapshot parses the markup and extracts every product field
func (s *Snapshotter) Snapshot(sourceID, markup string) (models.ProductSnapshot, error) {
	doc, err := ParseHTML(markup)
	if err != nil {
		return models.ProductSnapshot{}, err
	}
	return s.FromDocument(sourceID, doc)
}

// FromDocument extracts a snapshot from an already parsed document
func (s *Snapshotter) FromDocument(sourceID string, doc Document) (models.ProductSnapshot, error) {
	current, hasCurrent := ExtractPrice(doc, CurrentPriceChain)
	original, hasOriginal := ExtractPrice(doc, OriginalPriceChain)

	currentPrice, originalPrice, err := resolvePrices(current, hasCurrent, original, hasOriginal)
	if err != nil {
		return models.ProductSnapshot{}, fmt.Errorf("snapshot %s: %w", sourceID, err)
	}

	currency := ExtractCurrency(doc)
	if currency == "" {
		currency = models.DefaultCurrency
	}

	images := ExtractImages(doc)
	image := ""
	if len(images) > 0 {
		image = images[0]
	}

	return models.ProductSnapshot{
		SourceID:      sourceID,
		Title:         ExtractField(doc, TitleChain),
		Currency:      currency,
		CurrentPrice:  currentPrice,
		OriginalPrice: originalPrice,
		DiscountRate:  ExtractDiscountRate(doc),
		IsOutOfStock:  IsOutOfStock(doc),
		Image:         image,
		Images:        images,
		Description:   Summarize(doc, s.summary),
		Category:      ExtractCategory(doc),
		ScrapedAt:     s.now(),
	}, nil
}
