package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a page carries no recognizable currency symbol
const DefaultCurrency = "$"

// PriceObservation is a single price point in a product's history
type PriceObservation struct {
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}

// PriceHistory is ordered oldest first
type PriceHistory []PriceObservation

// Subscriber is an email address registered against a product
type Subscriber struct {
	Email string `json:"email" db:"email"`
}

// ProductSnapshot is the normalized result of one extraction pass over a product page
type ProductSnapshot struct {
	SourceID      string          `json:"source_id"`
	Title         string          `json:"title"`
	Currency      string          `json:"currency"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	DiscountRate  decimal.Decimal `json:"discount_rate"`
	IsOutOfStock  bool            `json:"is_out_of_stock"`
	Image         string          `json:"image,omitempty"`
	Images        []string        `json:"images,omitempty"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	ScrapedAt     time.Time       `json:"scraped_at"`
}

// HasImage reports whether the snapshot carries at least one image URL
func (s ProductSnapshot) HasImage() bool {
	return s.Image != ""
}

// TrackedProduct is the persisted record for a product being monitored
type TrackedProduct struct {
	ID            int             `json:"id" db:"id"`
	SourceID      string          `json:"source_id" db:"source_id"`
	Title         string          `json:"title" db:"title"`
	Currency      string          `json:"currency" db:"currency"`
	CurrentPrice  decimal.Decimal `json:"current_price" db:"current_price"`
	OriginalPrice decimal.Decimal `json:"original_price" db:"original_price"`
	DiscountRate  decimal.Decimal `json:"discount_rate" db:"discount_rate"`
	IsOutOfStock  bool            `json:"is_out_of_stock" db:"is_out_of_stock"`
	Image         string          `json:"image" db:"image"`
	Description   string          `json:"description" db:"description"`
	Category      string          `json:"category" db:"category"`
	PriceHistory  PriceHistory    `json:"price_history" db:"price_history"`
	LowestPrice   decimal.Decimal `json:"lowest_price" db:"lowest_price"`
	HighestPrice  decimal.Decimal `json:"highest_price" db:"highest_price"`
	AveragePrice  decimal.Decimal `json:"average_price" db:"average_price"`
	Subscribers   []Subscriber    `json:"subscribers" db:"-"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// HasSubscribers returns true if at least one email is registered
func (p *TrackedProduct) HasSubscribers() bool {
	return len(p.Subscribers) > 0
}

// HasSubscriber checks membership case-insensitively
func (p *TrackedProduct) HasSubscriber(email string) bool {
	for _, s := range p.Subscribers {
		if strings.EqualFold(s.Email, email) {
			return true
		}
	}
	return false
}

// AddSubscriber appends the email unless it is already present.
// It returns false when the call was a no-op.
func (p *TrackedProduct) AddSubscriber(email string) bool {
	if p.HasSubscriber(email) {
		return false
	}
	p.Subscribers = append(p.Subscribers, Subscriber{Email: email})
	return true
}

// SubscriberEmails returns the registered addresses in insertion order
func (p *TrackedProduct) SubscriberEmails() []string {
	emails := make([]string, 0, len(p.Subscribers))
	for _, s := range p.Subscribers {
		emails = append(emails, s.Email)
	}
	return emails
}

// ApplySnapshot returns a copy of the product with the snapshot's price,
// availability and description fields replaced and the given history and
// derived statistics installed. Identity, subscribers and timestamps are kept.
func (p TrackedProduct) ApplySnapshot(s ProductSnapshot, history PriceHistory, lowest, highest, average decimal.Decimal) TrackedProduct {
	p.SourceID = s.SourceID
	p.Title = s.Title
	p.Currency = s.Currency
	p.CurrentPrice = s.CurrentPrice
	p.OriginalPrice = s.OriginalPrice
	p.DiscountRate = s.DiscountRate
	p.IsOutOfStock = s.IsOutOfStock
	p.Image = s.Image
	p.Description = s.Description
	p.Category = s.Category
	p.PriceHistory = history
	p.LowestPrice = lowest
	p.HighestPrice = highest
	p.AveragePrice = average
	if p.Subscribers != nil {
		p.Subscribers = append([]Subscriber(nil), p.Subscribers...)
	}
	return p
}

// ProductInfo is the subset of product data an email template needs
type ProductInfo struct {
	Title    string `json:"title"`
	SourceID string `json:"source_id"`
}

// Email is a rendered notification ready for delivery
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TrackProductRequest represents the request to start tracking a product URL
type TrackProductRequest struct {
	URL string `json:"url"`
}

// SubscribeRequest represents the request to register an email against a product
type SubscribeRequest struct {
	Email string `json:"email"`
}
