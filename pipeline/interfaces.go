package pipeline

import (
	"context"
	"errors"

	"pricewatch/models"
)

var (
	// ErrListProducts is the only failure that aborts a whole run
	ErrListProducts = errors.New("failed to list tracked products")

	// ErrPersistence wraps record store write failures
	ErrPersistence = errors.New("failed to persist product")

	// ErrInvalidEmail is returned when a subscriber address does not validate
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidURL is returned when a product URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid product url")
)

// Fetcher retrieves the raw markup of a product page
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) (string, error)
}

// Snapshotter turns raw markup into a normalized snapshot
type Snapshotter interface {
	Snapshot(sourceID, markup string) (models.ProductSnapshot, error)
}

// ProductStore is the tracked product record store
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.TrackedProduct, error)
	FindByID(ctx context.Context, id int) (*models.TrackedProduct, error)
	FindBySourceID(ctx context.Context, sourceID string) (*models.TrackedProduct, error)
	Upsert(ctx context.Context, product models.TrackedProduct) (*models.TrackedProduct, error)
	// AddSubscriber returns false when the email was already registered
	AddSubscriber(ctx context.Context, productID int, email string) (bool, error)
	ListSimilar(ctx context.Context, productID int, limit int) ([]models.TrackedProduct, error)
}
