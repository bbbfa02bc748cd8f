package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pricewatch/history"
	"pricewatch/models"
	"pricewatch/notify"
)

const defaultSimilarLimit = 4

// Tracker serves single-product operations: starting to track a URL,
// registering subscribers and reading tracked products.
type Tracker struct {
	fetcher     Fetcher
	snapshotter Snapshotter
	store       ProductStore
	renderer    notify.Renderer
	mailer      notify.Mailer
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewTracker creates a tracker over the same collaborators as the orchestrator
func NewTracker(fetcher Fetcher, snapshotter Snapshotter, store ProductStore, renderer notify.Renderer, mailer notify.Mailer, log logrus.FieldLogger) *Tracker {
	return &Tracker{
		fetcher:     fetcher,
		snapshotter: snapshotter,
		store:       store,
		renderer:    renderer,
		mailer:      mailer,
		now:         time.Now,
		log:         log.WithField("component", "tracker"),
	}
}

// Track scrapes the URL and creates or refreshes its record. An existing
// product keeps its history (extended by the new observation) and its subscribers.
func (t *Tracker) Track(ctx context.Context, rawURL string) (*models.TrackedProduct, error) {
	sourceID, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	markup, err := t.fetcher.Fetch(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", sourceID, err)
	}

	snapshot, err := t.snapshotter.Snapshot(sourceID, markup)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", sourceID, err)
	}

	base := models.TrackedProduct{}
	existing, err := t.store.FindBySourceID(ctx, sourceID)
	switch {
	case err == nil:
		base = *existing
	case errors.Is(err, models.ErrProductNotFound):
	default:
		return nil, fmt.Errorf("failed to look up %s: %w", sourceID, err)
	}

	newHistory, stats := history.Append(base.PriceHistory, snapshot.CurrentPrice, t.now())
	updated := base.ApplySnapshot(snapshot, newHistory, stats.Lowest, stats.Highest, stats.Average)

	stored, err := t.store.Upsert(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	t.log.WithField("source_id", sourceID).Infof("📝 Tracking %q at %s%s", stored.Title, stored.Currency, stored.CurrentPrice.StringFixed(2))
	return stored, nil
}

// Subscribe registers email against the product and sends it a welcome
// email. Registering an address twice is a no-op that sends nothing; the
// returned bool is false in that case. Welcome delivery failures are logged only.
func (t *Tracker) Subscribe(ctx context.Context, productID int, email string) (bool, error) {
	address, err := notify.NormalizeEmail(email)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	product, err := t.store.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}

	if product.HasSubscriber(address) {
		return false, nil
	}

	added, err := t.store.AddSubscriber(ctx, product.ID, address)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !added {
		return false, nil
	}

	log := t.log.WithFields(logrus.Fields{"source_id": product.SourceID, "recipient": address})
	log.Info("👤 Subscriber added")

	welcome, err := t.renderer.Render(models.ProductInfo{Title: product.Title, SourceID: product.SourceID}, models.NotificationWelcome)
	if err != nil {
		log.WithError(err).Error("❌ Failed to render welcome email")
		return true, nil
	}
	if err := t.mailer.Send(ctx, address, welcome); err != nil {
		log.WithError(err).Warn("❌ Failed to send welcome email")
	}

	return true, nil
}

// Product returns one tracked product
func (t *Tracker) Product(ctx context.Context, id int) (*models.TrackedProduct, error) {
	return t.store.FindByID(ctx, id)
}

// Products returns every tracked product
func (t *Tracker) Products(ctx context.Context) ([]models.TrackedProduct, error) {
	return t.store.ListProducts(ctx)
}

// Similar returns up to limit other tracked products
func (t *Tracker) Similar(ctx context.Context, id int, limit int) ([]models.TrackedProduct, error) {
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if _, err := t.store.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return t.store.ListSimilar(ctx, id, limit)
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, trimmed)
	}
	return u.String(), nil
}
