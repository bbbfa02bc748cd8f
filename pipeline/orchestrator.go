package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pricewatch/history"
	"pricewatch/metrics"
	"pricewatch/models"
	"pricewatch/notify"
	"pricewatch/scraper"
)

const defaultConcurrency = 5

// Options tunes a pipeline run
type Options struct {
	// Concurrency bounds the number of products processed at once
	Concurrency int
	Policy      notify.Policy
}

// Orchestrator runs fetch, extract, persist and notify for every tracked product
type Orchestrator struct {
	fetcher     Fetcher
	snapshotter Snapshotter
	store       ProductStore
	renderer    notify.Renderer
	mailer      notify.Mailer
	opts        Options
	now         func() time.Time
	log         logrus.FieldLogger
}

// NewOrchestrator wires the pipeline collaborators
func NewOrchestrator(fetcher Fetcher, snapshotter Snapshotter, store ProductStore, renderer notify.Renderer, mailer notify.Mailer, opts Options, log logrus.FieldLogger) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Orchestrator{
		fetcher:     fetcher,
		snapshotter: snapshotter,
		store:       store,
		renderer:    renderer,
		mailer:      mailer,
		opts:        opts,
		now:         time.Now,
		log:         log.WithField("component", "pipeline"),
	}
}

// Run processes every tracked product and returns one result per product in
// listing order. Only a failure to list products fails the run.
func (o *Orchestrator) Run(ctx context.Context) ([]models.ProductResult, error) {
	products, err := o.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListProducts, err)
	}

	if len(products) == 0 {
		o.log.Info("No products to check")
		return []models.ProductResult{}, nil
	}

	o.log.Infof("Checking prices for %d products", len(products))

	results := make([]models.ProductResult, len(products))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, product := range products {
		g.Go(func() error {
			results[i] = o.processProduct(ctx, product)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// processProduct runs one product's sequence. Failures are captured in the
// result and never escape.
func (o *Orchestrator) processProduct(ctx context.Context, product models.TrackedProduct) (result models.ProductResult) {
	log := o.log.WithField("source_id", product.SourceID)
	result.SourceID = product.SourceID

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("💥 Panic while processing product: %v", r)
			result.Product = nil
			result.Err = fmt.Errorf("panic: %v", r)
			metrics.RecordProduct("panic")
		}
	}()

	markup, err := o.fetcher.Fetch(ctx, product.SourceID)
	if err != nil {
		log.WithError(err).Warn("❌ Failed to retrieve product page")
		result.Err = fmt.Errorf("%w: %w", scraper.ErrRetrievalFailed, err)
		metrics.RecordProduct("retrieval_failed")
		return result
	}

	snapshot, err := o.snapshotter.Snapshot(product.SourceID, markup)
	if err != nil {
		log.WithError(err).Warn("❌ Failed to extract product")
		result.Err = err
		metrics.RecordProduct("extraction_failed")
		return result
	}

	previousLowest := history.Lowest(product.PriceHistory)
	newHistory, stats := history.Append(product.PriceHistory, snapshot.CurrentPrice, o.now())
	updated := product.ApplySnapshot(snapshot, newHistory, stats.Lowest, stats.Highest, stats.Average)

	stored, err := o.store.Upsert(ctx, updated)
	if err != nil {
		log.WithError(err).Error("❌ Failed to persist product")
		result.Err = fmt.Errorf("%w: %w", ErrPersistence, err)
		metrics.RecordProduct("persistence_failed")
		return result
	}
	result.Product = stored
	metrics.RecordProduct("updated")

	log.WithFields(logrus.Fields{
		"price":  snapshot.CurrentPrice.String(),
		"lowest": stats.Lowest.String(),
	}).Infof("Current price for %s: %s%s", snapshot.Title, snapshot.Currency, snapshot.CurrentPrice.StringFixed(2))

	if !product.HasSubscribers() {
		return result
	}

	kind := notify.Decide(snapshot, product, previousLowest, o.opts.Policy)
	result.Notification = kind
	metrics.RecordNotification(kind.String())
	if kind.IsNone() {
		return result
	}

	log.WithField("kind", kind).Infof("🚨 Notifying %d subscribers", len(product.Subscribers))

	email, err := o.renderer.Render(models.ProductInfo{Title: snapshot.Title, SourceID: snapshot.SourceID}, kind)
	if err != nil {
		log.WithError(err).Error("❌ Failed to render email")
		result.NotifyErr = err
		return result
	}

	result.Deliveries = notify.Dispatch(ctx, o.mailer, product.SubscriberEmails(), email)
	for _, d := range result.Deliveries {
		metrics.RecordDelivery(d.Delivered())
		if !d.Delivered() {
			log.WithField("recipient", d.Recipient).WithError(d.Err).Warn("❌ Failed to deliver email")
		}
	}

	return result
}
