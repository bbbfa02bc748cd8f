package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/models"
)

type fakeFetcher struct {
	pages    map[string]string
	errs     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceID string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err, ok := f.errs[sourceID]; ok {
		return "", err
	}
	page, ok := f.pages[sourceID]
	if !ok {
		return "<html>" + sourceID + "</html>", nil
	}
	return page, nil
}

type fakeSnapshotter struct {
	snaps  map[string]models.ProductSnapshot
	errs   map[string]error
	panics map[string]bool
}

func (f *fakeSnapshotter) Snapshot(sourceID, _ string) (models.ProductSnapshot, error) {
	if f.panics[sourceID] {
		panic("selector engine exploded")
	}
	if err, ok := f.errs[sourceID]; ok {
		return models.ProductSnapshot{}, err
	}
	return f.snaps[sourceID], nil
}

type memoryStore struct {
	mu        sync.Mutex
	products  []models.TrackedProduct
	nextID    int
	listErr   error
	upsertErr map[string]error
	upserts   []models.TrackedProduct
}

func newMemoryStore(products ...models.TrackedProduct) *memoryStore {
	s := &memoryStore{nextID: 1}
	for _, p := range products {
		if p.ID == 0 {
			p.ID = s.nextID
		}
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
		s.products = append(s.products, p)
	}
	return s
}

func (s *memoryStore) ListProducts(_ context.Context) ([]models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.TrackedProduct(nil), s.products...), nil
}

func (s *memoryStore) FindByID(_ context.Context, id int) (*models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (s *memoryStore) FindBySourceID(_ context.Context, sourceID string) (*models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.SourceID == sourceID {
			cp := p
			return &cp, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (s *memoryStore) Upsert(_ context.Context, product models.TrackedProduct) (*models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.upsertErr[product.SourceID]; ok {
		return nil, err
	}
	s.upserts = append(s.upserts, product)

	for i, p := range s.products {
		if p.SourceID == product.SourceID {
			product.ID = p.ID
			product.Subscribers = p.Subscribers
			s.products[i] = product
			return &product, nil
		}
	}
	product.ID = s.nextID
	s.nextID++
	s.products = append(s.products, product)
	return &product, nil
}

func (s *memoryStore) AddSubscriber(_ context.Context, productID int, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == productID {
			return s.products[i].AddSubscriber(email), nil
		}
	}
	return false, models.ErrProductNotFound
}

func (s *memoryStore) ListSimilar(_ context.Context, productID int, limit int) ([]models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	similar := []models.TrackedProduct{}
	for _, p := range s.products {
		if p.ID != productID && len(similar) < limit {
			similar = append(similar, p)
		}
	}
	return similar, nil
}

type sentEmail struct {
	recipient string
	email     models.Email
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	fail map[string]error
}

func (m *fakeMailer) Send(_ context.Context, recipient string, email models.Email) error {
	if err, ok := m.fail[recipient]; ok {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentEmail{recipient: recipient, email: email})
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.recipient)
	}
	return out
}

type failingRenderer struct{}

func (failingRenderer) Render(models.ProductInfo, models.NotificationKind) (models.Email, error) {
	return models.Email{}, errors.New("template missing")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func snapshotAt(sourceID, price string) models.ProductSnapshot {
	return models.ProductSnapshot{
		SourceID:      sourceID,
		Title:         "Product " + sourceID,
		Currency:      "$",
		CurrentPrice:  dec(price),
		OriginalPrice: dec(price),
		DiscountRate:  decimal.Zero,
		Category:      "category",
	}
}

func trackedWith(id int, sourceID string, prices []string, emails ...string) models.TrackedProduct {
	p := models.TrackedProduct{ID: id, SourceID: sourceID, Title: "Product " + sourceID, Currency: "$"}
	for _, price := range prices {
		p.PriceHistory = append(p.PriceHistory, models.PriceObservation{Price: dec(price)})
	}
	if len(prices) > 0 {
		p.CurrentPrice = dec(prices[len(prices)-1])
	}
	for _, e := range emails {
		p.AddSubscriber(e)
	}
	return p
}
