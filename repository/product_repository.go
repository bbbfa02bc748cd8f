package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pricewatch/models"
)

const productColumns = `
	p.id, p.source_id, p.title, p.currency, p.current_price, p.original_price,
	p.discount_rate, p.is_out_of_stock, p.image, p.description, p.category,
	p.price_history, p.lowest_price, p.highest_price, p.average_price,
	COALESCE((SELECT json_agg(s.email ORDER BY s.id) FROM product_subscribers s WHERE s.product_id = p.id), '[]'::json),
	p.created_at, p.updated_at`

// ProductRepository persists tracked products and their subscribers in Postgres
type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.TrackedProduct, error) {
	var (
		p           models.TrackedProduct
		historyJSON []byte
		emailsJSON  []byte
	)

	err := row.Scan(
		&p.ID, &p.SourceID, &p.Title, &p.Currency, &p.CurrentPrice, &p.OriginalPrice,
		&p.DiscountRate, &p.IsOutOfStock, &p.Image, &p.Description, &p.Category,
		&historyJSON, &p.LowestPrice, &p.HighestPrice, &p.AveragePrice,
		&emailsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PriceHistory = models.PriceHistory{}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &p.PriceHistory); err != nil {
			return nil, fmt.Errorf("failed to decode price history: %w", err)
		}
	}

	var emails []string
	if len(emailsJSON) > 0 {
		if err := json.Unmarshal(emailsJSON, &emails); err != nil {
			return nil, fmt.Errorf("failed to decode subscribers: %w", err)
		}
	}
	p.Subscribers = make([]models.Subscriber, 0, len(emails))
	for _, email := range emails {
		p.Subscribers = append(p.Subscribers, models.Subscriber{Email: email})
	}

	return &p, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...any) ([]models.TrackedProduct, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.TrackedProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// ListProducts returns every tracked product, oldest first
func (r *ProductRepository) ListProducts(ctx context.Context) ([]models.TrackedProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products p ORDER BY p.id`

	products, err := r.queryProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindByID returns a tracked product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id int) (*models.TrackedProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// FindBySourceID returns a tracked product by its page URL
func (r *ProductRepository) FindBySourceID(ctx context.Context, sourceID string) (*models.TrackedProduct, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.source_id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, sourceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// Upsert inserts the product or replaces the record with the same source_id.
// Subscribers are managed separately through AddSubscriber.
func (r *ProductRepository) Upsert(ctx context.Context, product models.TrackedProduct) (*models.TrackedProduct, error) {
	history := product.PriceHistory
	if history == nil {
		history = models.PriceHistory{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode price history: %w", err)
	}

	query := `
		INSERT INTO products (
			source_id, title, currency, current_price, original_price, discount_rate,
			is_out_of_stock, image, description, category, price_history,
			lowest_price, highest_price, average_price, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (source_id) DO UPDATE SET
			title = EXCLUDED.title,
			currency = EXCLUDED.currency,
			current_price = EXCLUDED.current_price,
			original_price = EXCLUDED.original_price,
			discount_rate = EXCLUDED.discount_rate,
			is_out_of_stock = EXCLUDED.is_out_of_stock,
			image = EXCLUDED.image,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price_history = EXCLUDED.price_history,
			lowest_price = EXCLUDED.lowest_price,
			highest_price = EXCLUDED.highest_price,
			average_price = EXCLUDED.average_price,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`

	stored := product
	stored.PriceHistory = history
	err = r.db.QueryRowContext(ctx, query,
		product.SourceID, product.Title, product.Currency,
		product.CurrentPrice, product.OriginalPrice, product.DiscountRate,
		product.IsOutOfStock, product.Image, product.Description, product.Category,
		string(historyJSON),
		product.LowestPrice, product.HighestPrice, product.AveragePrice,
		r.now(),
	).Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product: %w", err)
	}

	if stored.Subscribers == nil {
		stored.Subscribers = []models.Subscriber{}
	}
	return &stored, nil
}

// AddSubscriber registers email against the product. It returns false when
// the address was already registered.
func (r *ProductRepository) AddSubscriber(ctx context.Context, productID int, email string) (bool, error) {
	query := `
		INSERT INTO product_subscribers (product_id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, email) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, productID, email, r.now())
	if err != nil {
		return false, fmt.Errorf("failed to add subscriber: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add subscriber: %w", err)
	}
	return affected > 0, nil
}

// ListSimilar returns up to limit other products, same category first
func (r *ProductRepository) ListSimilar(ctx context.Context, productID int, limit int) ([]models.TrackedProduct, error) {
	query := `SELECT ` + productColumns + `
		FROM products p
		WHERE p.id <> $1
		ORDER BY (p.category = (SELECT category FROM products WHERE id = $1)) DESC, p.updated_at DESC
		LIMIT $2`

	products, err := r.queryProducts(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list similar products: %w", err)
	}
	return products, nil
}
