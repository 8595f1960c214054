package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warningbypass/warningweb/internal/apperror"
)

// ProductRepository defines data access for the catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	ListOwned(ctx context.Context, userID string) ([]*OwnedProduct, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a product repository backed by the given DB pool.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, title, description, image, features, popular, currency,
	price_monthly, price_quarterly, price_lifetime`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	p := &Product{}
	var featuresJSON string
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Image,
		&featuresJSON,
		&p.Popular,
		&p.Currency,
		&p.PriceMonthly,
		&p.PriceQuarterly,
		&p.PriceLifetime,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(featuresJSON), &p.Features); err != nil {
		return nil, fmt.Errorf("decoding features for product %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sort_order`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *productRepository) Get(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying product: %w", err)
	}
	return p, nil
}

func (r *productRepository) ListOwned(ctx context.Context, userID string) ([]*OwnedProduct, error) {
	query := `SELECT up.product_id, p.title, up.period, up.acquired_at, up.expires_at
	          FROM user_products up
	          JOIN products p ON p.id = up.product_id
	          WHERE up.user_id = ?
	          ORDER BY up.acquired_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying owned products: %w", err)
	}
	defer rows.Close()

	var owned []*OwnedProduct
	for rows.Next() {
		o := &OwnedProduct{}
		if err := rows.Scan(&o.ProductID, &o.Title, &o.Period, &o.AcquiredAt, &o.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning owned product: %w", err)
		}
		owned = append(owned, o)
	}
	return owned, rows.Err()
}
