package catalog

import (
	"context"
	"errors"
	"io"
	"log"

	"smoothiehouse/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	q := `
SELECT id::text, key, category, name, description, price_cents, stock, image, created_at
FROM products
ORDER BY category, name
`
	args := []any{}
	if category != "" {
		q = `
SELECT id::text, key, category, name, description, price_cents, stock, image, created_at
FROM products
WHERE category = $1
ORDER BY name
`
		args = append(args, category)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("catalog repo: list products category=%q error=%v", category, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Key, &p.Category, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Image, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, category, key string) (*domain.Product, error) {
	const q = `
SELECT id::text, key, category, name, description, price_cents, stock, image, created_at
FROM products
WHERE category = $1 AND key = $2
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, category, key).Scan(&p.ID, &p.Key, &p.Category, &p.Name, &p.Description, &p.PriceCents, &p.Stock, &p.Image, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: get category=%s key=%s error=%v", category, key, err)
		return nil, err
	}
	return &p, nil
}

// ReadStock returns live stock and unit price. ErrNotFound means the product
// no longer exists in the catalog.
func (r *postgresRepo) ReadStock(ctx context.Context, category, key string) (*StockInfo, error) {
	const q = `SELECT stock, price_cents FROM products WHERE category = $1 AND key = $2`
	var info StockInfo
	err := r.pool.QueryRow(ctx, q, category, key).Scan(&info.Stock, &info.PriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: read stock category=%s key=%s error=%v", category, key, err)
		return nil, err
	}
	return &info, nil
}

func (r *postgresRepo) ListOptions(ctx context.Context, kind string) ([]domain.Option, error) {
	const q = `
SELECT id::text, name, description, price_cents
FROM options
WHERE kind = $1
ORDER BY position, name
`
	rows, err := r.pool.Query(ctx, q, kind)
	if err != nil {
		r.logger.Printf("catalog repo: list options kind=%s error=%v", kind, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Option
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.PriceCents); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (key, category, name, description, price_cents, stock, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (category, key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image
RETURNING id::text, created_at
`
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.Key,
		product.Category,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Stock,
		product.Image,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("catalog repo: upsert category=%s key=%s error=%v", product.Category, product.Key, err)
		return nil, err
	}
	return &res, nil
}
