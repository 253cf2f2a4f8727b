package cartitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

const itemColumns = `id::text, owner_id::text, product_id, category, name, image, base, toppings, boosters, special_instructions, quantity, price_cents, stock_cached, customized, version, updated_at`

func (r *postgresRepo) Create(ctx context.Context, item domain.LineItem) (*domain.LineItem, error) {
	toppings, boosters, err := marshalOptions(item)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO cart_items (owner_id, product_id, category, name, image, base, toppings, boosters, special_instructions, quantity, price_cents, stock_cached, customized)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id::text, version, updated_at
`
	out := item
	err = r.pool.QueryRow(ctx, q,
		item.OwnerID,
		item.ProductID,
		item.Category,
		item.Name,
		item.Image,
		item.Base,
		toppings,
		boosters,
		item.SpecialInstructions,
		item.Quantity,
		item.PriceCents,
		item.StockCached,
		item.Customized,
	).Scan(&out.ID, &out.Version, &out.UpdatedAt)
	if err != nil {
		r.logger.Printf("cartitem repo: create owner=%s product=%s error=%v", item.OwnerID, item.ProductID, err)
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, ownerID, id string, item domain.LineItem) (*domain.LineItem, error) {
	toppings, boosters, err := marshalOptions(item)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE cart_items
SET product_id = $3,
    category = $4,
    name = $5,
    image = $6,
    base = $7,
    toppings = $8,
    boosters = $9,
    special_instructions = $10,
    quantity = $11,
    price_cents = $12,
    stock_cached = $13,
    customized = $14
WHERE owner_id = $1 AND id = $2
RETURNING version, updated_at
`
	out := item
	out.ID = id
	out.OwnerID = ownerID
	err = r.pool.QueryRow(ctx, q,
		ownerID,
		id,
		item.ProductID,
		item.Category,
		item.Name,
		item.Image,
		item.Base,
		toppings,
		boosters,
		item.SpecialInstructions,
		item.Quantity,
		item.PriceCents,
		item.StockCached,
		item.Customized,
	).Scan(&out.Version, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("cartitem repo: upsert owner=%s id=%s error=%v", ownerID, id, err)
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) UpdateQuantity(ctx context.Context, ownerID, id string, quantity int, priceCents int64) error {
	const q = `
UPDATE cart_items
SET quantity = $3, price_cents = $4
WHERE owner_id = $1 AND id = $2
`
	cmd, err := r.pool.Exec(ctx, q, ownerID, id, quantity, priceCents)
	if err != nil {
		r.logger.Printf("cartitem repo: update quantity owner=%s id=%s error=%v", ownerID, id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the item row. Deleting an absent item is not an error.
func (r *postgresRepo) Delete(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM cart_items WHERE owner_id = $1 AND id = $2`
	if _, err := r.pool.Exec(ctx, q, ownerID, id); err != nil {
		r.logger.Printf("cartitem repo: delete owner=%s id=%s error=%v", ownerID, id, err)
		return err
	}
	return nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	q := fmt.Sprintf(`SELECT %s FROM cart_items WHERE owner_id = $1 ORDER BY updated_at ASC, id ASC`, itemColumns)
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		r.logger.Printf("cartitem repo: list owner=%s error=%v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyCorrections commits every correction of a reconciliation pass in one
// transaction: either all stick or none do.
func (r *postgresRepo) ApplyCorrections(ctx context.Context, ownerID string, corrections []Correction) error {
	if len(corrections) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE cart_items
SET quantity = $3, price_cents = $4, stock_cached = $5
WHERE owner_id = $1 AND id = $2
`
	for _, c := range corrections {
		if _, err := tx.Exec(ctx, q, ownerID, c.ItemID, c.Quantity, c.PriceCents, c.Stock); err != nil {
			r.logger.Printf("cartitem repo: correction owner=%s id=%s error=%v", ownerID, c.ItemID, err)
			return err
		}
	}
	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.LineItem, error) {
	var (
		item     domain.LineItem
		toppings []byte
		boosters []byte
	)
	if err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.ProductID,
		&item.Category,
		&item.Name,
		&item.Image,
		&item.Base,
		&toppings,
		&boosters,
		&item.SpecialInstructions,
		&item.Quantity,
		&item.PriceCents,
		&item.StockCached,
		&item.Customized,
		&item.Version,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(toppings, &item.Toppings); err != nil {
		return nil, fmt.Errorf("decode toppings: %w", err)
	}
	if err := json.Unmarshal(boosters, &item.Boosters); err != nil {
		return nil, fmt.Errorf("decode boosters: %w", err)
	}
	return &item, nil
}

func marshalOptions(item domain.LineItem) ([]byte, []byte, error) {
	toppings, err := json.Marshal(orEmpty(item.Toppings))
	if err != nil {
		return nil, nil, fmt.Errorf("encode toppings: %w", err)
	}
	boosters, err := json.Marshal(orEmpty(item.Boosters))
	if err != nil {
		return nil, nil, fmt.Errorf("encode boosters: %w", err)
	}
	return toppings, boosters, nil
}

func orEmpty(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return opts
}
