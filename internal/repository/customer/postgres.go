package customer

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

func (r *postgresRepo) UpsertByPhone(ctx context.Context, phone string) (*domain.Customer, bool, error) {
	// xmax = 0 only for rows created by this statement, which gives an
	// atomic is-new signal from the upsert itself.
	const q = `
INSERT INTO customers (phone)
VALUES ($1)
ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
RETURNING id::text, phone, name, email, addresses, created_at, (xmax = 0)
`
	var (
		c         domain.Customer
		addresses []byte
		isNew     bool
	)
	err := r.pool.QueryRow(ctx, q, phone).Scan(&c.ID, &c.Phone, &c.Name, &c.Email, &addresses, &c.CreatedAt, &isNew)
	if err != nil {
		r.logger.Printf("customer repo: upsert phone=%s error=%v", phone, err)
		return nil, false, err
	}
	if err := json.Unmarshal(addresses, &c.Addresses); err != nil {
		return nil, false, fmt.Errorf("decode addresses: %w", err)
	}
	return &c, isNew, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `
SELECT id::text, phone, name, email, addresses, created_at
FROM customers
WHERE id = $1
`
	var (
		c         domain.Customer
		addresses []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Phone, &c.Name, &c.Email, &addresses, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("customer repo: get id=%s error=%v", id, err)
		return nil, err
	}
	if err := json.Unmarshal(addresses, &c.Addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	return &c, nil
}

func (r *postgresRepo) SaveAddresses(ctx context.Context, customerID string, addresses []domain.Address) error {
	if addresses == nil {
		addresses = []domain.Address{}
	}
	encoded, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("encode addresses: %w", err)
	}
	const q = `UPDATE customers SET addresses = $2 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, q, customerID, encoded)
	if err != nil {
		r.logger.Printf("customer repo: save addresses id=%s error=%v", customerID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, customerID, name, email string) error {
	const q = `UPDATE customers SET name = $2, email = $3 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, q, customerID, name, email)
	if err != nil {
		r.logger.Printf("customer repo: update profile id=%s error=%v", customerID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
