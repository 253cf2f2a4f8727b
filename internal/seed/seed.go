package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Key         string
	Category    string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Image       string
}

type optionSeed struct {
	Kind        string
	Name        string
	Description string
	PriceCents  int64
	Position    int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Key:         "banana-date-shake",
			Category:    "shakes",
			Name:        "Banana Date Shake",
			Description: "Banana, medjool dates and almond milk",
			PriceCents:  149,
			Stock:       20,
			Image:       "/img/banana-date-shake.jpg",
		},
		{
			Key:         "berry-blast",
			Category:    "smoothies",
			Name:        "Berry Blast",
			Description: "Strawberry, blueberry and raspberry blend",
			PriceCents:  179,
			Stock:       15,
			Image:       "/img/berry-blast.jpg",
		},
		{
			Key:         "green-machine",
			Category:    "smoothies",
			Name:        "Green Machine",
			Description: "Spinach, kale, mango and pineapple",
			PriceCents:  199,
			Stock:       12,
			Image:       "/img/green-machine.jpg",
		},
		{
			Key:         "peanut-power-shake",
			Category:    "shakes",
			Name:        "Peanut Power Shake",
			Description: "Peanut butter, banana and oat milk",
			PriceCents:  189,
			Stock:       18,
			Image:       "/img/peanut-power-shake.jpg",
		},
	}

	options := []optionSeed{
		{Kind: "bases", Name: "Almond Milk", Position: 1},
		{Kind: "bases", Name: "Oat Milk", Position: 2},
		{Kind: "bases", Name: "Coconut Water", Position: 3},
		{Kind: "toppings", Name: "Chia Seeds", Description: "Omega-3 boost", PriceCents: 30, Position: 1},
		{Kind: "toppings", Name: "Granola", Description: "House-made crunch", PriceCents: 40, Position: 2},
		{Kind: "toppings", Name: "Coconut Flakes", Description: "Toasted", PriceCents: 25, Position: 3},
		{Kind: "toppings", Name: "Cacao Nibs", Description: "Unsweetened", PriceCents: 35, Position: 4},
		{Kind: "boosters", Name: "Whey Protein", Description: "20g per scoop", PriceCents: 75, Position: 1},
		{Kind: "boosters", Name: "Collagen", Description: "Grass-fed", PriceCents: 90, Position: 2},
		{Kind: "boosters", Name: "Spirulina", Description: "Blue-green algae", PriceCents: 60, Position: 3},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	for _, o := range options {
		if err := upsertOption(ctx, pool, o); err != nil {
			return fmt.Errorf("upsert option %s/%s: %w", o.Kind, o.Name, err)
		}
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (key, category, name, description, price_cents, stock, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (category, key) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image
`
	_, err := pool.Exec(ctx, q, p.Key, p.Category, p.Name, p.Description, p.PriceCents, p.Stock, p.Image)
	return err
}

func upsertOption(ctx context.Context, pool *pgxpool.Pool, o optionSeed) error {
	const q = `
INSERT INTO options (kind, name, description, price_cents, position)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (kind, name) DO UPDATE
SET description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    position = EXCLUDED.position
`
	_, err := pool.Exec(ctx, q, o.Kind, o.Name, o.Description, o.PriceCents, o.Position)
	return err
}
