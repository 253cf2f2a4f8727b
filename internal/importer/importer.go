package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"smoothiehouse/internal/domain"
)

type ProductWriter interface {
	UpsertProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products.
// Expected headers: key, category, name, description, price_cents, stock, image.
type CSVImporter struct {
	reader  *csv.Reader
	catalog ProductWriter
}

func NewCSVImporter(r io.Reader, catalog ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:  csvr,
		catalog: catalog,
	}
}

// Run parses CSV rows and upserts products. It returns the number imported
// and stops at the first malformed row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"key", "category", "name", "price_cents", "stock"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		product, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", imported+2, err)
		}
		if product == nil {
			continue
		}
		if _, err := i.catalog.UpsertProduct(ctx, *product); err != nil {
			return imported, fmt.Errorf("upsert %s: %w", product.Key, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return index
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	key := field("key")
	if key == "" {
		return nil, nil // blank separator row
	}
	priceCents, err := strconv.ParseInt(field("price_cents"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("price_cents: %w", err)
	}
	stock, err := strconv.Atoi(field("stock"))
	if err != nil {
		return nil, fmt.Errorf("stock: %w", err)
	}

	return &domain.Product{
		Key:         key,
		Category:    field("category"),
		Name:        field("name"),
		Description: field("description"),
		PriceCents:  priceCents,
		Stock:       stock,
		Image:       field("image"),
	}, nil
}
