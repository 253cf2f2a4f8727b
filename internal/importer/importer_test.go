package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smoothiehouse/internal/domain"
)

type stubProductWriter struct {
	products  []domain.Product
	upsertErr error
}

func (s *stubProductWriter) UpsertProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.products = append(s.products, product)
	out := product
	return &out, nil
}

func TestRunImportsRows(t *testing.T) {
	csv := strings.Join([]string{
		"key,category,name,description,price_cents,stock,image",
		"banana-date-shake,shakes,Banana Date Shake,Sweet and creamy,149,20,banana.png",
		"berry-blast,smoothies,Berry Blast,,179,15,",
	}, "\n")

	writer := &stubProductWriter{}
	imp := NewCSVImporter(strings.NewReader(csv), writer)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 2 || len(writer.products) != 2 {
		t.Fatalf("imported %d rows, want 2", count)
	}
	first := writer.products[0]
	if first.Key != "banana-date-shake" || first.PriceCents != 149 || first.Stock != 20 {
		t.Fatalf("unexpected product %+v", first)
	}
	if writer.products[1].Description != "" {
		t.Fatalf("empty description should stay empty, got %q", writer.products[1].Description)
	}
}

func TestRunSkipsBlankKeyRows(t *testing.T) {
	csv := strings.Join([]string{
		"key,category,name,price_cents,stock",
		"banana-date-shake,shakes,Banana Date Shake,149,20",
		",,,,",
		"berry-blast,smoothies,Berry Blast,179,15",
	}, "\n")

	writer := &stubProductWriter{}
	count, err := NewCSVImporter(strings.NewReader(csv), writer).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 2 {
		t.Fatalf("imported %d rows, want 2", count)
	}
}

func TestRunRejectsMissingColumns(t *testing.T) {
	csv := "key,category,name\nbanana-date-shake,shakes,Banana Date Shake\n"
	writer := &stubProductWriter{}
	if _, err := NewCSVImporter(strings.NewReader(csv), writer).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing price_cents column")
	}
}

func TestRunStopsAtMalformedRow(t *testing.T) {
	csv := strings.Join([]string{
		"key,category,name,price_cents,stock",
		"banana-date-shake,shakes,Banana Date Shake,149,20",
		"berry-blast,smoothies,Berry Blast,notanumber,15",
	}, "\n")

	writer := &stubProductWriter{}
	count, err := NewCSVImporter(strings.NewReader(csv), writer).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed price")
	}
	if count != 1 {
		t.Fatalf("imported %d rows before failure, want 1", count)
	}
}

func TestRunSurfacesUpsertFailure(t *testing.T) {
	csv := "key,category,name,price_cents,stock\nbanana-date-shake,shakes,Banana Date Shake,149,20\n"
	writer := &stubProductWriter{upsertErr: errors.New("db down")}
	count, err := NewCSVImporter(strings.NewReader(csv), writer).Run(context.Background())
	if err == nil {
		t.Fatal("expected upsert failure")
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}
