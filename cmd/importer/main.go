package main

import (
	"context"
	"flag"
	"log"
	"os"

	"smoothiehouse/internal/config"
	"smoothiehouse/internal/db"
	"smoothiehouse/internal/importer"
	catalogrepo "smoothiehouse/internal/repository/catalog"
)

func main() {
	path := flag.String("file", "", "path to catalog CSV export")
	flag.Parse()

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if *path == "" {
		logger.Fatal("usage: importer -file catalog.csv")
	}

	cfg := config.FromEnv()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(*path)
	if err != nil {
		logger.Fatalf("open %s: %v", *path, err)
	}
	defer f.Close()

	repo := catalogrepo.NewPostgres(pool, logger)
	imp := importer.NewCSVImporter(f, repo)
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", count, err)
	}
	logger.Printf("imported %d products", count)
}
