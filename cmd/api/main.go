package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smoothiehouse/internal/config"
	"smoothiehouse/internal/db"
	"smoothiehouse/internal/httpserver"
	cartitemrepo "smoothiehouse/internal/repository/cartitem"
	catalogrepo "smoothiehouse/internal/repository/catalog"
	customerrepo "smoothiehouse/internal/repository/customer"
	tokenrepo "smoothiehouse/internal/repository/token"
	cartsvc "smoothiehouse/internal/service/cart"
	catalogsvc "smoothiehouse/internal/service/catalog"
	identitysvc "smoothiehouse/internal/service/identity"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	itemRepo := cartitemrepo.NewPostgres(dbpool, logger)
	catRepo := catalogrepo.NewPostgres(dbpool, logger)
	custRepo := customerrepo.NewPostgres(dbpool, logger)
	tokRepo := tokenrepo.NewPostgres(dbpool)

	cartService := cartsvc.New(itemRepo, catRepo, logger, cfg.ReconcileInterval)
	defer cartService.Close()
	catalogService := catalogsvc.New(catRepo)
	// No SMS gateway wired yet; nil sender keeps codes from leaving the
	// process until one exists.
	identityService := identitysvc.New(custRepo, tokRepo, nil, logger, cfg.OTPTTL, cfg.AccessTokenTTL)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CartSvc:     cartService,
		CatalogSvc:  catalogService,
		IdentitySvc: identityService,
	}, cfg.CORSOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
