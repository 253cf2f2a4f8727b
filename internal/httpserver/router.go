package httpserver

import (
	"context"
	"errors"
	"log"

	"smoothiehouse/internal/domain"
	"smoothiehouse/internal/service/identity"
	"smoothiehouse/internal/service/pricing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartService is the cart store plus reconciler surface consumed by handlers.
type CartService interface {
	Attach(ctx context.Context, ownerID string) error
	Detach(ownerID string)
	Items(ownerID string) ([]domain.LineItem, error)
	AddOrMergeItem(ctx context.Context, ownerID string, candidate domain.LineItem, editItemID string) (*domain.LineItem, error)
	UpdateQuantity(ctx context.Context, ownerID, itemID string, newQuantity int) (*domain.LineItem, error)
	RemoveItem(ctx context.Context, ownerID, itemID string) error
	Clear(ctx context.Context, ownerID string) error
	ApplyPromoCode(ownerID, code string) (*domain.Promotion, error)
	Totals(ownerID string) (pricing.Totals, error)
	Alerts(ownerID string) ([]domain.StockAlert, error)
	ValidateStock(ctx context.Context, ownerID string) ([]domain.StockAlert, error)
}

// CatalogService serves product browsing and customization options.
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, category, key string) (*domain.Product, error)
	ListOptions(ctx context.Context, kind string) ([]domain.Option, error)
}

// IdentityService handles OTP sign-in and bearer-token auth.
type IdentityService interface {
	RequestOTP(ctx context.Context, phone string) (*identity.VerificationSession, error)
	VerifyOTP(ctx context.Context, sessionID, code string) (*identity.LoginResult, error)
	LookupByToken(ctx context.Context, accessToken string) (*domain.Customer, error)
	Logout(ctx context.Context, accessToken string) error
	SaveAddresses(ctx context.Context, customerID string, addresses []domain.Address) error
	UpdateProfile(ctx context.Context, customerID, name, email string) error
}

// Deps bundles the services the router needs.
type Deps struct {
	CartSvc     CartService
	CatalogSvc  CatalogService
	IdentitySvc IdentityService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.CatalogSvc == nil || deps.IdentitySvc == nil {
		return nil, errors.New("missing dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(corsOrigins) == 1 && corsOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	auth := router.Group("/auth")
	{
		auth.POST("/otp/request", requestOTPHandler(deps.IdentitySvc))
		auth.POST("/otp/verify", verifyOTPHandler(deps.IdentitySvc, deps.CartSvc, logger))
		auth.POST("/logout", authRequired(deps.IdentitySvc, deps.CartSvc), logoutHandler(deps.IdentitySvc, deps.CartSvc))
	}

	router.GET("/products", listProductsHandler(deps.CatalogSvc))
	router.GET("/products/:category/:key", getProductHandler(deps.CatalogSvc))
	router.GET("/options/:kind", listOptionsHandler(deps.CatalogSvc))

	me := router.Group("/me", authRequired(deps.IdentitySvc, deps.CartSvc))
	{
		me.GET("", meHandler())
		me.PUT("", updateProfileHandler(deps.IdentitySvc))
		me.PUT("/addresses", saveAddressesHandler(deps.IdentitySvc))
	}

	cart := router.Group("/cart", authRequired(deps.IdentitySvc, deps.CartSvc))
	{
		cart.GET("", getCartHandler(deps.CartSvc))
		cart.POST("/items", addItemHandler(deps.CartSvc))
		cart.PUT("/items/:id", editItemHandler(deps.CartSvc))
		cart.PATCH("/items/:id", updateQuantityHandler(deps.CartSvc))
		cart.DELETE("/items/:id", removeItemHandler(deps.CartSvc))
		cart.DELETE("", clearCartHandler(deps.CartSvc))
		cart.POST("/promo", applyPromoHandler(deps.CartSvc))
		cart.GET("/totals", totalsHandler(deps.CartSvc))
		cart.GET("/alerts", alertsHandler(deps.CartSvc))
	}

	router.POST("/checkout/validate", authRequired(deps.IdentitySvc, deps.CartSvc), validateCheckoutHandler(deps.CartSvc))

	return router, nil
}
