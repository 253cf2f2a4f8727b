package httpserver

import (
	"net/http"

	"smoothiehouse/internal/domain"
	"github.com/gin-gonic/gin"
)

type lineItemRequest struct {
	ProductID           string          `json:"productId" binding:"required"`
	Category            string          `json:"category" binding:"required"`
	Name                string          `json:"name" binding:"required"`
	Image               string          `json:"image"`
	Base                string          `json:"base"`
	Toppings            []domain.Option `json:"toppings"`
	Boosters            []domain.Option `json:"boosters"`
	SpecialInstructions string          `json:"specialInstructions"`
	Quantity            int             `json:"quantity" binding:"required"`
	PriceCents          int64           `json:"priceCents" binding:"required"`
}

func (r lineItemRequest) toLineItem() domain.LineItem {
	return domain.LineItem{
		ProductID:           r.ProductID,
		Category:            r.Category,
		Name:                r.Name,
		Image:               r.Image,
		Base:                r.Base,
		Toppings:            r.Toppings,
		Boosters:            r.Boosters,
		SpecialInstructions: r.SpecialInstructions,
		Quantity:            r.Quantity,
		PriceCents:          r.PriceCents,
	}
}

func getCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		items, err := carts.Items(customer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []domain.LineItem{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func addItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid line item")
			return
		}
		customer := currentCustomer(c)
		item, err := carts.AddOrMergeItem(c.Request.Context(), customer.ID, req.toLineItem(), "")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func editItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lineItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid line item")
			return
		}
		customer := currentCustomer(c)
		item, err := carts.AddOrMergeItem(c.Request.Context(), customer.ID, req.toLineItem(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func updateQuantityHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "quantity required")
			return
		}
		customer := currentCustomer(c)
		item, err := carts.UpdateQuantity(c.Request.Context(), customer.ID, c.Param("id"), req.Quantity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func removeItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		if err := carts.RemoveItem(c.Request.Context(), customer.ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		if err := carts.Clear(c.Request.Context(), customer.ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type promoRequest struct {
	Code string `json:"code" binding:"required"`
}

func applyPromoHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req promoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "code required")
			return
		}
		customer := currentCustomer(c)
		promo, err := carts.ApplyPromoCode(customer.ID, req.Code)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"promotion": promo})
	}
}

func totalsHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		totals, err := carts.Totals(customer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals)
	}
}

func alertsHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		alerts, err := carts.Alerts(customer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if alerts == nil {
			alerts = []domain.StockAlert{}
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}

// validateCheckoutHandler runs the pure stock validation pass. Checkout may
// proceed only when no item is flagged.
func validateCheckoutHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		alerts, err := carts.ValidateStock(c.Request.Context(), customer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(alerts) > 0 {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "alerts": alerts})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "alerts": []domain.StockAlert{}})
	}
}
