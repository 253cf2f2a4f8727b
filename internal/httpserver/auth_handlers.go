package httpserver

import (
	"log"
	"net/http"

	"smoothiehouse/internal/domain"
	"github.com/gin-gonic/gin"
)

type otpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type otpVerifyRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

func requestOTPHandler(identities IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req otpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "phone required")
			return
		}
		// Delivery of the code is the identity service's sender; it never
		// goes into the response or the logs.
		session, err := identities.RequestOTP(c.Request.Context(), req.Phone)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

func verifyOTPHandler(identities IdentityService, carts CartService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req otpVerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "sessionId and code required")
			return
		}
		result, err := identities.VerifyOTP(c.Request.Context(), req.SessionID, req.Code)
		if err != nil {
			respondError(c, err)
			return
		}
		// Identity change: open the cart session for the signed-in customer.
		if err := carts.Attach(c.Request.Context(), result.Customer.ID); err != nil {
			logger.Printf("attach cart for customer=%s failed: %v", result.Customer.ID, err)
		}
		c.JSON(http.StatusOK, result)
	}
}

func logoutHandler(identities IdentityService, carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer := currentCustomer(c)
		token := c.GetString("accessToken")
		if err := identities.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
		carts.Detach(customer.ID)
		c.Status(http.StatusNoContent)
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, currentCustomer(c))
	}
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func updateProfileHandler(identities IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		customer := currentCustomer(c)
		if err := identities.UpdateProfile(c.Request.Context(), customer.ID, req.Name, req.Email); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type addressesRequest struct {
	Addresses []domain.Address `json:"addresses"`
}

func saveAddressesHandler(identities IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		customer := currentCustomer(c)
		if err := identities.SaveAddresses(c.Request.Context(), customer.ID, req.Addresses); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
