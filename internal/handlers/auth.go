package handlers

import (
	"net/http"
	"strings"

	"blackjack-house-go/backend/internal/auth"
	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	Address string `json:"address" binding:"required"`
}

// SessionHandler issues a token for a wallet address. Identity here is the
// address itself; what the session protects is round ownership, so a client
// cannot act on rounds opened by someone else.
func SessionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		address := strings.TrimSpace(req.Address)
		if address == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
			return
		}

		token, err := auth.GenerateToken(address, cfg)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		secure := cfg.AppEnv != "development"
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie("bjh_token", token, int(cfg.JWTTTL.Seconds()), "/", "", secure, true)
		c.JSON(http.StatusOK, gin.H{"token": token, "address": address})
	}
}

// addressFromContext returns the authenticated wallet address.
func addressFromContext(c *gin.Context) string {
	v, _ := c.Get(middleware.AddressKey)
	addr, _ := v.(string)
	return addr
}
