package middleware

import (
	"net/http"
	"strings"

	"blackjack-house-go/backend/internal/auth"
	"blackjack-house-go/backend/internal/config"

	"github.com/gin-gonic/gin"
)

// AddressKey is the gin context key holding the authenticated wallet address.
const AddressKey = "address"

func RequireAuth(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(AddressKey, claims.Address)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	// Cookie first (HttpOnly, server-controlled), then Authorization header.
	if v, err := c.Cookie("bjh_token"); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	authz := c.GetHeader("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
