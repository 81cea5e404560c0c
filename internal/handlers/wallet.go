package handlers

import (
	"net/http"
	"strings"

	"blackjack-house-go/backend/internal/ledger"

	"github.com/gin-gonic/gin"
)

// Wallet endpoints are thin passthroughs to the ledger collaborator. Seeds
// travel through as opaque strings and are never stored.

type seedRequest struct {
	Seed string `json:"seed" binding:"required"`
}

type balanceRequest struct {
	Address string `json:"address" binding:"required"`
	Token   string `json:"token"`
}

type sendRequest struct {
	Seed        string  `json:"seed" binding:"required"`
	Destination string  `json:"destination" binding:"required"`
	Amount      float64 `json:"amount"`
	Memo        string  `json:"memo"`
}

func CreateWalletHandler(wallet ledger.Wallet) gin.HandlerFunc {
	return func(c *gin.Context) {
		seed, address, err := wallet.NewWallet(c.Request.Context())
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"seed": seed, "address": address})
	}
}

func AddressHandler(wallet ledger.Wallet) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req seedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		address, err := wallet.AddressFromSeed(c.Request.Context(), strings.TrimSpace(req.Seed))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"address": address})
	}
}

func BalanceHandler(balances ledger.BalanceReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req balanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		bal, err := balances.Balance(c.Request.Context(), req.Address, req.Token)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, bal)
	}
}

func SendHandler(sender ledger.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		txID, err := sender.Send(c.Request.Context(), strings.TrimSpace(req.Seed), req.Destination, req.Amount, req.Memo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transfer failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "txId": txID})
	}
}
