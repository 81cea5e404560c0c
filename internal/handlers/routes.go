package handlers

import (
	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/escrow"
	"blackjack-house-go/backend/internal/ledger"
	"blackjack-house-go/backend/internal/payout"
	"blackjack-house-go/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes wires session issuance. Unauthenticated by design: the
// session is how a wallet address becomes an identity.
func RegisterAuthRoutes(rg *gin.RouterGroup, cfg config.Config) {
	rg.POST("/auth/session", SessionHandler(cfg))
}

// RegisterRoundRoutes wires the blackjack round lifecycle. All endpoints
// require a session.
func RegisterRoundRoutes(rg *gin.RouterGroup, rounds *store.Rounds, gate *escrow.Gate, dispatcher *payout.Dispatcher, hub *RoundHub, cfg config.Config) {
	rg.POST("/blackjack/rounds", CreateRoundHandler(rounds, gate, cfg))
	rg.GET("/blackjack/rounds/:id", StateHandler(rounds))
	rg.POST("/blackjack/rounds/:id/escrow", EscrowHandler(rounds, gate, hub))
	rg.POST("/blackjack/rounds/:id/action", ActionHandler(rounds, dispatcher, hub))
	rg.POST("/blackjack/rounds/:id/payout", PayoutHandler(rounds, dispatcher, hub))
}

// RegisterWalletRoutes wires dev-chain wallet operations.
func RegisterWalletRoutes(rg *gin.RouterGroup, wallet ledger.Wallet, balances ledger.BalanceReader, sender ledger.Sender) {
	rg.POST("/wallet/create", CreateWalletHandler(wallet))
	rg.POST("/wallet/address", AddressHandler(wallet))
	rg.POST("/wallet/balance", BalanceHandler(balances))
	rg.POST("/wallet/send", SendHandler(sender))
}
