package handlers

import (
	"errors"
	"net/http"
	"strings"

	"blackjack-house-go/backend/internal/config"
	"blackjack-house-go/backend/internal/escrow"
	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/models"
	"blackjack-house-go/backend/internal/payout"
	"blackjack-house-go/backend/internal/store"
	"blackjack-house-go/backend/internal/tracing"

	"github.com/gin-gonic/gin"
)

type createRoundRequest struct {
	Bet        float64 `json:"bet"`
	ClientSeed string  `json:"clientSeed"`
	Decks      int     `json:"decks"`
}

type escrowRequest struct {
	Step int    `json:"step"`
	TxID string `json:"txId"`
}

type actionRequest struct {
	Action string `json:"action"`
}

// CreateRoundHandler opens a round for the authenticated address: fresh
// server seed, seeded shuffle, commitment hash published immediately. The
// response carries the escrow intent the player must fund before dealing.
func CreateRoundHandler(rounds *store.Rounds, gate *escrow.Gate, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.CreateRoundHandler")
		defer span.End()

		var req createRoundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Bet <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bet"})
			return
		}

		clientSeed := strings.TrimSpace(req.ClientSeed)
		if len(clientSeed) > 64 {
			clientSeed = clientSeed[:64]
		}
		if clientSeed == "" {
			clientSeed = "client"
		}
		decks := req.Decks
		if decks <= 0 || decks > 8 {
			decks = cfg.Decks
		}

		serverSeed, shoeHash, err := blackjack.MakeServerSeed()
		if err != nil {
			writeAPIError(c, err)
			return
		}
		shoe := blackjack.ShuffleWithSeeds(serverSeed, clientSeed, decks)
		round := blackjack.NewRound(addressFromContext(c), req.Bet, shoe, serverSeed, shoeHash, clientSeed)

		if err := rounds.Create(ctx, round); err != nil {
			writeAPIError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"roundId":      round.ID,
			"shoeHash":     shoeHash,
			"escrowIntent": gate.Intent(round, 1),
		})
	}
}

// EscrowHandler verifies one escrow step against the chain. When the base
// step is confirmed the response also carries the intent for the double
// stake, so a client can fund it ahead of time.
func EscrowHandler(rounds *store.Rounds, gate *escrow.Gate, hub *RoundHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.EscrowHandler")
		defer span.End()

		roundID := c.Param("id")
		var req escrowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		round, err := loadOwnedRound(c, rounds, roundID)
		if err != nil {
			writeAPIError(c, err)
			return
		}

		verified, err := gate.Verify(ctx, rounds, roundID, req.Step, escrow.Proof{TxID: req.TxID})
		if err != nil {
			writeAPIError(c, err)
			return
		}

		resp := gin.H{"ok": true, "escrowVerified": verified}
		if verified == 1 {
			resp["escrowIntent"] = gate.Intent(round, 2)
		}
		hub.publish(ctx, rounds, roundID)
		c.JSON(http.StatusOK, resp)
	}
}

// ActionHandler applies deal/hit/stand/double. The whole action runs under
// the round's writer; on failure nothing is persisted. If the action lands
// the round in a terminal state with winnings owed, settlement is dispatched
// immediately and a dispatch failure is reported alongside the (already
// persisted) state, leaving the round retryable.
func ActionHandler(rounds *store.Rounds, dispatcher *payout.Dispatcher, hub *RoundHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.ActionHandler")
		defer span.End()

		roundID := c.Param("id")
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		if _, err := loadOwnedRound(c, rounds, roundID); err != nil {
			writeAPIError(c, err)
			return
		}

		round, err := rounds.Update(ctx, roundID, func(r *blackjack.Round) error {
			return blackjack.Apply(r, blackjack.Action(req.Action))
		})
		if err != nil {
			writeAPIError(c, err)
			return
		}

		resp := gin.H{}
		if round.Phase == blackjack.PhaseOver && !round.Paid && round.Payout > 0 {
			settled, err := dispatcher.Dispatch(ctx, roundID)
			if err != nil {
				resp["settlementError"] = settlementErrorMessage(err)
			} else {
				round = settled
			}
		}

		resp["state"] = buildPublicState(round)
		if round.Phase == blackjack.PhaseOver {
			resp["result"] = gin.H{"outcome": round.Outcome, "payout": round.Payout}
		}
		hub.broadcast(round)
		c.JSON(http.StatusOK, resp)
	}
}

// StateHandler returns the hidden-hole projection of the caller's round.
func StateHandler(rounds *store.Rounds) gin.HandlerFunc {
	return func(c *gin.Context) {
		round, err := loadOwnedRound(c, rounds, c.Param("id"))
		if err != nil {
			writeAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": buildPublicState(round)})
	}
}

// PayoutHandler retries settlement for a terminal round. Safe to call any
// number of times; a paid round is a no-op.
func PayoutHandler(rounds *store.Rounds, dispatcher *payout.Dispatcher, hub *RoundHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.PayoutHandler")
		defer span.End()

		roundID := c.Param("id")
		if _, err := loadOwnedRound(c, rounds, roundID); err != nil {
			writeAPIError(c, err)
			return
		}
		round, err := dispatcher.Dispatch(ctx, roundID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		hub.broadcast(round)
		c.JSON(http.StatusOK, gin.H{"paid": round.Paid, "payout": round.Payout, "payoutTx": round.PayoutTx})
	}
}

func loadOwnedRound(c *gin.Context, rounds *store.Rounds, roundID string) (*blackjack.Round, error) {
	if strings.TrimSpace(roundID) == "" {
		return nil, models.ErrInvalidRequest
	}
	round, err := rounds.Get(c.Request.Context(), roundID)
	if err != nil {
		return nil, err
	}
	if round.Address != addressFromContext(c) {
		return nil, models.ErrNotRoundOwner
	}
	return round, nil
}

func settlementErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	// The payout path wraps collaborator failures; sentinel kinds keep their
	// stable text, everything else is reported generically.
	for _, sentinel := range []error{models.ErrSettlementBlocked, models.ErrIllegalTransition} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "payout transfer failed; retry via the payout endpoint"
}
