package handlers

import (
	"errors"
	"log"
	"net/http"

	"blackjack-house-go/backend/internal/escrow"
	"blackjack-house-go/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// writeAPIError maps sentinel errors to statuses. Raw internal errors are
// logged, never echoed.
func writeAPIError(c *gin.Context, err error) {
	if err == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var verr *escrow.VerificationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "escrow not verified", "reason": verr.Reason})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, models.ErrNotRoundOwner):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not your round"})
	case errors.Is(err, models.ErrIllegalTransition):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "action not legal in current phase"})
	case errors.Is(err, models.ErrEscrowNotVerified):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "escrow not verified"})
	case errors.Is(err, models.ErrShoeExhausted):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "shoe exhausted"})
	case errors.Is(err, models.ErrSettlementBlocked):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "settlement blocked: escrow insufficient"})
	case errors.Is(err, models.ErrUpstreamVerification):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "escrow not verified"})
	default:
		log.Printf("internal error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
