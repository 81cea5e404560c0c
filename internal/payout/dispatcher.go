// Package payout releases winnings exactly once per round.
package payout

import (
	"context"
	"fmt"

	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/models"
	"blackjack-house-go/backend/internal/store"
)

type payer interface {
	Pay(ctx context.Context, to string, amount float64, memo string) (string, error)
}

type Dispatcher struct {
	payer  payer
	rounds *store.Rounds
}

func NewDispatcher(p payer, rounds *store.Rounds) *Dispatcher {
	return &Dispatcher{payer: p, rounds: rounds}
}

// Dispatch settles a terminal round. Rounds with nothing owed (dealer wins,
// already-paid rounds) are a successful no-op, which is what makes external
// retries safe. The transfer attempt and the paid flag flip happen inside one
// Update window, so a concurrent dispatch cannot pay twice; a failed transfer
// aborts the save and leaves the round retryable.
func (d *Dispatcher) Dispatch(ctx context.Context, roundID string) (*blackjack.Round, error) {
	return d.rounds.Update(ctx, roundID, func(r *blackjack.Round) error {
		if r.Phase != blackjack.PhaseOver {
			return models.ErrIllegalTransition
		}
		if r.Paid || r.Payout <= 0 {
			return nil
		}
		// Defense against paying an under-funded round: a doubled wager
		// needs both steps confirmed before anything is released.
		if r.EscrowVerified < r.RequiredEscrowSteps() {
			return models.ErrSettlementBlocked
		}
		txID, err := d.payer.Pay(ctx, r.Address, r.Payout, "payout:"+r.ID)
		if err != nil {
			return fmt.Errorf("payout transfer: %w", err)
		}
		r.Paid = true
		r.PayoutTx = txID
		return nil
	})
}
