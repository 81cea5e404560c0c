// Package escrow gates game actions on proof of fund commitment. The actual
// chain lookup is delegated to the ledger collaborator; this package owns the
// memo convention and the monotonic per-round step counter.
package escrow

import (
	"context"
	"fmt"

	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/ledger"
	"blackjack-house-go/backend/internal/models"
	"blackjack-house-go/backend/internal/store"
)

// Proof is what a player offers for a step: at most a transaction ID. Without
// one the finder falls back to memo matching.
type Proof struct {
	TxID string
}

// VerificationError is a definitive non-match from the chain check.
// Reason is one of mismatch, amount, memo, pending.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "escrow not verified: " + e.Reason
}

func (e *VerificationError) Is(target error) bool {
	return target == models.ErrUpstreamVerification
}

type Gate struct {
	finder ledger.TransferFinder
	house  string
	prefix string
}

// NewGate builds a gate expecting transfers to houseAddress with memos under
// prefix.
func NewGate(finder ledger.TransferFinder, houseAddress, memoPrefix string) *Gate {
	return &Gate{finder: finder, house: houseAddress, prefix: memoPrefix}
}

// Memo binds a commitment to one round and one step, so a single payment can
// never be replayed as proof across rounds or steps.
func (g *Gate) Memo(roundID string, step int) string {
	suffix := "1x"
	if step == 2 {
		suffix = "2x"
	}
	return fmt.Sprintf("%s:%s:%s", g.prefix, roundID, suffix)
}

// Intent describes the transfer a player must make for a step.
type Intent struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Memo   string  `json:"memo"`
}

func (g *Gate) Intent(r *blackjack.Round, step int) Intent {
	return Intent{To: g.house, Amount: r.Bet, Memo: g.Memo(r.ID, step)}
}

// Verify confirms escrow step 1 or 2 for the round and returns the resulting
// counter. Idempotent: a step already at or below the counter succeeds
// without another chain call. The chain lookup runs outside the round's
// writer; only the counter bump is under it, re-checked for replays. Failure
// leaves the round untouched.
func (g *Gate) Verify(ctx context.Context, rounds *store.Rounds, roundID string, step int, proof Proof) (int, error) {
	if step != 1 && step != 2 {
		return 0, models.ErrInvalidRequest
	}

	snapshot, err := rounds.Get(ctx, roundID)
	if err != nil {
		return 0, err
	}
	if snapshot.EscrowVerified >= step {
		return snapshot.EscrowVerified, nil
	}
	// Steps confirm in order; the double stake cannot stand in for the base.
	if step == 2 && snapshot.EscrowVerified < 1 {
		return snapshot.EscrowVerified, models.ErrInvalidRequest
	}

	txID, err := g.check(ctx, snapshot, step, proof)
	if err != nil {
		return snapshot.EscrowVerified, err
	}

	updated, err := rounds.Update(ctx, roundID, func(r *blackjack.Round) error {
		if r.EscrowVerified >= step {
			return nil
		}
		r.EscrowVerified = step
		switch step {
		case 1:
			r.EscrowTx1 = txID
		case 2:
			r.EscrowTx2 = txID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated.EscrowVerified, nil
}

// check performs the chain-side match. It mutates nothing.
func (g *Gate) check(ctx context.Context, r *blackjack.Round, step int, proof Proof) (string, error) {
	memo := g.Memo(r.ID, step)
	tx, err := g.finder.FindTransfer(ctx, ledger.TransferQuery{
		TxID:   proof.TxID,
		From:   r.Address,
		To:     g.house,
		Amount: r.Bet,
		Memo:   memo,
	})
	if err != nil {
		return "", fmt.Errorf("escrow lookup: %w", err)
	}
	switch {
	case tx == nil, tx.From != r.Address, tx.To != g.house:
		return "", &VerificationError{Reason: "mismatch"}
	case tx.Amount != r.Bet:
		return "", &VerificationError{Reason: "amount"}
	case tx.Memo != memo:
		return "", &VerificationError{Reason: "memo"}
	case !tx.Confirmed:
		return "", &VerificationError{Reason: "pending"}
	}
	return tx.ID, nil
}
