package blackjack

import (
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseAwaitingEscrow Phase = "awaiting_escrow"
	PhasePlayer         Phase = "player"
	PhaseDealer         Phase = "dealer"
	PhaseOver           Phase = "over"
)

type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePlayer Outcome = "player"
	OutcomeDealer Outcome = "dealer"
	OutcomePush   Outcome = "push"
)

// Round is the authoritative aggregate for a single hand against the house.
// It is mutated only through the state machine and the escrow gate, under the
// store's per-round writer; once Phase is over only Paid may still change.
type Round struct {
	ID      string  `json:"id"`
	Address string  `json:"address"`
	Bet     float64 `json:"bet"`
	Doubled bool    `json:"doubled"`
	Phase   Phase   `json:"phase"`

	Shoe   []Card `json:"shoe"`
	Cursor int    `json:"cursor"`

	Player     []Card `json:"player"`
	DealerUp   []Card `json:"dealerUp"`
	DealerHole *Card  `json:"dealerHole,omitempty"`

	ServerSeed string `json:"serverSeed"`
	ShoeHash   string `json:"shoeHash"`
	ClientSeed string `json:"clientSeed"`

	// EscrowVerified counts confirmed stake commitments: 1 for the base bet,
	// 2 once the double is funded. Monotonic.
	EscrowVerified int    `json:"escrowVerified"`
	EscrowTx1      string `json:"escrowTx1,omitempty"`
	EscrowTx2      string `json:"escrowTx2,omitempty"`

	Outcome  Outcome `json:"outcome"`
	Payout   float64 `json:"payout"`
	Paid     bool    `json:"paid"`
	PayoutTx string  `json:"payoutTx,omitempty"`

	// DealerDone latches once dealer resolution has run, so a replayed stand
	// cannot trigger the draw loop twice.
	DealerDone bool `json:"dealerDone"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRound creates a round awaiting its first escrow step. The shoe must
// already be shuffled; serverSeed is the secret whose commitment is shoeHash.
func NewRound(address string, bet float64, shoe []Card, serverSeed, shoeHash, clientSeed string) *Round {
	now := time.Now().UTC()
	return &Round{
		ID:         uuid.New().String(),
		Address:    address,
		Bet:        bet,
		Phase:      PhaseAwaitingEscrow,
		Shoe:       shoe,
		ServerSeed: serverSeed,
		ShoeHash:   shoeHash,
		ClientSeed: clientSeed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Remaining reports how many cards are left in the shoe.
func (r *Round) Remaining() int {
	return len(r.Shoe) - r.Cursor
}

// RequiredEscrowSteps is the commitment count the wager structure demands
// before winnings may be released.
func (r *Round) RequiredEscrowSteps() int {
	if r.Doubled {
		return 2
	}
	return 1
}

// WagerAtRisk is the total stake escrowed with the house for this round.
func (r *Round) WagerAtRisk() float64 {
	if r.Doubled {
		return r.Bet * 2
	}
	return r.Bet
}

// Settled reports whether nothing remains owed on the round.
func (r *Round) Settled() bool {
	return r.Phase == PhaseOver && (r.Payout == 0 || r.Paid)
}

// Clone returns a deep copy. Stores hand out clones so a failed action can be
// discarded without touching the saved round.
func (r *Round) Clone() *Round {
	cp := *r
	cp.Shoe = append([]Card(nil), r.Shoe...)
	cp.Player = append([]Card(nil), r.Player...)
	cp.DealerUp = append([]Card(nil), r.DealerUp...)
	if r.DealerHole != nil {
		hole := *r.DealerHole
		cp.DealerHole = &hole
	}
	return &cp
}
