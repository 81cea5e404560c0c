package handlers

import (
	"time"

	"blackjack-house-go/backend/internal/game/blackjack"
)

// PublicState is the projection of a round that is safe to show a client.
// While the player is acting, the dealer's hole card and the server seed stay
// hidden; both are revealed once the hole card turns, so the shuffle can be
// audited against the published shoe hash.
type PublicState struct {
	ID      string          `json:"id"`
	Address string          `json:"address"`
	Bet     float64         `json:"bet"`
	Doubled bool            `json:"doubled"`
	Phase   blackjack.Phase `json:"phase"`

	ShoeHash   string `json:"shoeHash"`
	ClientSeed string `json:"clientSeed"`
	ServerSeed string `json:"serverSeed,omitempty"`

	Player      []blackjack.Card `json:"player"`
	PlayerValue blackjack.Value  `json:"playerValue"`
	Dealer      []blackjack.Card `json:"dealer"`
	DealerValue blackjack.Value  `json:"dealerValue"`

	EscrowVerified int `json:"escrowVerified"`

	Outcome   *blackjack.Outcome `json:"outcome"`
	Payout    float64            `json:"payout"`
	Paid      bool               `json:"paid"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func buildPublicState(r *blackjack.Round) PublicState {
	dealer := append([]blackjack.Card(nil), r.DealerUp...)
	serverSeed := ""
	if r.Phase != blackjack.PhasePlayer && r.Phase != blackjack.PhaseAwaitingEscrow {
		serverSeed = r.ServerSeed
		if r.DealerHole != nil {
			dealer = append(dealer, *r.DealerHole)
		}
	}

	var outcome *blackjack.Outcome
	if r.Outcome != blackjack.OutcomeNone {
		o := r.Outcome
		outcome = &o
	}

	return PublicState{
		ID:             r.ID,
		Address:        r.Address,
		Bet:            r.Bet,
		Doubled:        r.Doubled,
		Phase:          r.Phase,
		ShoeHash:       r.ShoeHash,
		ClientSeed:     r.ClientSeed,
		ServerSeed:     serverSeed,
		Player:         append([]blackjack.Card(nil), r.Player...),
		PlayerValue:    blackjack.HandValue(r.Player),
		Dealer:         dealer,
		DealerValue:    blackjack.HandValue(dealer),
		EscrowVerified: r.EscrowVerified,
		Outcome:        outcome,
		Payout:         r.Payout,
		Paid:           r.Paid,
		UpdatedAt:      r.UpdatedAt,
	}
}
