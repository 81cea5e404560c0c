package blackjack

import (
	"blackjack-house-go/backend/internal/models"
)

type Action string

const (
	ActionDeal   Action = "deal"
	ActionHit    Action = "hit"
	ActionStand  Action = "stand"
	ActionDouble Action = "double"
)

// blackjackPayout is the natural multiplier (3:2 plus stake back).
const blackjackPayout = 2.5

// Apply dispatches one player action against the round. Callers must hold the
// round's writer and must discard the round on error: Apply may leave the
// in-memory copy partially advanced when a draw fails mid-action.
func Apply(r *Round, action Action) error {
	switch action {
	case ActionDeal:
		return Deal(r)
	case ActionHit:
		return Hit(r)
	case ActionStand:
		return Stand(r)
	case ActionDouble:
		return Double(r)
	default:
		return models.ErrInvalidRequest
	}
}

// draw consumes n cards from the shoe. Availability is checked up front so a
// single draw is all-or-nothing.
func draw(r *Round, n int) ([]Card, error) {
	if r.Remaining() < n {
		return nil, models.ErrShoeExhausted
	}
	cards := r.Shoe[r.Cursor : r.Cursor+n]
	r.Cursor += n
	return cards, nil
}

// Deal starts play: player, dealer up, player, dealer hole, in that order.
// Requires the base stake to be escrow-verified. Naturals resolve the round
// immediately.
func Deal(r *Round) error {
	if r.Phase != PhaseAwaitingEscrow {
		return models.ErrIllegalTransition
	}
	if r.EscrowVerified < 1 {
		return models.ErrEscrowNotVerified
	}

	cards, err := draw(r, 4)
	if err != nil {
		return err
	}
	p1, dUp, p2, dHole := cards[0], cards[1], cards[2], cards[3]

	r.Player = []Card{p1, p2}
	r.DealerUp = []Card{dUp}
	r.DealerHole = &dHole
	r.Phase = PhasePlayer

	playerNatural := IsBlackjack(r.Player)
	dealerNatural := IsBlackjack([]Card{dUp, dHole})
	if !playerNatural && !dealerNatural {
		return nil
	}

	r.Phase = PhaseOver
	switch {
	case playerNatural && dealerNatural:
		r.Outcome = OutcomePush
		r.Payout = r.Bet
	case playerNatural:
		r.Outcome = OutcomePlayer
		r.Payout = r.Bet * blackjackPayout
	default:
		r.Outcome = OutcomeDealer
		r.Payout = 0
	}
	return nil
}

// Hit draws one card for the player; busting ends the round for the house.
func Hit(r *Round) error {
	if r.Phase != PhasePlayer {
		return models.ErrIllegalTransition
	}
	cards, err := draw(r, 1)
	if err != nil {
		return err
	}
	r.Player = append(r.Player, cards[0])
	if HandValue(r.Player).Total > 21 {
		r.Phase = PhaseOver
		r.Outcome = OutcomeDealer
		r.Payout = 0
	}
	return nil
}

// Stand ends the player turn and resolves the dealer synchronously.
func Stand(r *Round) error {
	if r.Phase != PhasePlayer {
		return models.ErrIllegalTransition
	}
	r.Phase = PhaseDealer
	return dealerPlay(r)
}

// Double is allowed once, on exactly two cards, and only after the second
// escrow step is verified. One card is drawn; unless it busts, the dealer
// plays out.
func Double(r *Round) error {
	if r.Phase != PhasePlayer {
		return models.ErrIllegalTransition
	}
	if len(r.Player) != 2 || r.Doubled {
		return models.ErrIllegalTransition
	}
	if r.EscrowVerified < 2 {
		return models.ErrEscrowNotVerified
	}

	cards, err := draw(r, 1)
	if err != nil {
		return err
	}
	r.Doubled = true
	r.Player = append(r.Player, cards[0])

	if HandValue(r.Player).Total > 21 {
		r.Phase = PhaseOver
		r.Outcome = OutcomeDealer
		r.Payout = 0
		return nil
	}
	r.Phase = PhaseDealer
	return dealerPlay(r)
}

// dealerPlay reveals the hole card and draws to the house policy: hit below
// 17, stand on any 17 including soft. The latch makes a second trigger a
// no-op.
func dealerPlay(r *Round) error {
	if r.DealerDone {
		return nil
	}
	r.DealerDone = true

	if r.DealerHole != nil {
		r.DealerUp = append(r.DealerUp, *r.DealerHole)
		r.DealerHole = nil
	}

	for {
		v := HandValue(r.DealerUp)
		if v.Total >= 17 {
			break
		}
		cards, err := draw(r, 1)
		if err != nil {
			return err
		}
		r.DealerUp = append(r.DealerUp, cards[0])
	}

	player := HandValue(r.Player).Total
	dealer := HandValue(r.DealerUp).Total

	r.Phase = PhaseOver
	switch {
	case dealer > 21 || player > dealer:
		r.Outcome = OutcomePlayer
		r.Payout = r.WagerAtRisk() * 2
	case player < dealer:
		r.Outcome = OutcomeDealer
		r.Payout = 0
	default:
		r.Outcome = OutcomePush
		r.Payout = r.WagerAtRisk()
	}
	return nil
}
