package models

import "errors"

// Error kinds recovered at the action boundary. None of them leave a round
// partially mutated; the store discards the working copy when an action fails.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrIllegalTransition    = errors.New("action not legal in current phase")
	ErrEscrowNotVerified    = errors.New("escrow not verified")
	ErrShoeExhausted        = errors.New("shoe exhausted")
	ErrSettlementBlocked    = errors.New("settlement blocked: escrow insufficient")
	ErrUpstreamVerification = errors.New("upstream verification failed")
	ErrNotRoundOwner        = errors.New("not the round owner")
)
