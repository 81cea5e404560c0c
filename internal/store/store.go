// Package store owns round persistence. The store is an explicit, injected
// dependency; nothing in the engine reaches for a package-level map.
package store

import (
	"context"
	"sync"
	"time"

	"blackjack-house-go/backend/internal/game/blackjack"
)

// Store persists rounds keyed by ID. Load on an unknown ID returns
// models.ErrNotFound. Implementations must hand out copies: a loaded round is
// the caller's to mutate and is only visible to others after Save.
type Store interface {
	Create(ctx context.Context, r *blackjack.Round) error
	Load(ctx context.Context, id string) (*blackjack.Round, error)
	Save(ctx context.Context, r *blackjack.Round) error

	// PurgeSettled removes rounds that finished (and were paid if owed)
	// before the cutoff. Returns the number removed.
	PurgeSettled(ctx context.Context, before time.Time) (int, error)
}

// Rounds wraps a Store with per-round write serialization: Update runs
// load→mutate→save as one unit, and two updates for the same round ID never
// interleave. Distinct rounds proceed independently.
type Rounds struct {
	s Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRounds(s Store) *Rounds {
	return &Rounds{s: s, locks: map[string]*sync.Mutex{}}
}

func (r *Rounds) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Create registers a new round.
func (r *Rounds) Create(ctx context.Context, round *blackjack.Round) error {
	return r.s.Create(ctx, round)
}

// Get returns a snapshot of the round without taking the writer.
func (r *Rounds) Get(ctx context.Context, id string) (*blackjack.Round, error) {
	return r.s.Load(ctx, id)
}

// Update loads the round, applies fn, and saves, all under the round's
// writer. If fn errors the working copy is discarded and nothing is
// persisted.
func (r *Rounds) Update(ctx context.Context, id string, fn func(*blackjack.Round) error) (*blackjack.Round, error) {
	l := r.lockFor(id)
	l.Lock()
	defer l.Unlock()

	round, err := r.s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(round); err != nil {
		return nil, err
	}
	if err := r.s.Save(ctx, round); err != nil {
		return nil, err
	}
	return round, nil
}

// PurgeSettled forwards to the backing store. Lock entries for purged IDs
// are left in place; reclaiming them races with an in-flight lockFor, and a
// bare mutex per historical round is cheap.
func (r *Rounds) PurgeSettled(ctx context.Context, before time.Time) (int, error) {
	return r.s.PurgeSettled(ctx, before)
}
