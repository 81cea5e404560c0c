package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/models"
)

// Memory is the map-backed store. Rounds are cloned on the way in and out so
// callers never alias the stored state.
type Memory struct {
	mu     sync.RWMutex
	rounds map[string]*blackjack.Round
}

func NewMemory() *Memory {
	return &Memory{rounds: map[string]*blackjack.Round{}}
}

func (m *Memory) Create(ctx context.Context, r *blackjack.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[r.ID]; ok {
		return fmt.Errorf("round %s already exists", r.ID)
	}
	m.rounds[r.ID] = r.Clone()
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) (*blackjack.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rounds[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, r *blackjack.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rounds[r.ID]; !ok {
		return models.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	m.rounds[r.ID] = r.Clone()
	return nil
}

func (m *Memory) PurgeSettled(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, r := range m.rounds {
		if r.Settled() && r.UpdatedAt.Before(before) {
			delete(m.rounds, id)
			n++
		}
	}
	return n, nil
}
