package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-house-go/backend/internal/database"
	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/models"
)

func testRound(id string) *blackjack.Round {
	r := blackjack.NewRound("dev_addr", 10, blackjack.BuildShoe(1), "seed", "hash", "client")
	if id != "" {
		r.ID = id
	}
	return r
}

// storeUnderTest runs the same battery against each backend.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": NewSQLite(db),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := testRound("")
			require.NoError(t, s.Create(ctx, r))

			got, err := s.Load(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, r.ID, got.ID)
			assert.Equal(t, r.Address, got.Address)
			assert.Len(t, got.Shoe, 52)
			assert.Equal(t, blackjack.PhaseAwaitingEscrow, got.Phase)

			got.Phase = blackjack.PhasePlayer
			got.Cursor = 4
			require.NoError(t, s.Save(ctx, got))

			again, err := s.Load(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, blackjack.PhasePlayer, again.Phase)
			assert.Equal(t, 4, again.Cursor)
		})
	}
}

func TestStoreUnknownID(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Load(ctx, "nope")
			assert.ErrorIs(t, err, models.ErrNotFound)

			err = s.Save(ctx, testRound("nope"))
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}
}

func TestStoreLoadReturnsCopy(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := testRound("")
			require.NoError(t, s.Create(ctx, r))

			a, err := s.Load(ctx, r.ID)
			require.NoError(t, err)
			a.Cursor = 99
			a.Shoe[0].Rank = "X"

			b, err := s.Load(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, b.Cursor, "unsaved mutation must not leak")
			assert.NotEqual(t, blackjack.Rank("X"), b.Shoe[0].Rank)
		})
	}
}

func TestStorePurgeSettled(t *testing.T) {
	for name, s := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			settled := testRound("settled")
			settled.Phase = blackjack.PhaseOver
			settled.Payout = 0
			require.NoError(t, s.Create(ctx, settled))
			require.NoError(t, s.Save(ctx, settled))

			unpaid := testRound("unpaid")
			unpaid.Phase = blackjack.PhaseOver
			unpaid.Payout = 20
			require.NoError(t, s.Create(ctx, unpaid))
			require.NoError(t, s.Save(ctx, unpaid))

			live := testRound("live")
			require.NoError(t, s.Create(ctx, live))
			require.NoError(t, s.Save(ctx, live))

			n, err := s.PurgeSettled(ctx, time.Now().UTC().Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = s.Load(ctx, "settled")
			assert.ErrorIs(t, err, models.ErrNotFound)
			_, err = s.Load(ctx, "unpaid")
			assert.NoError(t, err, "unpaid winnings survive the purge")
			_, err = s.Load(ctx, "live")
			assert.NoError(t, err)
		})
	}
}

func TestRoundsUpdateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	rounds := NewRounds(NewMemory())
	r := testRound("r1")
	require.NoError(t, rounds.Create(ctx, r))

	boom := errors.New("boom")
	_, err := rounds.Update(ctx, "r1", func(r *blackjack.Round) error {
		r.Cursor = 40
		r.Phase = blackjack.PhaseOver
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := rounds.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cursor)
	assert.Equal(t, blackjack.PhaseAwaitingEscrow, got.Phase)
}

func TestRoundsUpdateSerializes(t *testing.T) {
	ctx := context.Background()
	rounds := NewRounds(NewMemory())
	require.NoError(t, rounds.Create(ctx, testRound("r1")))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rounds.Update(ctx, "r1", func(r *blackjack.Round) error {
				r.Cursor++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := rounds.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, workers, got.Cursor, "every increment must land")
}

func TestRoundsUpdateUnknownID(t *testing.T) {
	rounds := NewRounds(NewMemory())
	_, err := rounds.Update(context.Background(), "nope", func(r *blackjack.Round) error {
		return nil
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	r := testRound("dup")
	require.NoError(t, m.Create(ctx, r))
	err := m.Create(ctx, r)
	require.Error(t, err)
	assert.Contains(t, fmt.Sprintf("%v", err), "already exists")
}
