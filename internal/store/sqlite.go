package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blackjack-house-go/backend/internal/game/blackjack"
	"blackjack-house-go/backend/internal/models"
)

// SQLite persists rounds as JSON state blobs with a few queryable columns.
// The blob is authoritative; the columns exist for the purge predicate and
// for operators poking at the database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Create(ctx context.Context, r *blackjack.Round) error {
	state, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (id, address, phase, payout, paid, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Address, string(r.Phase), r.Payout, r.Paid, string(state), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (*blackjack.Round, error) {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM rounds WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load round: %w", err)
	}
	var r blackjack.Round
	if err := json.Unmarshal([]byte(state), &r); err != nil {
		return nil, fmt.Errorf("unmarshal round %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLite) Save(ctx context.Context, r *blackjack.Round) error {
	r.UpdatedAt = time.Now().UTC()
	state, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE rounds SET phase = ?, payout = ?, paid = ?, state = ?, updated_at = ?
		WHERE id = ?`,
		string(r.Phase), r.Payout, r.Paid, string(state), r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *SQLite) PurgeSettled(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rounds
		WHERE phase = 'over' AND (payout = 0 OR paid = 1) AND updated_at < ?`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("purge rounds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge rounds: %w", err)
	}
	return int(n), nil
}
