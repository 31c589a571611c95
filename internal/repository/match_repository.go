package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// MatchRepository persists match and participant lifecycle rows.
type MatchRepository struct {
	db *DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateFromQueue inserts a match plus its participants and deletes the
// consumed queue entries in one transaction. If any consumed entry has
// already been deleted by a concurrent pairing, the whole transaction rolls
// back, so no entry can ever be matched twice.
func (r *MatchRepository) CreateFromQueue(ctx context.Context, match *Match, participants []*MatchParticipant, queueEntryIDs []string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO matches (id, mode, status, arena, seed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		match.ID, match.Mode, match.Status, match.Arena, match.Seed, match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for _, p := range participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO match_participants (match_id, player_id, console_id, team)
			 VALUES ($1, $2, $3, $4)`,
			p.MatchID, p.PlayerID, p.ConsoleID, p.Team,
		)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	for _, entryID := range queueEntryIDs {
		tag, err := tx.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, entryID)
		if err != nil {
			return fmt.Errorf("delete queue entry: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("queue entry %s already consumed: %w", entryID, ErrNotFound)
		}
	}

	return tx.Commit(ctx)
}

// MarkActive transitions a match to active with its start timestamp.
func (r *MatchRepository) MarkActive(ctx context.Context, matchID string, startedAt time.Time) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE matches SET status = $1, started_at = $2 WHERE id = $3`,
		MatchStatusActive, startedAt, matchID,
	)
	if err != nil {
		return fmt.Errorf("mark match active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Finish writes the final status and per-participant results. Results that
// were already written are left untouched so a retried finish stays
// idempotent.
func (r *MatchRepository) Finish(ctx context.Context, matchID string, endedAt time.Time, results map[string]string) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE matches SET status = $1, ended_at = $2 WHERE id = $3 AND status <> $1`,
		MatchStatusFinished, endedAt, matchID,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}

	for playerID, result := range results {
		_, err = tx.Exec(ctx,
			`UPDATE match_participants SET result = $1
			 WHERE match_id = $2 AND player_id = $3 AND result IS NULL`,
			result, matchID, playerID,
		)
		if err != nil {
			return fmt.Errorf("write participant result: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Get loads one match by id.
func (r *MatchRepository) Get(ctx context.Context, matchID string) (*Match, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT id, mode, status, arena, seed, created_at, started_at, ended_at
		 FROM matches WHERE id = $1`, matchID)

	var m Match
	err := row.Scan(&m.ID, &m.Mode, &m.Status, &m.Arena, &m.Seed, &m.CreatedAt, &m.StartedAt, &m.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load match: %w", err)
	}
	return &m, nil
}

// Participants loads a match's participants ordered by team.
func (r *MatchRepository) Participants(ctx context.Context, matchID string) ([]*MatchParticipant, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT match_id, player_id, console_id, team, result
		 FROM match_participants WHERE match_id = $1 ORDER BY team`, matchID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	var participants []*MatchParticipant
	for rows.Next() {
		var p MatchParticipant
		if err := rows.Scan(&p.MatchID, &p.PlayerID, &p.ConsoleID, &p.Team, &p.Result); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}
