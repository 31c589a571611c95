package repository

import (
	"context"
	"fmt"
)

// QueueRepository persists matchmaking queue entries.
type QueueRepository struct {
	db *DB
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Insert stores a queue entry.
func (r *QueueRepository) Insert(ctx context.Context, entry *QueueEntry) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO queue_entries (id, mode, player_id, console_id, rating, enqueued_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Mode, entry.PlayerID, entry.ConsoleID, entry.Rating, entry.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// Delete removes a player's entry for a mode. Returns ErrNotFound when no
// entry exists.
func (r *QueueRepository) Delete(ctx context.Context, playerID, mode string) error {
	tag, err := r.db.pool.Exec(ctx,
		`DELETE FROM queue_entries WHERE player_id = $1 AND mode = $2`,
		playerID, mode,
	)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByIDs removes a set of entries, typically evicted stale ones.
func (r *QueueRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := r.db.pool.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete queue entry %s: %w", id, err)
		}
	}
	return nil
}

// ListByMode loads a mode's entries ordered by enqueue time.
func (r *QueueRepository) ListByMode(ctx context.Context, mode string) ([]*QueueEntry, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, mode, player_id, console_id, rating, enqueued_at
		 FROM queue_entries WHERE mode = $1 ORDER BY enqueued_at`, mode)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.ID, &e.Mode, &e.PlayerID, &e.ConsoleID, &e.Rating, &e.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Modes returns the distinct modes with at least one queued entry.
func (r *QueueRepository) Modes(ctx context.Context) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT DISTINCT mode FROM queue_entries`)
	if err != nil {
		return nil, fmt.Errorf("list queue modes: %w", err)
	}
	defer rows.Close()

	var modes []string
	for rows.Next() {
		var mode string
		if err := rows.Scan(&mode); err != nil {
			return nil, fmt.Errorf("scan mode: %w", err)
		}
		modes = append(modes, mode)
	}
	return modes, rows.Err()
}
