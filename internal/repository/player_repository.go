package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DefaultRating is assigned to players with no rating row yet.
const DefaultRating = 1000

// PlayerRepository reads player profile data used by matchmaking.
type PlayerRepository struct {
	db *DB
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Rating returns a player's matchmaking rating, or DefaultRating for players
// who have never finished a rated match.
func (r *PlayerRepository) Rating(ctx context.Context, playerID string) (int, error) {
	var rating int
	err := r.db.pool.QueryRow(ctx,
		`SELECT rating FROM player_ratings WHERE player_id = $1`, playerID,
	).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load rating: %w", err)
	}
	return rating, nil
}
