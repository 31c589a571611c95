package repository

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Match statuses.
const (
	MatchStatusQueued   = "queued"
	MatchStatusActive   = "active"
	MatchStatusFinished = "finished"
)

// Participant results.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// Match is a persisted match row. Immutable once finished.
type Match struct {
	ID        string
	Mode      string
	Status    string
	Arena     string
	Seed      int64
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

// MatchParticipant is one player's seat in a match. Result is written once
// at match end.
type MatchParticipant struct {
	MatchID   string
	PlayerID  string
	ConsoleID string
	Team      int
	Result    *string
}

// QueueEntry is a player's pending matchmaking request for one mode.
type QueueEntry struct {
	ID         string
	Mode       string
	PlayerID   string
	ConsoleID  string
	Rating     int
	EnqueuedAt time.Time
}
