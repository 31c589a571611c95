package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

var (
	// ErrAlreadyQueued is returned when a player joins a queue they are in.
	ErrAlreadyQueued = errors.New("player already queued")
	// ErrNotQueued is returned when leaving a queue the player is not in.
	ErrNotQueued = errors.New("player not queued")
)

// Store is the persistence surface the queue needs.
type Store interface {
	Insert(ctx context.Context, entry *repository.QueueEntry) error
	Delete(ctx context.Context, playerID, mode string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	ListByMode(ctx context.Context, mode string) ([]*repository.QueueEntry, error)
}

// RatingSource provides matchmaking ratings.
type RatingSource interface {
	Rating(ctx context.Context, playerID string) (int, error)
}

// MatchCreator turns paired entries into a running match.
type MatchCreator interface {
	CreateFromQueue(ctx context.Context, mode string, entries []*repository.QueueEntry) (*repository.Match, error)
	Start(ctx context.Context, matchID string) error
}

// Stats is a point-in-time view of one mode's queue.
type Stats struct {
	Mode       string        `json:"mode"`
	Depth      int           `json:"depth"`
	AvgRating  int           `json:"avgRating"`
	OldestWait time.Duration `json:"oldestWait"`
}

// Manager runs the matchmaking queues. Each mode is polled on a fixed
// schedule; entries are paired greedily, earliest joiner first, within a
// bounded rating gap.
type Manager struct {
	store   Store
	ratings RatingSource
	matches MatchCreator
	cfg     config.QueueConfig
	modes   []string
	logger  *zap.Logger

	mu     sync.Mutex
	queued map[string]bool // player id + mode -> waiting

	scheduler gocron.Scheduler
}

// NewManager creates a queue manager for the given modes.
func NewManager(store Store, ratings RatingSource, matches MatchCreator, cfg config.QueueConfig, modes []string, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		ratings: ratings,
		matches: matches,
		cfg:     cfg,
		modes:   modes,
		logger:  logger,
		queued:  make(map[string]bool),
	}
}

// Start reloads the queued working set from the store, so entries survive a
// restart, and launches the per-mode polling jobs.
func (m *Manager) Start(ctx context.Context) error {
	for _, mode := range m.modes {
		entries, err := m.store.ListByMode(ctx, mode)
		if err != nil {
			return fmt.Errorf("reload queue %s: %w", mode, err)
		}
		m.mu.Lock()
		for _, entry := range entries {
			m.queued[queueKey(entry.PlayerID, mode)] = true
		}
		m.mu.Unlock()
		if len(entries) > 0 {
			m.logger.Info("reloaded queued players",
				zap.String("mode", mode),
				zap.Int("count", len(entries)),
			)
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	m.scheduler = scheduler

	for _, mode := range m.modes {
		mode := mode
		_, err := scheduler.NewJob(
			gocron.DurationJob(m.cfg.PollInterval),
			gocron.NewTask(func() {
				m.PollOnce(ctx, mode)
			}),
		)
		if err != nil {
			return fmt.Errorf("schedule queue poll for %s: %w", mode, err)
		}
	}

	scheduler.Start()
	m.logger.Info("matchmaking queues started",
		zap.Strings("modes", m.modes),
		zap.Duration("poll_interval", m.cfg.PollInterval),
	)
	return nil
}

// Shutdown stops the polling jobs.
func (m *Manager) Shutdown() {
	if m.scheduler != nil {
		if err := m.scheduler.Shutdown(); err != nil {
			m.logger.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}
}

// Add enqueues a player for a mode. A player can hold at most one entry per
// mode; queues for different modes are independent.
func (m *Manager) Add(ctx context.Context, mode, playerID, consoleID string) (*repository.QueueEntry, error) {
	key := queueKey(playerID, mode)
	m.mu.Lock()
	if m.queued[key] {
		m.mu.Unlock()
		return nil, ErrAlreadyQueued
	}
	m.queued[key] = true
	m.mu.Unlock()

	rating, err := m.ratings.Rating(ctx, playerID)
	if err != nil {
		m.forget(playerID, mode)
		return nil, fmt.Errorf("load rating: %w", err)
	}

	entry := &repository.QueueEntry{
		ID:         uuid.NewString(),
		Mode:       mode,
		PlayerID:   playerID,
		ConsoleID:  consoleID,
		Rating:     rating,
		EnqueuedAt: time.Now(),
	}
	if err := m.store.Insert(ctx, entry); err != nil {
		m.forget(playerID, mode)
		return nil, fmt.Errorf("enqueue: %w", err)
	}

	m.logger.Info("player queued",
		zap.String("player_id", playerID),
		zap.String("mode", mode),
		zap.Int("rating", rating),
	)
	return entry, nil
}

// Remove dequeues a player from a mode.
func (m *Manager) Remove(ctx context.Context, mode, playerID string) error {
	err := m.store.Delete(ctx, playerID, mode)
	if errors.Is(err, repository.ErrNotFound) {
		m.forget(playerID, mode)
		return ErrNotQueued
	}
	if err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}
	m.forget(playerID, mode)

	m.logger.Info("player dequeued",
		zap.String("player_id", playerID),
		zap.String("mode", mode),
	)
	return nil
}

// Stats reports the current depth and longest wait for a mode.
func (m *Manager) Stats(ctx context.Context, mode string) (*Stats, error) {
	entries, err := m.store.ListByMode(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	stats := &Stats{Mode: mode, Depth: len(entries)}
	if len(entries) > 0 {
		total := 0
		for _, entry := range entries {
			total += entry.Rating
		}
		stats.AvgRating = total / len(entries)
		stats.OldestWait = time.Since(entries[0].EnqueuedAt)
	}
	return stats, nil
}

// PollOnce runs one matchmaking pass for a mode: evict stale entries, then
// pair and start matches. The scheduler calls this on every tick.
func (m *Manager) PollOnce(ctx context.Context, mode string) {
	entries, err := m.store.ListByMode(ctx, mode)
	if err != nil {
		m.logger.Error("queue poll failed", zap.String("mode", mode), zap.Error(err))
		return
	}

	entries = m.evictStale(ctx, mode, entries)

	for _, pair := range m.pair(entries) {
		record, err := m.matches.CreateFromQueue(ctx, mode, pair[:])
		if err != nil {
			// Entries stay queued and are retried on the next pass.
			m.logger.Error("pairing failed",
				zap.String("mode", mode),
				zap.String("player_0", pair[0].PlayerID),
				zap.String("player_1", pair[1].PlayerID),
				zap.Error(err),
			)
			continue
		}
		m.forget(pair[0].PlayerID, mode)
		m.forget(pair[1].PlayerID, mode)

		if err := m.matches.Start(ctx, record.ID); err != nil {
			m.logger.Error("match start failed",
				zap.String("match_id", record.ID),
				zap.Error(err),
			)
		}
	}
}

// evictStale drops entries that have waited past the configured limit and
// returns the survivors.
func (m *Manager) evictStale(ctx context.Context, mode string, entries []*repository.QueueEntry) []*repository.QueueEntry {
	if m.cfg.StaleAfter <= 0 {
		return entries
	}
	cutoff := time.Now().Add(-m.cfg.StaleAfter)

	var stale []string
	fresh := entries[:0]
	for _, entry := range entries {
		if entry.EnqueuedAt.Before(cutoff) {
			stale = append(stale, entry.ID)
			m.forget(entry.PlayerID, mode)
		} else {
			fresh = append(fresh, entry)
		}
	}
	if len(stale) == 0 {
		return entries
	}

	if err := m.store.DeleteByIDs(ctx, stale); err != nil {
		m.logger.Error("stale eviction failed", zap.String("mode", mode), zap.Error(err))
	} else {
		m.logger.Info("evicted stale queue entries",
			zap.String("mode", mode),
			zap.Int("count", len(stale)),
		)
	}
	return fresh
}

// pair matches entries greedily. The earliest joiner is paired with the
// candidate closest in rating within the allowed gap; ties go to the earlier
// joiner. Entries are assumed ordered by enqueue time.
func (m *Manager) pair(entries []*repository.QueueEntry) [][2]*repository.QueueEntry {
	var pairs [][2]*repository.QueueEntry
	used := make([]bool, len(entries))

	for i, anchor := range entries {
		if used[i] {
			continue
		}
		best := -1
		bestGap := m.cfg.MaxRatingGap + 1
		for j := i + 1; j < len(entries); j++ {
			if used[j] {
				continue
			}
			gap := anchor.Rating - entries[j].Rating
			if gap < 0 {
				gap = -gap
			}
			if gap < bestGap {
				best = j
				bestGap = gap
			}
		}
		if best >= 0 {
			used[i] = true
			used[best] = true
			pairs = append(pairs, [2]*repository.QueueEntry{anchor, entries[best]})
		}
	}
	return pairs
}

func (m *Manager) forget(playerID, mode string) {
	m.mu.Lock()
	delete(m.queued, queueKey(playerID, mode))
	m.mu.Unlock()
}

func queueKey(playerID, mode string) string {
	return playerID + "/" + mode
}
