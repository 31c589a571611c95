package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

// fakeQueueStore is an in-memory Store keeping enqueue order.
type fakeQueueStore struct {
	mu      sync.Mutex
	entries []*repository.QueueEntry
}

func (s *fakeQueueStore) Insert(_ context.Context, entry *repository.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeQueueStore) Delete(_ context.Context, playerID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.PlayerID == playerID && e.Mode == mode {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeQueueStore) DeleteByIDs(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *fakeQueueStore) ListByMode(_ context.Context, mode string) ([]*repository.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.QueueEntry
	for _, e := range s.entries {
		if e.Mode == mode {
			out = append(out, e)
		}
	}
	return out, nil
}

// fixedRatings serves ratings from a map, defaulting to 1000.
type fixedRatings map[string]int

func (r fixedRatings) Rating(_ context.Context, playerID string) (int, error) {
	if rating, ok := r[playerID]; ok {
		return rating, nil
	}
	return 1000, nil
}

// fakeMatchCreator records pairings and optionally fails creation.
type fakeMatchCreator struct {
	mu      sync.Mutex
	pairs   [][2]string
	started []string
	fail    bool
}

func (c *fakeMatchCreator) CreateFromQueue(_ context.Context, mode string, entries []*repository.QueueEntry) (*repository.Match, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, assert.AnError
	}
	c.pairs = append(c.pairs, [2]string{entries[0].PlayerID, entries[1].PlayerID})
	return &repository.Match{ID: "m" + entries[0].PlayerID, Mode: mode}, nil
}

func (c *fakeMatchCreator) Start(_ context.Context, matchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, matchID)
	return nil
}

func testConfig() config.QueueConfig {
	return config.QueueConfig{
		PollInterval: 5 * time.Second,
		StaleAfter:   5 * time.Minute,
		MaxRatingGap: 200,
	}
}

func newTestQueue(ratings fixedRatings) (*Manager, *fakeQueueStore, *fakeMatchCreator) {
	store := &fakeQueueStore{}
	creator := &fakeMatchCreator{}
	mgr := NewManager(store, ratings, creator, testConfig(), []string{"1v1"}, zap.NewNop())
	return mgr, store, creator
}

func TestAddRejectsDoubleQueue(t *testing.T) {
	mgr, store, _ := newTestQueue(fixedRatings{})
	ctx := context.Background()

	entry, err := mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)
	assert.Equal(t, 1000, entry.Rating)
	assert.Len(t, store.entries, 1)

	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestAddScopesQueuesByMode(t *testing.T) {
	mgr, store, _ := newTestQueue(fixedRatings{})
	ctx := context.Background()

	_, err := mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)

	// Waiting in one mode does not block joining another.
	_, err = mgr.Add(ctx, "2v2", "p0", "c0")
	require.NoError(t, err)
	assert.Len(t, store.entries, 2)

	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	// Leaving one mode leaves the other entry in place.
	require.NoError(t, mgr.Remove(ctx, "1v1", "p0"))
	_, err = mgr.Add(ctx, "2v2", "p0", "c0")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestRemove(t *testing.T) {
	mgr, store, _ := newTestQueue(fixedRatings{})
	ctx := context.Background()

	_, err := mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)

	require.NoError(t, mgr.Remove(ctx, "1v1", "p0"))
	assert.Empty(t, store.entries)

	assert.ErrorIs(t, mgr.Remove(ctx, "1v1", "p0"), ErrNotQueued)

	// Leaving frees the player to rejoin.
	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	assert.NoError(t, err)
}

func TestPollPairsWithinRatingGap(t *testing.T) {
	ratings := fixedRatings{"p0": 1000, "p1": 1500, "p2": 1090}
	mgr, _, creator := newTestQueue(ratings)
	ctx := context.Background()

	for _, id := range []string{"p0", "p1", "p2"} {
		_, err := mgr.Add(ctx, "1v1", id, "c-"+id)
		require.NoError(t, err)
	}

	mgr.PollOnce(ctx, "1v1")

	// p0 pairs with p2 (gap 90); p1 is out of range of both and waits.
	require.Len(t, creator.pairs, 1)
	assert.Equal(t, [2]string{"p0", "p2"}, creator.pairs[0])
	require.Len(t, creator.started, 1)
}

func TestPollPrefersClosestRating(t *testing.T) {
	ratings := fixedRatings{"p0": 1000, "p1": 1150, "p2": 1010}
	mgr, _, creator := newTestQueue(ratings)
	ctx := context.Background()

	for _, id := range []string{"p0", "p1", "p2"} {
		_, err := mgr.Add(ctx, "1v1", id, "c-"+id)
		require.NoError(t, err)
	}

	mgr.PollOnce(ctx, "1v1")

	require.Len(t, creator.pairs, 1)
	assert.Equal(t, [2]string{"p0", "p2"}, creator.pairs[0],
		"anchor takes the closest candidate, not the earliest")
}

func TestPollLeavesEntriesOnCreateFailure(t *testing.T) {
	mgr, store, creator := newTestQueue(fixedRatings{})
	creator.fail = true
	ctx := context.Background()

	_, err := mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)
	_, err = mgr.Add(ctx, "1v1", "p1", "c1")
	require.NoError(t, err)

	mgr.PollOnce(ctx, "1v1")

	assert.Len(t, store.entries, 2, "failed pairing must not consume entries")
	// The players are still marked queued, so rejoining is rejected.
	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestPollEvictsStaleEntries(t *testing.T) {
	mgr, store, creator := newTestQueue(fixedRatings{})
	ctx := context.Background()

	_, err := mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)
	_, err = mgr.Add(ctx, "1v1", "p1", "c1")
	require.NoError(t, err)

	// Age the first entry past the stale cutoff.
	store.mu.Lock()
	store.entries[0].EnqueuedAt = time.Now().Add(-10 * time.Minute)
	store.mu.Unlock()

	mgr.PollOnce(ctx, "1v1")

	assert.Empty(t, creator.pairs, "a stale entry must not be paired")
	require.Len(t, store.entries, 1)
	assert.Equal(t, "p1", store.entries[0].PlayerID)

	// The evicted player can queue again.
	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	mgr, store, _ := newTestQueue(fixedRatings{})
	ctx := context.Background()

	stats, err := mgr.Stats(ctx, "1v1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Depth)

	_, err = mgr.Add(ctx, "1v1", "p0", "c0")
	require.NoError(t, err)

	store.mu.Lock()
	store.entries[0].EnqueuedAt = time.Now().Add(-30 * time.Second)
	store.mu.Unlock()

	stats, err = mgr.Stats(ctx, "1v1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Depth)
	assert.Equal(t, 1000, stats.AvgRating)
	assert.GreaterOrEqual(t, stats.OldestWait, 30*time.Second)
}

func TestStartReloadsQueuedPlayers(t *testing.T) {
	mgr, store, _ := newTestQueue(fixedRatings{})
	ctx := context.Background()

	store.entries = append(store.entries, &repository.QueueEntry{
		ID: "q-old", Mode: "1v1", PlayerID: "p0", ConsoleID: "c0",
		Rating: 1000, EnqueuedAt: time.Now(),
	})

	require.NoError(t, mgr.Start(ctx))
	defer mgr.Shutdown()

	// A restart must not let a persisted entry double-queue.
	_, err := mgr.Add(ctx, "1v1", "p0", "c0")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}
