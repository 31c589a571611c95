package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/match"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/queue"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

// memStore backs both the match and queue stores for a full in-process run.
type memStore struct {
	mu           sync.Mutex
	matches      map[string]*repository.Match
	participants map[string][]*repository.MatchParticipant
	queue        []*repository.QueueEntry
	results      map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		matches:      make(map[string]*repository.Match),
		participants: make(map[string][]*repository.MatchParticipant),
		results:      make(map[string]map[string]string),
	}
}

func (s *memStore) CreateFromQueue(_ context.Context, m *repository.Match, ps []*repository.MatchParticipant, entryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// All-or-nothing, like the real transaction: verify every entry is
	// still present before consuming any of them.
	consume := make(map[string]bool, len(entryIDs))
	for _, id := range entryIDs {
		found := false
		for _, e := range s.queue {
			if e.ID == id {
				found = true
				break
			}
		}
		if !found {
			return repository.ErrNotFound
		}
		consume[id] = true
	}
	kept := s.queue[:0]
	for _, e := range s.queue {
		if !consume[e.ID] {
			kept = append(kept, e)
		}
	}
	s.queue = kept
	s.matches[m.ID] = m
	s.participants[m.ID] = ps
	return nil
}

func (s *memStore) MarkActive(_ context.Context, matchID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return repository.ErrNotFound
	}
	m.Status = repository.MatchStatusActive
	m.StartedAt = &startedAt
	return nil
}

func (s *memStore) Finish(_ context.Context, matchID string, endedAt time.Time, results map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.matches[matchID]; ok {
		m.Status = repository.MatchStatusFinished
		m.EndedAt = &endedAt
	}
	s.results[matchID] = results
	return nil
}

func (s *memStore) Get(_ context.Context, matchID string) (*repository.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (s *memStore) Participants(_ context.Context, matchID string) ([]*repository.MatchParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[matchID], nil
}

func (s *memStore) Insert(_ context.Context, entry *repository.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, entry)
	return nil
}

func (s *memStore) Delete(_ context.Context, playerID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.queue {
		if e.PlayerID == playerID && e.Mode == mode {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) DeleteByIDs(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.queue[:0]
	for _, e := range s.queue {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	s.queue = kept
	return nil
}

func (s *memStore) ListByMode(_ context.Context, mode string) ([]*repository.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.QueueEntry
	for _, e := range s.queue {
		if e.Mode == mode {
			out = append(out, e)
		}
	}
	return out, nil
}

// flatRatings gives every player the same rating so any pair is legal.
type flatRatings struct{}

func (flatRatings) Rating(context.Context, string) (int, error) { return 1000, nil }

// recorder captures the push stream a client would see.
type recorder struct {
	mu       sync.Mutex
	messages []pushed
}

type pushed struct {
	matchID string
	msgType string
	payload any
}

func (r *recorder) Subscribe(string, string) {}

func (r *recorder) Unsubscribe(string) {}

func (r *recorder) BroadcastToMatch(matchID, msgType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, pushed{matchID, msgType, payload})
}

func (r *recorder) byType(msgType string) []pushed {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pushed
	for _, msg := range r.messages {
		if msg.msgType == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func queueConfig() config.QueueConfig {
	return config.QueueConfig{
		PollInterval: time.Second,
		StaleAfter:   5 * time.Minute,
		MaxRatingGap: 200,
	}
}

// TestQueueToMatchEndFlow drives the whole pipeline in process: two players
// join the queue, one poll pairs them into a live match, the current player
// plays a card during the main phase, and a concession finishes the match
// with persisted results.
func TestQueueToMatchEndFlow(t *testing.T) {
	store := newMemStore()
	pushes := &recorder{}
	logger := zap.NewNop()
	ctx := context.Background()

	matchMgr := match.NewManager(store, pushes, catalog.Default(), game.DefaultRules(), time.Hour, logger)
	queueMgr := queue.NewManager(store, flatRatings{}, matchMgr, queueConfig(), []string{"1v1"}, logger)

	_, err := queueMgr.Add(ctx, "1v1", "alice", "console-a")
	require.NoError(t, err)
	_, err = queueMgr.Add(ctx, "1v1", "bob", "console-b")
	require.NoError(t, err)

	queueMgr.PollOnce(ctx, "1v1")

	// The queue drained into exactly one active match.
	require.Equal(t, 1, matchMgr.ActiveCount())
	assert.Empty(t, store.queue)

	matchID, ok := matchMgr.MatchFor("alice")
	require.True(t, ok)
	record, err := store.Get(ctx, matchID)
	require.NoError(t, err)
	assert.Equal(t, repository.MatchStatusActive, record.Status)

	// The opening state push carries turn 1, start phase.
	applies := pushes.byType(match.MsgStateApply)
	require.NotEmpty(t, applies)
	opening := applies[0].payload.(*game.Patch)
	assert.Equal(t, 1, opening.Turn)
	assert.Equal(t, "start", opening.Phase)

	// Into the main phase; the first joiner opens on team 0.
	_, err = matchMgr.ForceAdvancePhase(matchID)
	require.NoError(t, err)

	patch, err := matchMgr.PlayCard(matchID, "alice", "ember-whelp", "play", "")
	require.NoError(t, err)
	require.NotNil(t, patch.PlayedCard)
	assert.Equal(t, "ember-whelp", patch.PlayedCard.CardID)
	require.Len(t, pushes.byType(match.MsgCardPlayed), 1)

	// Bob cannot act out of turn.
	_, err = matchMgr.PlayCard(matchID, "bob", "tidecaller", "play", "")
	assert.ErrorIs(t, err, game.ErrNotYourTurn)

	// Bob concedes; the match finishes once with persisted results.
	require.NoError(t, matchMgr.Concede(matchID, "bob"))

	ends := pushes.byType(match.MsgMatchEnd)
	require.Len(t, ends, 1)
	end := ends[0].payload.(match.MatchEndPayload)
	assert.Equal(t, 0, end.WinnerTeam)

	store.mu.Lock()
	results := store.results[matchID]
	finished := store.matches[matchID].Status
	store.mu.Unlock()
	assert.Equal(t, repository.ResultWin, results["alice"])
	assert.Equal(t, repository.ResultLoss, results["bob"])
	assert.Equal(t, repository.MatchStatusFinished, finished)

	assert.Equal(t, 0, matchMgr.ActiveCount())

	// Both players are free to queue again.
	_, err = queueMgr.Add(ctx, "1v1", "alice", "console-a")
	assert.NoError(t, err)
}

// stealingStore removes one queue entry right before the transactional
// consume, imitating a concurrent pairing racing this one.
type stealingStore struct {
	*memStore
	stealPlayer string
}

func (s *stealingStore) CreateFromQueue(ctx context.Context, m *repository.Match, ps []*repository.MatchParticipant, entryIDs []string) error {
	_ = s.memStore.Delete(ctx, s.stealPlayer, "1v1")
	return s.memStore.CreateFromQueue(ctx, m, ps, entryIDs)
}

// TestFailedPairingLeavesQueueIntact forces the transactional consume to
// fail and checks the surviving player is not lost from the queue.
func TestFailedPairingLeavesQueueIntact(t *testing.T) {
	store := newMemStore()
	pushes := &recorder{}
	logger := zap.NewNop()
	ctx := context.Background()

	racing := &stealingStore{memStore: store, stealPlayer: "bob"}
	matchMgr := match.NewManager(racing, pushes, catalog.Default(), game.DefaultRules(), time.Hour, logger)
	queueMgr := queue.NewManager(store, flatRatings{}, matchMgr, queueConfig(), []string{"1v1"}, logger)

	_, err := queueMgr.Add(ctx, "1v1", "alice", "console-a")
	require.NoError(t, err)
	_, err = queueMgr.Add(ctx, "1v1", "bob", "console-b")
	require.NoError(t, err)

	queueMgr.PollOnce(ctx, "1v1")

	assert.Equal(t, 0, matchMgr.ActiveCount(), "a torn pairing must not start a match")

	// Alice's entry survives for the next pass.
	store.mu.Lock()
	remaining := make([]string, 0, len(store.queue))
	for _, e := range store.queue {
		remaining = append(remaining, e.PlayerID)
	}
	store.mu.Unlock()
	assert.Equal(t, []string{"alice"}, remaining)
}
