package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/catalog"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

var (
	// ErrMatchNotFound is returned for operations on unknown or ended matches.
	ErrMatchNotFound = errors.New("match not found")
	// ErrNotParticipant is returned when a player acts in a match they are not in.
	ErrNotParticipant = errors.New("player is not a participant")
)

// Outbound message types pushed to match participants.
const (
	MsgTimerTick  = "timer.tick"
	MsgStateApply = "state.apply"
	MsgCardPlayed = "card.played"
	MsgMatchEnd   = "match.end"
)

// Store is the persistence surface the manager needs.
type Store interface {
	CreateFromQueue(ctx context.Context, match *repository.Match, participants []*repository.MatchParticipant, queueEntryIDs []string) error
	MarkActive(ctx context.Context, matchID string, startedAt time.Time) error
	Finish(ctx context.Context, matchID string, endedAt time.Time, results map[string]string) error
	Get(ctx context.Context, matchID string) (*repository.Match, error)
	Participants(ctx context.Context, matchID string) ([]*repository.MatchParticipant, error)
}

// Broadcaster pushes messages to every connection subscribed to a match.
type Broadcaster interface {
	Subscribe(matchID, playerID string)
	Unsubscribe(matchID string)
	BroadcastToMatch(matchID, msgType string, payload any)
}

// TimerTickPayload is pushed once per tick while a match runs.
type TimerTickPayload struct {
	MatchID     string `json:"matchId"`
	Turn        int    `json:"turn"`
	Phase       string `json:"phase"`
	RemainingMs int    `json:"remainingMs"`
	WindowOpen  bool   `json:"windowOpen"`
}

// MatchEndPayload is pushed exactly once when a match finishes.
type MatchEndPayload struct {
	MatchID    string              `json:"matchId"`
	WinnerTeam int                 `json:"winnerTeam"`
	Condition  game.WinCondition   `json:"condition"`
	Results    map[string]string   `json:"results"`
	History    []game.HistoryEntry `json:"history"`
}

// activeMatch is one running match. All state access goes through mu so the
// timer loop and player actions never interleave.
type activeMatch struct {
	mu      sync.Mutex
	state   *game.GameState
	players map[int]string // team -> player id
	cancel  context.CancelFunc
	ended   bool
}

// Manager owns the registry of running matches and drives their clocks.
type Manager struct {
	mu      sync.RWMutex
	matches map[string]*activeMatch

	store        Store
	broadcaster  Broadcaster
	catalog      *catalog.Catalog
	rules        game.Rules
	tickInterval time.Duration
	logger       *zap.Logger
}

// NewManager creates a match manager.
func NewManager(store Store, broadcaster Broadcaster, cat *catalog.Catalog, rules game.Rules, tickInterval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		matches:      make(map[string]*activeMatch),
		store:        store,
		broadcaster:  broadcaster,
		catalog:      cat,
		rules:        rules,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// CreateFromQueue persists a new match for the paired queue entries and
// consumes them transactionally. The returned match is still queued; call
// Start to bring it live.
func (m *Manager) CreateFromQueue(ctx context.Context, mode string, entries []*repository.QueueEntry) (*repository.Match, error) {
	if len(entries) != 2 {
		return nil, fmt.Errorf("pairing needs exactly 2 entries, got %d", len(entries))
	}

	seed := time.Now().UnixNano()
	arenaNames := m.catalog.ArenaNames()
	arenaName := arenaNames[rand.New(rand.NewSource(seed)).Intn(len(arenaNames))]

	match := &repository.Match{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    repository.MatchStatusQueued,
		Arena:     arenaName,
		Seed:      seed,
		CreatedAt: time.Now(),
	}

	participants := make([]*repository.MatchParticipant, len(entries))
	entryIDs := make([]string, len(entries))
	for i, entry := range entries {
		participants[i] = &repository.MatchParticipant{
			MatchID:   match.ID,
			PlayerID:  entry.PlayerID,
			ConsoleID: entry.ConsoleID,
			Team:      i,
		}
		entryIDs[i] = entry.ID
	}

	if err := m.store.CreateFromQueue(ctx, match, participants, entryIDs); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	m.logger.Info("match created",
		zap.String("match_id", match.ID),
		zap.String("mode", mode),
		zap.String("arena", arenaName),
		zap.String("player_0", entries[0].PlayerID),
		zap.String("player_1", entries[1].PlayerID),
	)
	return match, nil
}

// Start loads a queued match, builds its game state, marks it active and
// launches the turn clock.
func (m *Manager) Start(ctx context.Context, matchID string) error {
	record, err := m.store.Get(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}
	participants, err := m.store.Participants(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	if len(participants) < 2 {
		return fmt.Errorf("match %s has %d participants: %w", matchID, len(participants), ErrMatchNotFound)
	}

	arenaDef, ok := m.catalog.Arena(record.Arena)
	if !ok {
		return fmt.Errorf("unknown arena %q", record.Arena)
	}

	setups := make([]game.PlayerSetup, len(participants))
	players := make(map[int]string, len(participants))
	for i, p := range participants {
		setups[i] = game.PlayerSetup{PlayerID: p.PlayerID, ConsoleID: p.ConsoleID, Team: p.Team}
		players[p.Team] = p.PlayerID
	}

	state := game.NewState(matchID, record.Seed, m.rules, m.catalog, arenaDef, setups)

	loopCtx, cancel := context.WithCancel(context.Background())
	active := &activeMatch{state: state, players: players, cancel: cancel}

	m.mu.Lock()
	if _, exists := m.matches[matchID]; exists {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("match %s already running", matchID)
	}
	m.matches[matchID] = active
	m.mu.Unlock()

	if err := m.store.MarkActive(ctx, matchID, time.Now()); err != nil {
		m.logger.Error("failed to mark match active", zap.String("match_id", matchID), zap.Error(err))
	}

	for _, playerID := range players {
		m.broadcaster.Subscribe(matchID, playerID)
	}

	active.mu.Lock()
	patch := state.Begin()
	active.mu.Unlock()
	m.broadcaster.BroadcastToMatch(matchID, MsgStateApply, patch)

	go m.run(loopCtx, matchID, active)

	m.logger.Info("match started", zap.String("match_id", matchID))
	return nil
}

// run drives one match's clock until the match ends or its context is
// cancelled. A panic in a tick aborts the match instead of the process.
func (m *Manager) run(ctx context.Context, matchID string, active *activeMatch) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("match loop panicked",
				zap.String("match_id", matchID),
				zap.Any("panic", r),
			)
			m.abort(matchID, active)
		}
	}()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	deltaMs := int(m.tickInterval / time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.tick(matchID, active, deltaMs) {
				return
			}
		}
	}
}

// tick advances timers by one interval. Returns true once the match is over.
func (m *Manager) tick(matchID string, active *activeMatch, deltaMs int) bool {
	active.mu.Lock()

	state := active.state
	state.UpdateTimer(deltaMs)

	tickPayload := TimerTickPayload{
		MatchID:     matchID,
		Turn:        state.Turn,
		Phase:       state.Phase.String(),
		RemainingMs: state.PhaseRemainingMs,
		WindowOpen:  state.Window.Open,
	}

	var patch *game.Patch
	if state.PhaseRemainingMs <= 0 {
		patch = state.AdvancePhase()
	}
	result := state.CheckWinCondition()

	// Broadcasts stay inside the match lock so patches reach the hub in
	// sequence order; hub enqueue never blocks.
	m.broadcaster.BroadcastToMatch(matchID, MsgTimerTick, tickPayload)
	if patch != nil {
		m.broadcaster.BroadcastToMatch(matchID, MsgStateApply, patch)
	}
	active.mu.Unlock()

	if result != nil {
		m.end(matchID, active, result)
		return true
	}
	return false
}

// PlayCard applies a player's card action and pushes the resulting patch.
func (m *Manager) PlayCard(matchID, playerID, cardID, action, target string) (*game.Patch, error) {
	active, err := m.lookup(matchID)
	if err != nil {
		return nil, err
	}

	active.mu.Lock()
	team, ok := teamOf(active, playerID)
	if !ok {
		active.mu.Unlock()
		return nil, ErrNotParticipant
	}

	patch, err := active.state.PlayCard(team, cardID, action, target)
	if err != nil {
		active.mu.Unlock()
		return nil, err
	}
	result := active.state.CheckWinCondition()
	m.broadcaster.BroadcastToMatch(matchID, MsgCardPlayed, patch)
	active.mu.Unlock()

	if result != nil {
		m.end(matchID, active, result)
	}
	return patch, nil
}

// ForceAdvancePhase skips the rest of the current phase. Used by admin
// tooling and tests.
func (m *Manager) ForceAdvancePhase(matchID string) (*game.Patch, error) {
	active, err := m.lookup(matchID)
	if err != nil {
		return nil, err
	}

	active.mu.Lock()
	patch := active.state.AdvancePhase()
	result := active.state.CheckWinCondition()
	m.broadcaster.BroadcastToMatch(matchID, MsgStateApply, patch)
	active.mu.Unlock()

	if result != nil {
		m.end(matchID, active, result)
	}
	return patch, nil
}

// Resync returns a full-state snapshot for a reconnecting participant.
func (m *Manager) Resync(matchID, playerID string) (*game.Patch, error) {
	active, err := m.lookup(matchID)
	if err != nil {
		return nil, err
	}

	active.mu.Lock()
	defer active.mu.Unlock()
	if _, ok := teamOf(active, playerID); !ok {
		return nil, ErrNotParticipant
	}
	return active.state.Snapshot(), nil
}

// Concede ends the match immediately with the conceding player losing.
func (m *Manager) Concede(matchID, playerID string) error {
	active, err := m.lookup(matchID)
	if err != nil {
		return err
	}

	active.mu.Lock()
	team, ok := teamOf(active, playerID)
	active.mu.Unlock()
	if !ok {
		return ErrNotParticipant
	}

	m.end(matchID, active, &game.WinResult{WinnerTeam: 1 - team, Condition: game.WinByConcede})
	return nil
}

// end finishes a match exactly once: persists results, notifies participants
// and removes the match from the registry.
func (m *Manager) end(matchID string, active *activeMatch, result *game.WinResult) {
	active.mu.Lock()
	if active.ended {
		active.mu.Unlock()
		return
	}
	active.ended = true
	results := make(map[string]string, len(active.players))
	for team, playerID := range active.players {
		switch {
		case result.WinnerTeam < 0:
			results[playerID] = repository.ResultDraw
		case result.WinnerTeam == team:
			results[playerID] = repository.ResultWin
		default:
			results[playerID] = repository.ResultLoss
		}
	}
	history := active.state.History
	active.mu.Unlock()

	active.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Finish(ctx, matchID, time.Now(), results); err != nil {
		m.logger.Error("failed to persist match result",
			zap.String("match_id", matchID),
			zap.Error(err),
		)
	}

	m.broadcaster.BroadcastToMatch(matchID, MsgMatchEnd, MatchEndPayload{
		MatchID:    matchID,
		WinnerTeam: result.WinnerTeam,
		Condition:  result.Condition,
		Results:    results,
		History:    history,
	})
	m.broadcaster.Unsubscribe(matchID)

	m.mu.Lock()
	delete(m.matches, matchID)
	m.mu.Unlock()

	m.logger.Info("match ended",
		zap.String("match_id", matchID),
		zap.Int("winner_team", result.WinnerTeam),
		zap.String("condition", string(result.Condition)),
	)
}

// abort tears a match down after a loop panic without writing results.
func (m *Manager) abort(matchID string, active *activeMatch) {
	active.mu.Lock()
	active.ended = true
	active.mu.Unlock()
	active.cancel()

	m.mu.Lock()
	delete(m.matches, matchID)
	m.mu.Unlock()
}

// Shutdown stops every running match loop. Results are not written; matches
// resume as queued on restart via their persisted seeds.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for matchID, active := range m.matches {
		active.cancel()
		delete(m.matches, matchID)
	}
}

// ActiveCount reports how many matches are currently running.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matches)
}

// MatchFor returns the running match id a player participates in, if any.
func (m *Manager) MatchFor(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for matchID, active := range m.matches {
		for _, pid := range active.players {
			if pid == playerID {
				return matchID, true
			}
		}
	}
	return "", false
}

func (m *Manager) lookup(matchID string) (*activeMatch, error) {
	m.mu.RLock()
	active, ok := m.matches[matchID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMatchNotFound
	}
	return active, nil
}

func teamOf(active *activeMatch, playerID string) (int, bool) {
	for team, pid := range active.players {
		if pid == playerID {
			return team, true
		}
	}
	return 0, false
}
