package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/auth"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/queue"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

// fakeVerifier accepts tokens of the form "ok:<playerID>".
type fakeVerifier struct{}

func (fakeVerifier) Verify(tokenString string) (*auth.UserContext, error) {
	if len(tokenString) > 3 && tokenString[:3] == "ok:" {
		return &auth.UserContext{PlayerID: tokenString[3:], ConsoleID: "console"}, nil
	}
	return nil, auth.ErrInvalidToken
}

type fakeQueues struct {
	added   []string
	removed []string
	addErr  error
}

func (q *fakeQueues) Add(_ context.Context, mode, playerID, _ string) (*repository.QueueEntry, error) {
	if q.addErr != nil {
		return nil, q.addErr
	}
	q.added = append(q.added, playerID+"/"+mode)
	return &repository.QueueEntry{Mode: mode, PlayerID: playerID, Rating: 1000}, nil
}

func (q *fakeQueues) Remove(_ context.Context, mode, playerID string) error {
	q.removed = append(q.removed, playerID+"/"+mode)
	return nil
}

func (q *fakeQueues) Stats(_ context.Context, mode string) (*queue.Stats, error) {
	return &queue.Stats{Mode: mode, Depth: 3}, nil
}

type fakeMatches struct {
	playErr  error
	plays    []string
	activeID string
}

func (m *fakeMatches) PlayCard(matchID, playerID, cardID, action, target string) (*game.Patch, error) {
	if m.playErr != nil {
		return nil, m.playErr
	}
	m.plays = append(m.plays, playerID+"/"+cardID)
	return &game.Patch{}, nil
}

func (m *fakeMatches) Concede(matchID, playerID string) error { return m.playErr }

func (m *fakeMatches) Resync(matchID, playerID string) (*game.Patch, error) {
	if m.playErr != nil {
		return nil, m.playErr
	}
	return &game.Patch{Seq: 7, Reason: "resync"}, nil
}

func (m *fakeMatches) MatchFor(playerID string) (string, bool) {
	return m.activeID, m.activeID != ""
}

func testHub(queues *fakeQueues, matches *fakeMatches) *Hub {
	cfg := config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		AllowedOrigins:  []string{"*"},
	}
	h := NewHub(fakeVerifier{}, cfg, zap.NewNop())
	h.AttachServices(queues, matches)
	return h
}

// testClient builds a client without a network connection; routing never
// touches the socket directly.
func testClient(h *Hub) *Client {
	c := &Client{hub: h, send: make(chan []byte, 16)}
	h.clients[c] = true
	return c
}

func frame(t *testing.T, msgType string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	out, err := json.Marshal(Envelope{Type: msgType, Data: data})
	require.NoError(t, err)
	return out
}

func nextReply(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("no reply queued")
		return Envelope{}
	}
}

func authClient(t *testing.T, c *Client, playerID string) {
	t.Helper()
	c.handleMessage(frame(t, TypeAuth, AuthPayload{Token: "ok:" + playerID}))
	env := nextReply(t, c)
	require.Equal(t, TypeConnected, env.Type)
}

func TestClientPumpTimingsFromConfig(t *testing.T) {
	cfg := config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingInterval:    5 * time.Second,
		WriteTimeout:    2 * time.Second,
	}
	h := NewHub(fakeVerifier{}, cfg, zap.NewNop())

	c := newClient(h, nil)
	assert.Equal(t, 5*time.Second, c.pingPeriod)
	assert.Equal(t, 2*time.Second, c.writeWait)
	assert.Equal(t, 7*time.Second, c.pongWait)
	assert.NotEmpty(t, c.id)

	// Zero values fall back to the defaults.
	h = NewHub(fakeVerifier{}, config.WebSocketConfig{}, zap.NewNop())
	c = newClient(h, nil)
	assert.Equal(t, defaultPingInterval, c.pingPeriod)
	assert.Equal(t, defaultWriteWait, c.writeWait)
}

func TestAuthRequiredBeforeAnythingElse(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)

	c.handleMessage(frame(t, TypeQueueJoin, QueuePayload{Mode: "1v1"}))
	env := nextReply(t, c)
	assert.Equal(t, TypeError, env.Type)

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &errPayload))
	assert.Equal(t, "unauthenticated", errPayload.Code)
}

func TestAuthAcceptsValidToken(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)

	c.handleMessage(frame(t, TypeAuth, AuthPayload{Token: "ok:player-7"}))

	env := nextReply(t, c)
	require.Equal(t, TypeConnected, env.Type)
	var connected ConnectedPayload
	require.NoError(t, json.Unmarshal(env.Data, &connected))
	assert.Equal(t, "player-7", connected.PlayerID)
	assert.Empty(t, connected.ActiveMatchID)

	// The player binding is live for broadcasts.
	h.mu.RLock()
	assert.Same(t, c, h.players["player-7"])
	h.mu.RUnlock()
}

func TestAuthRejectsBadToken(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)

	c.handleMessage(frame(t, TypeAuth, AuthPayload{Token: "nope"}))
	env := nextReply(t, c)
	assert.Equal(t, TypeError, env.Type)
	assert.Nil(t, c.user)
}

func TestAuthResumesActiveMatch(t *testing.T) {
	matches := &fakeMatches{activeID: "m1"}
	h := testHub(&fakeQueues{}, matches)
	c := testClient(h)

	c.handleMessage(frame(t, TypeAuth, AuthPayload{Token: "ok:player-7"}))

	env := nextReply(t, c)
	var connected ConnectedPayload
	require.NoError(t, json.Unmarshal(env.Data, &connected))
	assert.Equal(t, "m1", connected.ActiveMatchID)

	h.mu.RLock()
	assert.True(t, h.matches["m1"]["player-7"], "reconnect must resubscribe")
	h.mu.RUnlock()
}

func TestQueueJoinAndLeave(t *testing.T) {
	queues := &fakeQueues{}
	h := testHub(queues, &fakeMatches{})
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, TypeQueueJoin, QueuePayload{Mode: "1v1"}))
	env := nextReply(t, c)
	require.Equal(t, TypeQueueJoined, env.Type)
	assert.Equal(t, []string{"p0/1v1"}, queues.added)

	c.handleMessage(frame(t, TypeQueueLeave, QueuePayload{Mode: "1v1"}))
	env = nextReply(t, c)
	require.Equal(t, TypeQueueLeft, env.Type)
	assert.Equal(t, []string{"p0/1v1"}, queues.removed)
}

func TestQueueJoinAlreadyQueued(t *testing.T) {
	queues := &fakeQueues{addErr: queue.ErrAlreadyQueued}
	h := testHub(queues, &fakeMatches{})
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, TypeQueueJoin, QueuePayload{Mode: "1v1"}))
	env := nextReply(t, c)
	require.Equal(t, TypeError, env.Type)

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &errPayload))
	assert.Equal(t, "already_queued", errPayload.Code)
}

func TestPlayCardRoutesAndMapsErrors(t *testing.T) {
	matches := &fakeMatches{}
	h := testHub(&fakeQueues{}, matches)
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, TypeMatchPlay, PlayCardPayload{MatchID: "m1", CardID: "bolt"}))
	assert.Equal(t, []string{"p0/bolt"}, matches.plays)
	assert.Empty(t, c.send, "successful plays answer via the match broadcast")

	matches.playErr = game.ErrNoActiveWindow
	c.handleMessage(frame(t, TypeMatchPlay, PlayCardPayload{MatchID: "m1", CardID: "bolt"}))
	env := nextReply(t, c)
	require.Equal(t, TypeError, env.Type)

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &errPayload))
	assert.Equal(t, "no_active_window", errPayload.Code)
}

func TestResyncReturnsSnapshot(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, TypeMatchResync, MatchRefPayload{MatchID: "m1"}))
	env := nextReply(t, c)
	require.Equal(t, TypeStateApply, env.Type)

	var patch game.Patch
	require.NoError(t, json.Unmarshal(env.Data, &patch))
	assert.Equal(t, uint64(7), patch.Seq)
	assert.Equal(t, "resync", patch.Reason)
}

func TestUnknownTypeRejected(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, "mystery.op", struct{}{}))
	env := nextReply(t, c)
	assert.Equal(t, TypeError, env.Type)
}

func TestPingPong(t *testing.T) {
	h := testHub(&fakeQueues{}, &fakeMatches{})
	c := testClient(h)
	authClient(t, c, "p0")

	c.handleMessage(frame(t, TypePing, struct{}{}))
	env := nextReply(t, c)
	assert.Equal(t, TypePong, env.Type)
}

func TestPlayErrorCodeMapping(t *testing.T) {
	cases := map[string]error{
		"not_your_turn":          game.ErrNotYourTurn,
		"card_not_found":         game.ErrCardNotFound,
		"insufficient_resources": game.ErrInsufficientResources,
		"play_failed":            errors.New("boom"),
	}
	for code, err := range cases {
		assert.Equal(t, code, playErrorCode(err))
	}
}
