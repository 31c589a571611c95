package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/auth"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/queue"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/repository"
)

// TokenVerifier validates bearer tokens from auth messages.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.UserContext, error)
}

// QueueService is the matchmaking surface exposed to connections.
type QueueService interface {
	Add(ctx context.Context, mode, playerID, consoleID string) (*repository.QueueEntry, error)
	Remove(ctx context.Context, mode, playerID string) error
	Stats(ctx context.Context, mode string) (*queue.Stats, error)
}

// MatchService is the match surface exposed to connections.
type MatchService interface {
	PlayCard(matchID, playerID, cardID, action, target string) (*game.Patch, error)
	Concede(matchID, playerID string) error
	Resync(matchID, playerID string) (*game.Patch, error)
	MatchFor(playerID string) (string, bool)
}

// Hub tracks connected clients and their match subscriptions. It implements
// the broadcaster the match manager pushes through.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	players map[string]*Client         // player id -> connection
	matches map[string]map[string]bool // match id -> subscribed player ids

	verifier TokenVerifier
	queues   QueueService
	matchSvc MatchService
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a hub. Attach the queue and match services with
// AttachServices before serving; the match manager needs the hub as its
// broadcaster, so the hub is built first.
func NewHub(verifier TokenVerifier, cfg config.WebSocketConfig, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:  make(map[*Client]bool),
		players:  make(map[string]*Client),
		matches:  make(map[string]map[string]bool),
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// AttachServices wires the queue and match surfaces.
func (h *Hub) AttachServices(queues QueueService, matchSvc MatchService) {
	h.queues = queues
	h.matchSvc = matchSvc
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return false
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades an HTTP request and starts the connection's pumps. The
// client must authenticate with its first message before anything else.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn)

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("client connected", zap.Int("total_clients", total))

	go client.writePump()
	go client.readPump()
}

// bind associates an authenticated player with their connection. A second
// connection for the same player displaces the first.
func (h *Hub) bind(client *Client) {
	h.mu.Lock()
	if prev, ok := h.players[client.user.PlayerID]; ok && prev != client {
		prev.closeSend()
	}
	h.players[client.user.PlayerID] = client
	h.mu.Unlock()
}

// unregister drops a connection and its player binding.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if client.user != nil && h.players[client.user.PlayerID] == client {
		delete(h.players, client.user.PlayerID)
	}
	total := len(h.clients)
	h.mu.Unlock()

	client.closeSend()
	h.logger.Debug("client disconnected", zap.Int("total_clients", total))
}

// Subscribe adds a player to a match's push set.
func (h *Hub) Subscribe(matchID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.matches[matchID]
	if !ok {
		subs = make(map[string]bool)
		h.matches[matchID] = subs
	}
	subs[playerID] = true
}

// Unsubscribe drops a match's push set entirely.
func (h *Hub) Unsubscribe(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.matches, matchID)
}

// BroadcastToMatch pushes a message to every connected subscriber of a
// match. Unknown matches and offline players are silently skipped; the game
// keeps running whether or not anyone is listening.
func (h *Hub) BroadcastToMatch(matchID, msgType string, payload any) {
	frame, err := encode(msgType, payload)
	if err != nil {
		h.logger.Error("broadcast encode failed",
			zap.String("match_id", matchID),
			zap.String("type", msgType),
			zap.Error(err),
		)
		return
	}

	h.mu.RLock()
	var targets []*Client
	for playerID := range h.matches[matchID] {
		if client, ok := h.players[playerID]; ok {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.enqueue(frame)
	}
}

// CloseAll disconnects every client. Used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.players = make(map[string]*Client)
	h.matches = make(map[string]map[string]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
}

// ClientCount reports the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
