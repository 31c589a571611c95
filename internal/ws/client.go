package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/auth"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/game"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/match"
	"github.com/jpsjoberg/deckport.ai-sub002/internal/queue"
)

const (
	defaultWriteWait    = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	maxMessageSize      = 4096
)

// Client is one WebSocket connection. user is nil until the auth message is
// accepted.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	user *auth.UserContext

	// Pump timings, taken from the hub's websocket config.
	writeWait  time.Duration
	pingPeriod time.Duration
	pongWait   time.Duration

	closeMu sync.Mutex
	closed  bool
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	writeWait := h.cfg.WriteTimeout
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	pingPeriod := h.cfg.PingInterval
	if pingPeriod <= 0 {
		pingPeriod = defaultPingInterval
	}
	return &Client{
		id:         uuid.NewString(),
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, 256),
		writeWait:  writeWait,
		pingPeriod: pingPeriod,
		// The peer gets one full ping round trip plus the write window
		// before the read deadline expires.
		pongWait: pingPeriod + writeWait,
	}
}

// enqueue hands a frame to the write pump. A client whose buffer is full is
// dropped rather than allowed to stall broadcasts.
func (c *Client) enqueue(frame []byte) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		c.hub.logger.Warn("client send buffer full, dropping connection")
		c.closed = true
		close(c.send)
	}
}

func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the connection into the router. Runs in its
// own goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		c.handleMessage(data)
	}
}

// writePump pumps frames from the send channel to the connection and keeps
// the connection alive with pings. Runs in its own goroutine per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound frame.
func (c *Client) handleMessage(data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("bad_message", "invalid message format")
		return
	}

	if c.user == nil {
		if envelope.Type != TypeAuth {
			c.sendError("unauthenticated", "authenticate first")
			return
		}
		c.handleAuth(envelope.Data)
		return
	}

	switch envelope.Type {
	case TypeAuth:
		c.sendError("already_authenticated", "connection is already authenticated")
	case TypeQueueJoin:
		c.handleQueueJoin(envelope.Data)
	case TypeQueueLeave:
		c.handleQueueLeave(envelope.Data)
	case TypeQueueStats:
		c.handleQueueStats(envelope.Data)
	case TypeMatchPlay:
		c.handlePlayCard(envelope.Data)
	case TypeMatchConcede:
		c.handleConcede(envelope.Data)
	case TypeMatchResync:
		c.handleResync(envelope.Data)
	case TypePing:
		c.reply(TypePong, struct{}{})
	default:
		c.sendError("unknown_type", "unknown message type: "+envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthPayload
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad_message", "invalid auth message")
		return
	}

	user, err := c.hub.verifier.Verify(msg.Token)
	if err != nil {
		c.sendError("auth_failed", "token rejected")
		return
	}
	c.user = user
	c.hub.bind(c)

	// Reconnecting into a running match resumes its push stream.
	connected := ConnectedPayload{ConnectionID: c.id, PlayerID: user.PlayerID}
	if matchID, ok := c.hub.matchSvc.MatchFor(user.PlayerID); ok {
		c.hub.Subscribe(matchID, user.PlayerID)
		connected.ActiveMatchID = matchID
	}
	c.reply(TypeConnected, connected)

	c.hub.logger.Info("client authenticated",
		zap.String("player_id", user.PlayerID),
		zap.String("console_id", user.ConsoleID),
	)
}

func (c *Client) handleQueueJoin(raw json.RawMessage) {
	var msg QueuePayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Mode == "" {
		c.sendError("bad_message", "invalid queue.join message")
		return
	}

	entry, err := c.hub.queues.Add(context.Background(), msg.Mode, c.user.PlayerID, c.user.ConsoleID)
	if errors.Is(err, queue.ErrAlreadyQueued) {
		c.sendError("already_queued", "already waiting in a queue")
		return
	}
	if err != nil {
		c.sendError("queue_failed", "could not join the queue")
		return
	}
	c.reply(TypeQueueJoined, QueueJoinedPayload{Mode: msg.Mode, Rating: entry.Rating})
}

func (c *Client) handleQueueLeave(raw json.RawMessage) {
	var msg QueuePayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Mode == "" {
		c.sendError("bad_message", "invalid queue.leave message")
		return
	}

	err := c.hub.queues.Remove(context.Background(), msg.Mode, c.user.PlayerID)
	if errors.Is(err, queue.ErrNotQueued) {
		c.sendError("not_queued", "not waiting in that queue")
		return
	}
	if err != nil {
		c.sendError("queue_failed", "could not leave the queue")
		return
	}
	c.reply(TypeQueueLeft, QueuePayload{Mode: msg.Mode})
}

func (c *Client) handleQueueStats(raw json.RawMessage) {
	var msg QueuePayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Mode == "" {
		c.sendError("bad_message", "invalid queue.stats message")
		return
	}

	stats, err := c.hub.queues.Stats(context.Background(), msg.Mode)
	if err != nil {
		c.sendError("queue_failed", "could not read queue stats")
		return
	}
	c.reply(TypeQueueStats, stats)
}

func (c *Client) handlePlayCard(raw json.RawMessage) {
	var msg PlayCardPayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.MatchID == "" || msg.CardID == "" {
		c.sendError("bad_message", "invalid match.play_card message")
		return
	}
	if msg.Action == "" {
		msg.Action = "play"
	}

	_, err := c.hub.matchSvc.PlayCard(msg.MatchID, c.user.PlayerID, msg.CardID, msg.Action, msg.Target)
	if err != nil {
		c.sendError(playErrorCode(err), err.Error())
	}
	// The resulting patch reaches this client through the match broadcast.
}

func (c *Client) handleConcede(raw json.RawMessage) {
	var msg MatchRefPayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.MatchID == "" {
		c.sendError("bad_message", "invalid match.concede message")
		return
	}

	if err := c.hub.matchSvc.Concede(msg.MatchID, c.user.PlayerID); err != nil {
		c.sendError(playErrorCode(err), err.Error())
	}
}

func (c *Client) handleResync(raw json.RawMessage) {
	var msg MatchRefPayload
	if err := json.Unmarshal(raw, &msg); err != nil || msg.MatchID == "" {
		c.sendError("bad_message", "invalid match.resync message")
		return
	}

	snapshot, err := c.hub.matchSvc.Resync(msg.MatchID, c.user.PlayerID)
	if err != nil {
		c.sendError(playErrorCode(err), err.Error())
		return
	}
	c.reply(TypeStateApply, snapshot)
}

// playErrorCode maps engine errors to stable wire codes.
func playErrorCode(err error) string {
	switch {
	case errors.Is(err, match.ErrMatchNotFound):
		return "match_not_found"
	case errors.Is(err, match.ErrNotParticipant):
		return "not_participant"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrNoActiveWindow):
		return "no_active_window"
	case errors.Is(err, game.ErrCardNotFound):
		return "card_not_found"
	case errors.Is(err, game.ErrWrongCategory):
		return "wrong_category"
	case errors.Is(err, game.ErrInsufficientResources):
		return "insufficient_resources"
	case errors.Is(err, game.ErrPlayerDisabled):
		return "player_disabled"
	default:
		return "play_failed"
	}
}

func (c *Client) reply(msgType string, payload any) {
	frame, err := encode(msgType, payload)
	if err != nil {
		c.hub.logger.Error("reply encode failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	c.enqueue(frame)
}

func (c *Client) sendError(code, message string) {
	c.reply(TypeError, ErrorPayload{Code: code, Message: message})
}
