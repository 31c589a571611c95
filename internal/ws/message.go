package ws

import "encoding/json"

// Inbound message types.
const (
	TypeAuth         = "auth"
	TypeQueueJoin    = "queue.join"
	TypeQueueLeave   = "queue.leave"
	TypeQueueStats   = "queue.stats"
	TypeMatchPlay    = "match.play_card"
	TypeMatchConcede = "match.concede"
	TypeMatchResync  = "match.resync"
	TypePing         = "ping"
)

// Outbound message types. Match push types (timer.tick, state.apply,
// card.played, match.end) come from the match manager.
const (
	TypeConnected   = "connected"
	TypeQueueJoined = "queue.joined"
	TypeQueueLeft   = "queue.left"
	TypeStateApply  = "state.apply"
	TypePong        = "pong"
	TypeError       = "error"
)

// Envelope is the wire frame for both directions. Data carries the
// type-specific payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AuthPayload is the first message a client must send.
type AuthPayload struct {
	Token string `json:"token"`
}

// QueuePayload joins, leaves or inspects a matchmaking queue.
type QueuePayload struct {
	Mode string `json:"mode"`
}

// PlayCardPayload plays a card in the client's running match.
type PlayCardPayload struct {
	MatchID string `json:"matchId"`
	CardID  string `json:"cardId"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
}

// MatchRefPayload names a match for concede and resync requests.
type MatchRefPayload struct {
	MatchID string `json:"matchId"`
}

// ConnectedPayload acknowledges a successful auth.
type ConnectedPayload struct {
	ConnectionID  string `json:"connectionId"`
	PlayerID      string `json:"playerId"`
	ActiveMatchID string `json:"activeMatchId,omitempty"`
}

// QueueJoinedPayload acknowledges a queue join.
type QueueJoinedPayload struct {
	Mode   string `json:"mode"`
	Rating int    `json:"rating"`
}

// ErrorPayload reports a rejected message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encode wraps a payload in an envelope and marshals it. Payloads are plain
// structs, so marshaling only fails on programmer error.
func encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}
