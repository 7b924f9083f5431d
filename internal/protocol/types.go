package protocol

import "encoding/json"

// Inbound frame types.
const (
	TypeAuthRequired = "auth_required"
	TypeAuthOK       = "auth_ok"
	TypeAuthInvalid  = "auth_invalid"
	TypePong         = "pong"
	TypeEvent        = "event"
	TypeResult       = "result"
)

// Outbound frame types.
const (
	TypeAuth              = "auth"
	TypeSubscribeEntities = "subscribe_entities"
	TypePing              = "ping"
)

// Unavailable is the state value the hub reports for offline entities.
const Unavailable = "unavailable"

// AuthFrame answers the hub's auth challenge.
type AuthFrame struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// SubscribeFrame requests state updates for a set of entities.
type SubscribeFrame struct {
	ID        int64    `json:"id"`
	Type      string   `json:"type"`
	EntityIDs []string `json:"entity_ids"`
}

// PingFrame is the application-level heartbeat.
type PingFrame struct {
	Type string `json:"type"`
}

// NewAuth builds an auth frame.
func NewAuth(token string) AuthFrame {
	return AuthFrame{Type: TypeAuth, AccessToken: token}
}

// NewSubscribe builds a subscribe_entities frame.
func NewSubscribe(id int64, entityIDs []string) SubscribeFrame {
	ids := make([]string, len(entityIDs))
	copy(ids, entityIDs)
	return SubscribeFrame{ID: id, Type: TypeSubscribeEntities, EntityIDs: ids}
}

// NewPing builds a ping frame.
func NewPing() PingFrame {
	return PingFrame{Type: TypePing}
}

// Frame is a decoded inbound frame. Only Type is required; the other fields
// are filled when present and well-formed, and left zero otherwise.
type Frame struct {
	Type    string
	ID      int64
	Success *bool  // result frames
	Message string // auth_invalid reason or result error message
	Event   *EventPayload
}

// EventPayload holds the two state envelopes. Entries stay raw so one
// malformed entity cannot spoil the rest of the frame.
type EventPayload struct {
	Snapshot map[string]json.RawMessage
	Delta    map[string]json.RawMessage
}

// snapshotEntry is one entity in the "a" envelope.
type snapshotEntry struct {
	S json.RawMessage `json:"s"`
}

// deltaEntry is one entity in the "c" envelope.
type deltaEntry struct {
	Plus *snapshotEntry `json:"+"`
}
