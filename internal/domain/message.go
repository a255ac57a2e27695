package domain

import "time"

type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageSystem MessageKind = "system"
)

// Message is one persisted chat-log entry. Immutable once created;
// ID and CreatedAt are assigned by the store.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	Author    *Identity   `json:"author,omitempty"` // nil for system messages
	Body      string      `json:"body"`
	Kind      MessageKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}
