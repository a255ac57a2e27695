package core

import (
	"encoding/json"
	"time"

	"github.com/edulive/classroom/internal/domain"
)

// Outbound event envelopes. Every frame a client receives is one of these,
// dispatched on the "type" field.

type JoinedEvent struct {
	Type     string `json:"type"` // "joined"
	Session  string `json:"session"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

type LeftEvent struct {
	Type    string `json:"type"` // "left"
	Session string `json:"session"`
}

// WireMessage is the client view of a persisted message.
type WireMessage struct {
	ID        string `json:"id"`
	Session   string `json:"session"`
	UserID    string `json:"user_id,omitempty"`
	UserName  string `json:"user_name"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at"`
}

type MessageEvent struct {
	Type    string      `json:"type"` // "message"
	Message WireMessage `json:"message"`
}

type HistoryEvent struct {
	Type     string        `json:"type"` // "history"
	Session  string        `json:"session"`
	Messages []WireMessage `json:"messages"`
	Count    int           `json:"count"`
}

type PresenceEvent struct {
	Type     string `json:"type"` // "presence"
	Session  string `json:"session"`
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name"`
	Event    string `json:"event"` // "joined" | "left"
}

type TypingEvent struct {
	Type     string `json:"type"` // "typing"
	Session  string `json:"session"`
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// SentEvent acknowledges a send to its author only.
type SentEvent struct {
	Type      string `json:"type"` // "message-sent"
	MessageID string `json:"message_id"`
	SentAt    string `json:"sent_at"`
}

type ErrorEvent struct {
	Type   string `json:"type"` // "error"
	Code   Code   `json:"code"`
	Detail string `json:"detail"`
}

type PongEvent struct {
	Type string `json:"type"` // "pong"
}

type KickedEvent struct {
	Type    string `json:"type"` // "kicked"
	Session string `json:"session"`
	Reason  string `json:"reason"`
}

// ToWire flattens a message for clients. System messages keep the
// platform author name so the client never special-cases a null user.
func ToWire(m domain.Message) WireMessage {
	w := WireMessage{
		ID:        m.ID,
		Session:   m.RoomID,
		Body:      m.Body,
		Kind:      string(m.Kind),
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
		UserName:  "Système",
	}
	if m.Author != nil {
		w.UserID = m.Author.UserID
		w.UserName = m.Author.DisplayName
	}
	return w
}

// Encode marshals an event into a Frame.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
