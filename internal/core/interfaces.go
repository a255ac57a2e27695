package core

import (
	"context"

	"github.com/edulive/classroom/internal/domain"
)

// Frame is an encoded outbound event.
type Frame []byte

// ConnID is the opaque per-link handle assigned at handshake.
type ConnID string

// ClientConn is the outbound half of one transport link.
// Owned by the adapter; the adapter must Close() it. TrySend never blocks.
type ClientConn interface {
	TrySend(Frame) error
	Close()
}

// SessionStore is the durable session record, read-only from this core.
type SessionStore interface {
	// GetSession returns ErrNoSession when the id is unknown.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
}

// MessageStore is the durable chat log. A process restart loses only
// ephemeral presence, never messages.
type MessageStore interface {
	// Insert assigns the message id and timestamp. author is nil for
	// system messages.
	Insert(ctx context.Context, roomID string, author *domain.Identity, body string, kind domain.MessageKind) (*domain.Message, error)
	// Query returns up to limit most recent messages, oldest-first.
	Query(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// IdentityVerifier resolves a connection credential. It must never reject
// the transport: absent or invalid credentials degrade to Guest.
type IdentityVerifier interface {
	Verify(credential string) domain.Identity
}
