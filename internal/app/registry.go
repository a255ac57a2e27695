package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

type connEntry struct {
	identity      domain.Identity
	conn          core.ClientConn
	currentRoom   string
	joinedAt      time.Time
	lastMessageAt time.Time
}

// ConnSnapshot is a copy of one registry entry, safe to use after the
// registry has moved on.
type ConnSnapshot struct {
	ID          core.ConnID
	Identity    domain.Identity
	Conn        core.ClientConn
	CurrentRoom string
	JoinedAt    time.Time
}

// ConnRegistry tracks every live connection and the room it is in.
// It is the only owner of that state; nothing else touches the map.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[core.ConnID]*connEntry)}
}

// Register inserts a fresh entry with no current room.
func (r *ConnRegistry) Register(id core.ConnID, identity domain.Identity, conn core.ClientConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return core.ErrConflictingID
	}
	r.conns[id] = &connEntry{
		identity: identity,
		conn:     conn,
		joinedAt: time.Now(),
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", identity.UserID).Str("name", identity.DisplayName).Msg("connection registered")
	return nil
}

// SetRoom updates the entry's room pointer. Empty roomID means no room.
func (r *ConnRegistry) SetRoom(id core.ConnID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return core.ErrNotRegistered
	}
	e.currentRoom = roomID
	return nil
}

func (r *ConnRegistry) Lookup(id core.ConnID) (ConnSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return ConnSnapshot{}, core.ErrNotRegistered
	}
	return snapshotOf(id, e), nil
}

// Remove drops the entry and returns its last known room for cleanup.
// No-op on an unknown id.
func (r *ConnRegistry) Remove(id core.ConnID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return ""
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", e.currentRoom).Msg("connection removed")
	return e.currentRoom
}

// ReserveSend enforces the rolling window: at most one accepted message
// per connection per window. The slot is consumed atomically with the
// check, so two racing sends cannot both pass.
func (r *ConnRegistry) ReserveSend(id core.ConnID, now time.Time, window time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return core.ErrNotRegistered
	}
	if !e.lastMessageAt.IsZero() && now.Sub(e.lastMessageAt) < window {
		return core.NewError(core.CodeRateLimited, "trop de messages envoyés rapidement")
	}
	e.lastMessageAt = now
	return nil
}

// FindByUser returns the connection of an authenticated user, if any.
func (r *ConnRegistry) FindByUser(userID string) (ConnSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, e := range r.conns {
		if !e.identity.IsGuest() && e.identity.UserID == userID {
			return snapshotOf(id, e), true
		}
	}
	return ConnSnapshot{}, false
}

func (r *ConnRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot copies every entry, for the stats endpoint.
func (r *ConnRegistry) Snapshot() []ConnSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnSnapshot, 0, len(r.conns))
	for id, e := range r.conns {
		out = append(out, snapshotOf(id, e))
	}
	return out
}

func snapshotOf(id core.ConnID, e *connEntry) ConnSnapshot {
	return ConnSnapshot{
		ID:          id,
		Identity:    e.identity,
		Conn:        e.conn,
		CurrentRoom: e.currentRoom,
		JoinedAt:    e.joinedAt,
	}
}
