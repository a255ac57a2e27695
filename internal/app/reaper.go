package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
)

// Reaper guarantees cleanup when a connection terminates, however it
// terminates. Safe to call twice and tolerant of partially-cleaned state.
type Reaper struct {
	conns    *ConnRegistry
	rooms    *core.RoomRegistry
	presence *Presence
}

func NewReaper(conns *ConnRegistry, rooms *core.RoomRegistry, presence *Presence) *Reaper {
	return &Reaper{conns: conns, rooms: rooms, presence: presence}
}

// OnDisconnect unregisters the connection first, so an in-flight join
// that finishes later finds it gone and discards its effects. Then it
// clears any room membership the connection still held.
func (r *Reaper) OnDisconnect(ctx context.Context, id core.ConnID) {
	entry, err := r.conns.Lookup(id)
	if err != nil {
		// Already reaped.
		return
	}

	roomID := r.conns.Remove(id)
	if roomID == "" {
		return
	}

	left := false
	r.rooms.Serialize(roomID, func() {
		left = r.rooms.Leave(roomID, id)
	})
	if !left {
		return
	}

	log.Info().Str("module", "app.reaper").Str("conn", string(id)).Str("room", roomID).Int("remaining", r.rooms.Size(roomID)).Msg("reaped connection")
	r.presence.NotifyLeft(ctx, roomID, entry.Identity, id)
}

// Kick forcibly ejects a user's connection: the target learns why, then
// gets the full disconnect treatment.
func (r *Reaper) Kick(ctx context.Context, id core.ConnID, sessionID, reason string) {
	entry, err := r.conns.Lookup(id)
	if err != nil {
		return
	}
	if frame, err := core.Encode(core.KickedEvent{Type: "kicked", Session: sessionID, Reason: reason}); err == nil {
		_ = entry.Conn.TrySend(frame)
	}
	r.OnDisconnect(ctx, id)
	entry.Conn.Close()
	log.Info().Str("module", "app.reaper").Str("conn", string(id)).Str("session", sessionID).Str("reason", reason).Msg("kicked")
}
