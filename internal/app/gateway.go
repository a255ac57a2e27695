package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/auth"
	"github.com/edulive/classroom/internal/core"
)

// Gateway orchestrates authorized joins and leaves. Authorization and
// history fetches run before the room's serialization section; only the
// final membership flip and the fan-out happen inside it.
type Gateway struct {
	conns    *ConnRegistry
	rooms    *core.RoomRegistry
	sessions core.SessionStore
	history  *History
	presence *Presence
	timeout  time.Duration
}

func NewGateway(conns *ConnRegistry, rooms *core.RoomRegistry, sessions core.SessionStore, history *History, presence *Presence, timeout time.Duration) *Gateway {
	return &Gateway{
		conns:    conns,
		rooms:    rooms,
		sessions: sessions,
		history:  history,
		presence: presence,
		timeout:  timeout,
	}
}

// Join moves the connection into the session's room. On any failure the
// registries are left exactly as they were and the returned error is for
// the caller alone.
func (g *Gateway) Join(ctx context.Context, id core.ConnID, sessionID, password string) error {
	entry, err := g.conns.Lookup(id)
	if err != nil {
		return err
	}

	sctx, cancel := context.WithTimeout(ctx, g.timeout)
	sess, err := g.sessions.GetSession(sctx, sessionID)
	cancel()
	switch {
	case errors.Is(err, core.ErrNoSession):
		return core.NewError(core.CodeSessionNotFound, "session non trouvée")
	case err != nil:
		log.Error().Err(err).Str("module", "app.gateway").Str("session", sessionID).Msg("session lookup failed")
		return core.NewError(core.CodeUnauthorized, "vérification de session impossible")
	}
	if !sess.Joinable() {
		return core.NewError(core.CodeSessionNotFound, "session terminée")
	}

	if sess.PasswordHash != "" {
		ok, err := auth.ComparePassword(password, sess.PasswordHash)
		if err != nil || !ok {
			return core.NewError(core.CodeUnauthorized, "mot de passe incorrect")
		}
	}
	if entry.Identity.IsGuest() {
		if !sess.AllowsGuests() {
			return core.NewError(core.CodeUnauthorized, "invités non autorisés dans cette session")
		}
	} else if !sess.Authorizes(entry.Identity.UserID) {
		return core.NewError(core.CodeUnauthorized, "vous ne faites pas partie de cette session")
	}

	if entry.CurrentRoom != "" && entry.CurrentRoom != sessionID {
		if err := g.Leave(ctx, id, entry.CurrentRoom); err != nil {
			return err
		}
	}

	msgs, err := g.history.Recent(ctx, sessionID, 0)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Str("session", sessionID).Msg("history fetch failed, replaying nothing")
		msgs = nil
	}

	ack, err := core.Encode(core.JoinedEvent{
		Type:     "joined",
		Session:  sess.ID,
		Title:    sess.Title,
		Status:   string(sess.Status),
		JoinedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	replay, err := core.Encode(g.history.Event(sessionID, msgs))
	if err != nil {
		return err
	}

	joined := false
	g.rooms.Serialize(sessionID, func() {
		// A disconnect may have raced the authorization call. The
		// later operation wins: never resurrect a dead connection.
		if _, err := g.conns.Lookup(id); err != nil {
			return
		}
		g.rooms.Join(sessionID, id, entry.Conn)
		if err := g.conns.SetRoom(id, sessionID); err != nil {
			g.rooms.Leave(sessionID, id)
			return
		}
		joined = true
		_ = entry.Conn.TrySend(ack)
		_ = entry.Conn.TrySend(replay)
	})
	if !joined {
		log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("session", sessionID).Msg("join discarded, connection gone")
		return nil
	}

	g.presence.NotifyJoined(ctx, sessionID, entry.Identity, id)
	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("session", sessionID).Int("size", g.rooms.Size(sessionID)).Msg("joined session")
	return nil
}

// Leave is idempotent: a connection that is not a member is a no-op.
func (g *Gateway) Leave(ctx context.Context, id core.ConnID, sessionID string) error {
	entry, err := g.conns.Lookup(id)
	if err != nil {
		return nil
	}

	ack, err := core.Encode(core.LeftEvent{Type: "left", Session: sessionID})
	if err != nil {
		return err
	}

	left := false
	g.rooms.Serialize(sessionID, func() {
		if !g.rooms.Leave(sessionID, id) {
			return
		}
		_ = g.conns.SetRoom(id, "")
		left = true
		_ = entry.Conn.TrySend(ack)
	})
	if !left {
		return nil
	}

	g.presence.NotifyLeft(ctx, sessionID, entry.Identity, id)
	log.Info().Str("module", "app.gateway").Str("conn", string(id)).Str("session", sessionID).Msg("left session")
	return nil
}
