package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// Router validates, rate-limits, persists and broadcasts chat messages.
// Persistence happens before the room's serialization section; broadcast
// happens inside it, so every member observes one total order per room.
type Router struct {
	conns        *ConnRegistry
	rooms        *core.RoomRegistry
	messages     core.MessageStore
	window       time.Duration
	maxLen       int
	persistGuest bool
	timeout      time.Duration
	policy       Policy
	kick         func(core.ConnID)
}

func NewRouter(conns *ConnRegistry, rooms *core.RoomRegistry, messages core.MessageStore, window time.Duration, maxLen int, persistGuest bool, timeout time.Duration) *Router {
	return &Router{
		conns:        conns,
		rooms:        rooms,
		messages:     messages,
		window:       window,
		maxLen:       maxLen,
		persistGuest: persistGuest,
		timeout:      timeout,
		policy:       DropPolicy{},
	}
}

// SetPolicy installs the backpressure policy; kick is invoked for members
// the policy wants gone.
func (r *Router) SetPolicy(p Policy, kick func(core.ConnID)) {
	r.policy = p
	r.kick = kick
}

// Send handles one chat message from a connection.
func (r *Router) Send(ctx context.Context, id core.ConnID, sessionID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > r.maxLen {
		return core.NewError(core.CodeInvalidData, "message vide ou trop long")
	}

	entry, err := r.conns.Lookup(id)
	if err != nil || entry.CurrentRoom != sessionID {
		return core.NewError(core.CodeNotInSession, "vous devez rejoindre la session pour envoyer des messages")
	}
	if entry.Identity.IsGuest() && !r.persistGuest {
		return core.NewError(core.CodeUnauthorized, "connectez-vous pour envoyer des messages")
	}

	if err := r.conns.ReserveSend(id, time.Now(), r.window); err != nil {
		if _, ok := core.CodeOf(err); ok {
			return err
		}
		return core.NewError(core.CodeNotInSession, "connexion fermée")
	}

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	msg, err := r.messages.Insert(sctx, sessionID, &entry.Identity, body, domain.MessageUser)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("session", sessionID).Msg("message insert failed")
		return core.NewError(core.CodeSendError, "erreur lors de l'envoi du message")
	}

	frame, err := core.Encode(core.MessageEvent{Type: "message", Message: core.ToWire(*msg)})
	if err != nil {
		return core.NewError(core.CodeSendError, "erreur lors de l'envoi du message")
	}

	var slow []core.ConnID
	r.rooms.Serialize(sessionID, func() {
		for _, m := range r.rooms.Members(sessionID) {
			if err := m.Conn.TrySend(frame); err != nil {
				slow = append(slow, m.ID)
			}
		}
	})
	r.applyPolicy(sessionID, slow)

	ack, err := core.Encode(core.SentEvent{
		Type:      "message-sent",
		MessageID: msg.ID,
		SentAt:    msg.CreatedAt.Format(time.RFC3339Nano),
	})
	if err == nil {
		_ = entry.Conn.TrySend(ack)
	}

	log.Debug().Str("module", "app.router").Str("session", sessionID).Str("message", msg.ID).Str("from", entry.Identity.DisplayName).Msg("message broadcast")
	return nil
}

// Typing relays an ephemeral typing indicator to the other members.
// Silently ignored when the sender is not in the room; never persisted.
func (r *Router) Typing(id core.ConnID, sessionID string, isTyping bool) {
	entry, err := r.conns.Lookup(id)
	if err != nil || entry.CurrentRoom != sessionID {
		return
	}
	frame, err := core.Encode(core.TypingEvent{
		Type:     "typing",
		Session:  sessionID,
		UserID:   entry.Identity.UserID,
		UserName: entry.Identity.DisplayName,
		IsTyping: isTyping,
	})
	if err != nil {
		return
	}
	var slow []core.ConnID
	r.rooms.Serialize(sessionID, func() {
		for _, m := range r.rooms.Members(sessionID) {
			if m.ID == id {
				continue
			}
			if err := m.Conn.TrySend(frame); err != nil {
				slow = append(slow, m.ID)
			}
		}
	})
	r.applyPolicy(sessionID, slow)
}

func (r *Router) applyPolicy(roomID string, slow []core.ConnID) {
	for _, id := range slow {
		switch r.policy.OnBackpressure(roomID, id) {
		case KickMember:
			log.Warn().Str("module", "app.router").Str("room", roomID).Str("conn", string(id)).Msg("kicking slow member")
			if r.kick != nil {
				r.kick(id)
			}
		case DropEvent, NoAction:
			log.Debug().Str("module", "app.router").Str("room", roomID).Str("conn", string(id)).Msg("event dropped, send buffer full")
		}
	}
}
