package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// Presence emits join/leave notifications to a room: a presence event for
// every remaining member plus a persisted system message. Persistence of
// the system message is auxiliary; its failure is logged and swallowed,
// the presence event still goes out.
type Presence struct {
	rooms    *core.RoomRegistry
	messages core.MessageStore
	timeout  time.Duration
}

func NewPresence(rooms *core.RoomRegistry, messages core.MessageStore, timeout time.Duration) *Presence {
	return &Presence{rooms: rooms, messages: messages, timeout: timeout}
}

// NotifyJoined tells everyone but the newcomer. Guest joins produce a
// presence event only, never a persisted system message.
func (p *Presence) NotifyJoined(ctx context.Context, roomID string, actor domain.Identity, exclude core.ConnID) {
	p.notify(ctx, roomID, actor, exclude, "joined", actor.DisplayName+" a rejoint la session")
}

// NotifyLeft tells the remaining members.
func (p *Presence) NotifyLeft(ctx context.Context, roomID string, actor domain.Identity, exclude core.ConnID) {
	p.notify(ctx, roomID, actor, exclude, "left", actor.DisplayName+" a quitté la session")
}

func (p *Presence) notify(ctx context.Context, roomID string, actor domain.Identity, exclude core.ConnID, event, body string) {
	presence, err := core.Encode(core.PresenceEvent{
		Type:     "presence",
		Session:  roomID,
		UserID:   actor.UserID,
		UserName: actor.DisplayName,
		Event:    event,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.presence").Msg("encode presence")
		return
	}

	var system core.Frame
	if !actor.IsGuest() {
		if msg := p.persistSystem(ctx, roomID, body); msg != nil {
			system, err = core.Encode(core.MessageEvent{Type: "message", Message: core.ToWire(*msg)})
			if err != nil {
				log.Error().Err(err).Str("module", "app.presence").Msg("encode system message")
				system = nil
			}
		}
	}

	p.rooms.Serialize(roomID, func() {
		for _, m := range p.rooms.Members(roomID) {
			if m.ID == exclude {
				continue
			}
			_ = m.Conn.TrySend(presence)
			if system != nil {
				_ = m.Conn.TrySend(system)
			}
		}
	})
}

func (p *Presence) persistSystem(ctx context.Context, roomID, body string) *domain.Message {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg, err := p.messages.Insert(sctx, roomID, nil, body, domain.MessageSystem)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("room", roomID).Msg("system message not persisted")
		return nil
	}
	return msg
}
