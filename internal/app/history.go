package app

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// History fetches recent persisted messages for replay on join and for
// explicit history requests.
type History struct {
	messages     core.MessageStore
	replayLimit  int // default replay size on join
	requestLimit int // hard cap for explicit requests
	timeout      time.Duration
}

func NewHistory(messages core.MessageStore, replayLimit, requestLimit int, timeout time.Duration) *History {
	return &History{
		messages:     messages,
		replayLimit:  replayLimit,
		requestLimit: requestLimit,
		timeout:      timeout,
	}
}

// Recent returns up to limit most recent messages, oldest-first.
// limit <= 0 means the configured replay size; anything above the
// request cap is clamped.
func (h *History) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = h.replayLimit
	}
	if limit > h.requestLimit {
		limit = h.requestLimit
	}
	sctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.messages.Query(sctx, roomID, limit)
}

// Event packages messages into the history envelope.
func (h *History) Event(roomID string, msgs []domain.Message) core.HistoryEvent {
	wire := lo.Map(msgs, func(m domain.Message, _ int) core.WireMessage { return core.ToWire(m) })
	return core.HistoryEvent{
		Type:     "history",
		Session:  roomID,
		Messages: wire,
		Count:    len(wire),
	}
}
