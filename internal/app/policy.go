package app

import "github.com/edulive/classroom/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropEvent
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackpressure(roomID string, id core.ConnID) BackpressureAction
}

// DropPolicy drops the event. Chat frames are cheap to lose compared to
// evicting a member over one full buffer.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(string, core.ConnID) BackpressureAction { return DropEvent }

// KickPolicy evicts the slow member; a full buffer means the client has
// stopped reading.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(string, core.ConnID) BackpressureAction { return KickMember }
