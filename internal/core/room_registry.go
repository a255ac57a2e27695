package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemberRef is one entry of a membership snapshot, enough to fan out.
type MemberRef struct {
	ID   ConnID
	Conn ClientConn
}

// RoomInfo is a read-only view for the stats endpoint.
type RoomInfo struct {
	ID      string   `json:"session"`
	Size    int      `json:"size"`
	Members []ConnID `json:"members"`
}

type roomState struct {
	guard   sync.Mutex
	refs    int
	members map[ConnID]ClientConn
}

// RoomRegistry owns the per-room membership sets. A room exists from its
// first member to its last; an empty room is removed as soon as no caller
// is inside its serialization section.
//
// Join and Leave must only be called from inside Serialize(roomID, ...):
// the per-room guard is what keeps membership mutation and broadcast in a
// single total order per room.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*roomState
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*roomState)}
}

// Serialize runs fn while holding the room's guard. Slow I/O (auth
// lookups, persistence) belongs outside fn; fn should only mutate
// membership and hand frames to non-blocking conns.
func (r *RoomRegistry) Serialize(roomID string, fn func()) {
	r.mu.Lock()
	st, ok := r.rooms[roomID]
	if !ok {
		st = &roomState{members: make(map[ConnID]ClientConn)}
		r.rooms[roomID] = st
	}
	st.refs++
	r.mu.Unlock()

	st.guard.Lock()
	fn()
	st.guard.Unlock()

	r.mu.Lock()
	st.refs--
	if st.refs == 0 && len(st.members) == 0 {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()
}

// Join adds the connection to the room. Caller must hold the room's
// serialization section.
func (r *RoomRegistry) Join(roomID string, id ConnID, conn ClientConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		// Serialize already created the state; reaching here means misuse.
		st = &roomState{members: make(map[ConnID]ClientConn)}
		r.rooms[roomID] = st
	}
	st.members[id] = conn
	log.Debug().Str("module", "core.rooms").Str("room", roomID).Str("conn", string(id)).Int("size", len(st.members)).Msg("member joined")
}

// Leave removes the connection and reports whether it was a member.
// Caller must hold the room's serialization section; the empty room is
// reclaimed when that section ends.
func (r *RoomRegistry) Leave(roomID string, id ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, member := st.members[id]; !member {
		return false
	}
	delete(st.members, id)
	log.Debug().Str("module", "core.rooms").Str("room", roomID).Str("conn", string(id)).Int("size", len(st.members)).Msg("member left")
	return true
}

// Members returns an immutable snapshot, so fan-out is unaffected by
// concurrent membership changes mid-iteration.
func (r *RoomRegistry) Members(roomID string) []MemberRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]MemberRef, 0, len(st.members))
	for id, conn := range st.members {
		out = append(out, MemberRef{ID: id, Conn: conn})
	}
	return out
}

// Contains reports current membership of one connection.
func (r *RoomRegistry) Contains(roomID string, id ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, member := st.members[id]
	return member
}

func (r *RoomRegistry) Size(roomID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	return len(st.members)
}

// List returns every live room, sorted by id for stable output.
func (r *RoomRegistry) List() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, st := range r.rooms {
		if len(st.members) == 0 {
			continue
		}
		info := RoomInfo{ID: id, Size: len(st.members)}
		for cid := range st.members {
			info.Members = append(info.Members, cid)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
