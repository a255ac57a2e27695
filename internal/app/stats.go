package app

import (
	"github.com/samber/lo"

	"github.com/edulive/classroom/internal/core"
)

type MemberStats struct {
	ConnID   core.ConnID `json:"conn_id"`
	UserID   string      `json:"user_id,omitempty"`
	UserName string      `json:"user_name"`
	Role     string      `json:"role,omitempty"`
	Guest    bool        `json:"guest"`
}

type RoomStats struct {
	Session string        `json:"session"`
	Size    int           `json:"size"`
	Members []MemberStats `json:"members"`
}

type StatsReport struct {
	ConnectedUsers int         `json:"connected_users"`
	ActiveRooms    int         `json:"active_rooms"`
	Rooms          []RoomStats `json:"rooms"`
}

// BuildStats joins the two registries into one admin snapshot.
func BuildStats(conns *ConnRegistry, rooms *core.RoomRegistry) StatsReport {
	byID := lo.KeyBy(conns.Snapshot(), func(s ConnSnapshot) core.ConnID { return s.ID })

	roomStats := lo.Map(rooms.List(), func(info core.RoomInfo, _ int) RoomStats {
		members := lo.FilterMap(info.Members, func(id core.ConnID, _ int) (MemberStats, bool) {
			s, ok := byID[id]
			if !ok {
				return MemberStats{}, false
			}
			return MemberStats{
				ConnID:   id,
				UserID:   s.Identity.UserID,
				UserName: s.Identity.DisplayName,
				Role:     string(s.Identity.Role),
				Guest:    s.Identity.IsGuest(),
			}, true
		})
		return RoomStats{Session: info.ID, Size: info.Size, Members: members}
	})

	return StatsReport{
		ConnectedUsers: conns.Len(),
		ActiveRooms:    len(roomStats),
		Rooms:          roomStats,
	}
}
