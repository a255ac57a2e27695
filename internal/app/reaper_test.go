package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

func Test_Disconnect_Cleans_Membership(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c1, _ := joinBoth(t, f)
	req.Equal(2, f.rooms.Size("S1"))

	f.reaper.OnDisconnect(context.Background(), "c2")

	req.Equal(1, f.rooms.Size("S1"))
	_, err := f.conns.Lookup("c2")
	req.ErrorIs(err, core.ErrNotRegistered)

	types := c1.eventTypes(t)
	req.Contains(types, "presence")
	evts := c1.events(t)
	last := evts[len(evts)-1]
	req.Equal("message", last["type"])
	req.Equal("Bob a quitté la session", last["message"].(map[string]any)["body"])
}

func Test_Disconnect_Last_Member_Removes_Room(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.sessions.put(openSession("S1"))
	f.connect(t, "c1", domain.Authenticated("u1", "Alice", domain.RoleStudent))
	req.NoError(f.gateway.Join(context.Background(), "c1", "S1", ""))

	f.reaper.OnDisconnect(context.Background(), "c1")

	req.Zero(f.rooms.Size("S1"))
	req.Empty(f.rooms.List())
}

func Test_Disconnect_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.sessions.put(openSession("S1"))
	f.connect(t, "c1", domain.Authenticated("u1", "Alice", domain.RoleStudent))
	req.NoError(f.gateway.Join(context.Background(), "c1", "S1", ""))

	f.reaper.OnDisconnect(context.Background(), "c1")
	f.reaper.OnDisconnect(context.Background(), "c1")

	req.Zero(f.rooms.Size("S1"))
}

func Test_Disconnect_Without_Room_Just_Unregisters(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.connect(t, "c1", domain.Authenticated("u1", "Alice", domain.RoleStudent))

	f.reaper.OnDisconnect(context.Background(), "c1")

	_, err := f.conns.Lookup("c1")
	req.ErrorIs(err, core.ErrNotRegistered)
}

func Test_Kick_Ejects_And_Closes(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, c2 := joinBoth(t, f)

	f.reaper.Kick(context.Background(), "c2", "S1", "expulsé par le professeur")

	req.Contains(c2.eventTypes(t), "kicked")
	req.True(c2.closed)
	req.Equal(1, f.rooms.Size("S1"))
	_, err := f.conns.Lookup("c2")
	req.ErrorIs(err, core.ErrNotRegistered)
}

// Full walkthrough of a small class: the teacher opens the room, a
// student joins and chats, then drops off.
func Test_Class_Session_Walkthrough(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	sess := openSession("S1")
	sess.Participants = []string{"u2"}
	f.sessions.put(sess)

	teacher := f.connect(t, "c1", domain.Authenticated("t1", "Mme Dupont", domain.RoleTeacher))
	student := f.connect(t, "c2", domain.Authenticated("u2", "C2", domain.RoleStudent))

	req.NoError(f.gateway.Join(context.Background(), "c1", "S1", ""))
	req.Equal([]string{"joined", "history"}, teacher.eventTypes(t))

	req.NoError(f.gateway.Join(context.Background(), "c2", "S1", ""))
	types := teacher.eventTypes(t)
	req.Contains(types, "presence")
	evts := teacher.events(t)
	req.Equal("C2 a rejoint la session", evts[len(evts)-1]["message"].(map[string]any)["body"])

	req.NoError(f.router.Send(context.Background(), "c1", "S1", "Bonjour"))
	req.Equal([]string{"Bonjour"}, messageBodies(t, teacher))
	req.Equal([]string{"Bonjour"}, messageBodies(t, student))

	req.Equal(2, f.rooms.Size("S1"))
	f.reaper.OnDisconnect(context.Background(), "c2")
	req.Equal(1, f.rooms.Size("S1"))

	evts = teacher.events(t)
	var sawLeft bool
	for _, e := range evts {
		if e["type"] == "presence" && e["event"] == "left" {
			sawLeft = true
		}
	}
	req.True(sawLeft)
}
