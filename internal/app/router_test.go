package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

func joinBoth(t *testing.T, f *fixture) (*fakeConn, *fakeConn) {
	t.Helper()
	f.sessions.put(openSession("S1"))
	c1 := f.connect(t, "c1", domain.Authenticated("u1", "Alice", domain.RoleStudent))
	c2 := f.connect(t, "c2", domain.Authenticated("u2", "Bob", domain.RoleStudent))
	require.NoError(t, f.gateway.Join(context.Background(), "c1", "S1", ""))
	require.NoError(t, f.gateway.Join(context.Background(), "c2", "S1", ""))
	return c1, c2
}

// messageBodies extracts the chat bodies a connection observed, in order.
func messageBodies(t *testing.T, c *fakeConn) []string {
	t.Helper()
	var out []string
	for _, e := range c.events(t) {
		if e["type"] != "message" {
			continue
		}
		m := e["message"].(map[string]any)
		if m["kind"] == string(domain.MessageUser) {
			out = append(out, m["body"].(string))
		}
	}
	return out
}

func Test_Send_While_Not_In_Room_Fails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	f.connect(t, "c1", domain.Authenticated("u1", "Alice", domain.RoleStudent))

	err := f.router.Send(context.Background(), "c1", "S1", "Bonjour")

	code, _ := core.CodeOf(err)
	req.Equal(core.CodeNotInSession, code)
	req.Zero(f.messages.count("S1"))
}

func Test_Send_Validates_Body(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	joinBoth(t, f)

	for _, body := range []string{"", "   ", strings.Repeat("a", 2001)} {
		err := f.router.Send(context.Background(), "c1", "S1", body)
		code, _ := core.CodeOf(err)
		req.Equal(core.CodeInvalidData, code)
	}
	req.Equal(2, f.messages.count("S1")) // only the two join system messages
}

func Test_Send_Broadcasts_To_All_Members_In_Order(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c1, c2 := joinBoth(t, f)

	req.NoError(f.router.Send(context.Background(), "c1", "S1", "Bonjour"))
	req.NoError(f.router.Send(context.Background(), "c2", "S1", "Salut"))

	req.Equal([]string{"Bonjour", "Salut"}, messageBodies(t, c1))
	req.Equal([]string{"Bonjour", "Salut"}, messageBodies(t, c2))

	// The sender also gets a private ack.
	req.Contains(c1.eventTypes(t), "message-sent")
}

func Test_Send_Rate_Limited_Within_Window(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	joinBoth(t, f)
	persisted := f.messages.count("S1")

	req.NoError(f.router.Send(context.Background(), "c1", "S1", "un"))
	err := f.router.Send(context.Background(), "c1", "S1", "deux")
	code, _ := core.CodeOf(err)
	req.Equal(core.CodeRateLimited, code)
	req.Equal(persisted+1, f.messages.count("S1"))

	time.Sleep(f.window + 10*time.Millisecond)
	req.NoError(f.router.Send(context.Background(), "c1", "S1", "trois"))
	req.Equal(persisted+2, f.messages.count("S1"))
}

func Test_Send_From_Guest_Rejected_By_Default(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	open := openSession("S1")
	open.GuestPolicy = domain.GuestsAllowed
	f.sessions.put(open)
	f.connect(t, "g1", domain.Guest())
	req.NoError(f.gateway.Join(context.Background(), "g1", "S1", ""))

	err := f.router.Send(context.Background(), "g1", "S1", "coucou")

	code, _ := core.CodeOf(err)
	req.Equal(core.CodeUnauthorized, code)
	req.Zero(f.messages.count("S1"))
}

func Test_Send_Persistence_Failure_Broadcasts_Nothing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c1, c2 := joinBoth(t, f)
	f.messages.fail = true

	err := f.router.Send(context.Background(), "c1", "S1", "Bonjour")

	code, _ := core.CodeOf(err)
	req.Equal(core.CodeSendError, code)
	req.Empty(messageBodies(t, c1))
	req.Empty(messageBodies(t, c2))
}

func Test_Typing_Relayed_To_Other_Members_Only(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c1, c2 := joinBoth(t, f)

	f.router.Typing("c1", "S1", true)

	req.NotContains(c1.eventTypes(t), "typing")
	req.Contains(c2.eventTypes(t), "typing")
	evts := c2.events(t)
	last := evts[len(evts)-1]
	req.Equal("Alice", last["user_name"])
	req.Equal(true, last["is_typing"])
	req.Zero(len(messageBodies(t, c2)))
}

func Test_Typing_From_Non_Member_Ignored(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, c2 := joinBoth(t, f)
	f.connect(t, "c3", domain.Authenticated("u3", "Clara", domain.RoleStudent))
	before := len(c2.events(t))

	f.router.Typing("c3", "S1", true)

	req.Equal(before, len(c2.events(t)))
}

func Test_Slow_Member_Is_Kicked_Under_Kick_Policy(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, c2 := joinBoth(t, f)
	var kicked []core.ConnID
	f.router.SetPolicy(KickPolicy{}, func(id core.ConnID) { kicked = append(kicked, id) })
	c2.full = true

	req.NoError(f.router.Send(context.Background(), "c1", "S1", "Bonjour"))

	req.Equal([]core.ConnID{"c2"}, kicked)
}
