package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// events decodes every frame received so far.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	evts := c.events(t)
	out := make([]string, 0, len(evts))
	for _, e := range evts {
		out = append(out, e["type"].(string))
	}
	return out
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	onGet    func() // runs before every lookup, for race tests
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]*domain.Session)}
}

func (s *fakeSessions) put(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *fakeSessions) GetSession(_ context.Context, id string) (*domain.Session, error) {
	if s.onGet != nil {
		s.onGet()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrNoSession
	}
	cp := *sess
	return &cp, nil
}

type fakeMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
	fail bool
}

func (s *fakeMessages) Insert(_ context.Context, roomID string, author *domain.Identity, body string, kind domain.MessageKind) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	msg := domain.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Author:    author,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	s.msgs = append(s.msgs, msg)
	return &msg, nil
}

func (s *fakeMessages) Query(_ context.Context, roomID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeMessages) count(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.msgs {
		if m.RoomID == roomID {
			n++
		}
	}
	return n
}

type fixture struct {
	conns    *ConnRegistry
	rooms    *core.RoomRegistry
	sessions *fakeSessions
	messages *fakeMessages
	history  *History
	presence *Presence
	gateway  *Gateway
	router   *Router
	reaper   *Reaper
	window   time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		conns:    NewConnRegistry(),
		rooms:    core.NewRoomRegistry(),
		sessions: newFakeSessions(),
		messages: &fakeMessages{},
		window:   20 * time.Millisecond,
	}
	timeout := time.Second
	f.presence = NewPresence(f.rooms, f.messages, timeout)
	f.history = NewHistory(f.messages, 50, 100, timeout)
	f.gateway = NewGateway(f.conns, f.rooms, f.sessions, f.history, f.presence, timeout)
	f.router = NewRouter(f.conns, f.rooms, f.messages, f.window, 2000, false, timeout)
	f.reaper = NewReaper(f.conns, f.rooms, f.presence)
	return f
}

func (f *fixture) connect(t *testing.T, id core.ConnID, identity domain.Identity) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	require.NoError(t, f.conns.Register(id, identity, conn))
	return conn
}

func openSession(id string) *domain.Session {
	return &domain.Session{
		ID:          id,
		Title:       "Cours de maths",
		Status:      domain.StatusLive,
		TeacherID:   "t1",
		GuestPolicy: domain.GuestsDenied,
		Participants: []string{
			"u1", "u2",
		},
	}
}
