// Package signal is the websocket transport for the live-session chat
// core: one connection per client, JSON envelopes dispatched on "type".
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Options are the transport knobs the controller needs.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

// Controller wires websocket connections to the presence/chat core.
type Controller struct {
	Conns   *app.ConnRegistry
	Gateway *app.Gateway
	Router  *app.Router
	History *app.History
	Reaper  *app.Reaper
	Opts    Options
}

// WsConn is the outbound half of one websocket link. Frames are queued on
// a buffered channel; a full channel fails fast instead of blocking the
// room's fan-out.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and registers the connection. The identity
// was resolved by middleware; guests come through like everyone else.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	identity, ok := c.MustGet("identity").(domain.Identity)
	if !ok {
		identity = domain.Guest()
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Opts.ReadLimit)

	id := core.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}

	if err := ctl.Conns.Register(id, identity, conn); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("register failed")
		_ = ws.Close()
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", identity.DisplayName).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, id, conn)
		ctl.Reaper.OnDisconnect(context.Background(), id)
	}()
}

func (ctl *Controller) sendError(conn *WsConn, err error) {
	code, ok := core.CodeOf(err)
	if !ok {
		// Internal registry misuse never reaches the wire in detail.
		code = core.CodeSendError
	}
	detail := ""
	var ce *core.Error
	if errors.As(err, &ce) {
		detail = ce.Detail
	}
	ctl.sendJSON(conn, core.ErrorEvent{Type: "error", Code: code, Detail: detail})
}

func (ctl *Controller) sendJSON(conn *WsConn, v any) {
	frame, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode event")
		return
	}
	_ = conn.TrySend(frame)
}
