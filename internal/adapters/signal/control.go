package signal

import "github.com/edulive/classroom/internal/core"

func (ctl *Controller) handlePing(conn *WsConn) {
	ctl.sendJSON(conn, core.PongEvent{Type: "pong"})
}
