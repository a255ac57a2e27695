package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
)

func (ctl *Controller) handleJoin(ctx context.Context, id core.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Session  string `json:"session"`
		Password string `json:"password,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Session == "" {
		ctl.sendJSON(c, core.ErrorEvent{Type: "error", Code: core.CodeInvalidData, Detail: "session manquante"})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("session", p.Session).Msg("join")
	if err := ctl.Gateway.Join(ctx, id, p.Session, p.Password); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *Controller) handleLeave(ctx context.Context, id core.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Session string `json:"session"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Session == "" {
		ctl.sendJSON(c, core.ErrorEvent{Type: "error", Code: core.CodeInvalidData, Detail: "session manquante"})
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(id)).Str("session", p.Session).Msg("leave")
	if err := ctl.Gateway.Leave(ctx, id, p.Session); err != nil {
		ctl.sendError(c, err)
	}
}
