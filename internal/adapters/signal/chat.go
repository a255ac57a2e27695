package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/core"
)

func (ctl *Controller) handleSend(ctx context.Context, id core.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Session string `json:"session"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Session == "" {
		ctl.sendJSON(c, core.ErrorEvent{Type: "error", Code: core.CodeInvalidData, Detail: "données de message invalides"})
		return
	}

	if err := ctl.Router.Send(ctx, id, p.Session, p.Body); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *Controller) handleTyping(id core.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Session  string `json:"session"`
		IsTyping bool   `json:"is_typing"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Session == "" {
		return
	}
	ctl.Router.Typing(id, p.Session, p.IsTyping)
}

func (ctl *Controller) handleHistory(ctx context.Context, id core.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Session string `json:"session"`
		Limit   int    `json:"limit,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Session == "" {
		ctl.sendJSON(c, core.ErrorEvent{Type: "error", Code: core.CodeInvalidData, Detail: "session manquante"})
		return
	}

	msgs, err := ctl.History.Recent(ctx, p.Session, p.Limit)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("session", p.Session).Msg("history request failed")
		return
	}
	ctl.sendJSON(c, ctl.History.Event(p.Session, msgs))
}
