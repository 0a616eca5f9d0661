package signal

import (
	"github.com/dkeye/Valley/internal/core"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type joinPayload struct {
	Username string `json:"username"`
	RoomName string `json:"roomName"`
	RoomType string `json:"roomType"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func (ctl *SignalWSController) handleJoin(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p joinPayload
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad join payload")
		ctl.sendJSON(conn, core.NewEvent(core.EvJoinError, core.ErrorPayload{Message: "bad payload"}))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomName).Msg("join")
	ctl.Orch.Join(sid, p.Username, p.RoomName, p.RoomType)
}

// handleLeave leaves the current room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
}

func (ctl *SignalWSController) handleSendMessage(sid core.SessionID, conn *WsSignalConn, data json.RawMessage) {
	var p messagePayload
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad message payload")
		ctl.sendError(conn, "bad payload")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(sid) {
		ctl.sendError(conn, "slow down")
		return
	}
	ctl.Orch.SendMessage(sid, p.Message)
}
