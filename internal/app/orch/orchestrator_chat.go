package orch

import (
	"strings"

	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
)

// SendMessage posts text to the sender's room, or routes the chat commands.
func (o *Orchestrator) SendMessage(sid core.SessionID, text string) {
	sess, ok := o.Registry.Get(sid)
	if !ok {
		o.sendError(sid, core.EvError, app.ErrNotJoined)
		return
	}
	text, err := domain.ValidateMessageText(text, o.limits().Message)
	if err != nil {
		o.sendError(sid, core.EvError, err)
		return
	}

	if text == MusicCommand {
		if o.Radio != nil {
			o.Radio.RequestTrack(sess.Room, sess.Username)
		}
		return
	}

	msg := domain.NewMessage(sess.Username, text, domain.KindUser)
	o.Out.SendRoom(sess.Room, core.NewEvent(core.EvMessage, msg), "")
	o.Rooms.AppendMessage(sess.Room, msg)
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(sess.Room)).Msg("message")

	if sess.Kind != domain.RoomAI || o.Assistant == nil {
		return
	}
	if prompt, ok := strings.CutPrefix(text, AIPrefix); ok {
		if prompt = strings.TrimSpace(prompt); prompt != "" {
			o.Assistant.Ask(sess.Room, prompt)
		}
	}
}
