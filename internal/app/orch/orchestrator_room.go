package orch

import (
	"fmt"

	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connect greets a fresh connection with the global counters.
func (o *Orchestrator) Connect(sid core.SessionID) {
	o.Out.SendTo(sid, core.NewEvent(core.EvGlobalStats, o.Presence.GlobalStats()))
}

// Join seats sid in roomName and emits the join sequence in its fixed order.
func (o *Orchestrator) Join(sid core.SessionID, username, roomName, roomType string) {
	lim := o.limits()
	name, err := domain.ValidateUsername(username, lim.Username)
	if err != nil {
		o.sendError(sid, core.EvJoinError, err)
		return
	}
	rn, err := domain.ValidateRoomName(roomName, lim.RoomName)
	if err != nil {
		o.sendError(sid, core.EvJoinError, err)
		return
	}
	room := domain.RoomName(rn)

	sess, info, err := o.Registry.Join(sid, name, room, domain.ParseRoomKind(roomType))
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("room", rn).Msg("join rejected")
		o.sendError(sid, core.EvJoinError, err)
		return
	}

	o.Out.SendTo(sid, core.NewEvent(core.EvJoinSuccess, core.JoinSuccess{
		Username:  name,
		RoomName:  room,
		UserCount: info.MemberCount,
	}))

	joined := domain.SystemMessage(fmt.Sprintf("%s joined the room", name))
	o.Out.SendRoom(room, core.NewEvent(core.EvMessage, joined), sid)
	o.Out.SendRoom(room, core.NewEvent(core.EvRoomNotification, core.RoomNotification{
		Type:     core.NotifyJoin,
		Username: name,
		RoomName: room,
	}), sid)
	o.Rooms.AppendMessage(room, joined)

	o.Out.SendRoom(room, core.NewEvent(core.EvUsersUpdate, o.Presence.MemberList(room)), "")

	if history := o.Rooms.History(room); len(history) > 0 {
		o.Out.SendTo(sid, core.NewEvent(core.EvHistoryMessages, history))
	}
	o.Out.SendTo(sid, core.NewEvent(core.EvMessage,
		domain.SystemMessage(fmt.Sprintf("Welcome %s to %s!", name, rn))))
	if sess.Kind == domain.RoomAI {
		o.Out.SendTo(sid, core.NewEvent(core.EvMessage, domain.NewMessage(o.aiLabel(),
			`Hi! I'm the AI assistant. Talk to me with "/model <your question>", for example: /model hello`,
			domain.KindSystem)))
	}
	if o.Radio != nil {
		if state, ok := o.Radio.State(room); ok {
			o.Out.SendTo(sid, core.NewEvent(core.EvMusicPlay, state))
		}
	}

	o.broadcastGlobalStats()
}

// Leave is the explicit leave-room event.
func (o *Orchestrator) Leave(sid core.SessionID) {
	if !o.depart(sid) {
		o.sendError(sid, core.EvError, app.ErrNotJoined)
		return
	}
	o.Out.SendTo(sid, core.NewEvent(core.EvLeaveSuccess, nil))
	o.broadcastGlobalStats()
}

// Disconnect runs the leave sequence for a closed connection, if it had joined.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	if o.depart(sid) {
		o.broadcastGlobalStats()
	}
}

// depart removes the session first so every broadcast below already sees
// the post-leave membership.
func (o *Orchestrator) depart(sid core.SessionID) bool {
	sess, ok := o.Registry.Leave(sid)
	if !ok {
		return false
	}
	room := sess.Room

	o.Out.SendRoom(room, core.NewEvent(core.EvMessage,
		domain.SystemMessage(fmt.Sprintf("%s left the room", sess.Username))), sid)
	o.Out.SendRoom(room, core.NewEvent(core.EvRoomNotification, core.RoomNotification{
		Type:     core.NotifyLeave,
		Username: sess.Username,
		RoomName: room,
	}), sid)
	o.Out.SendRoom(room, core.NewEvent(core.EvUsersUpdate, o.Presence.MemberList(room)), sid)
	return true
}

// Stats answers get-stats with the global counters.
func (o *Orchestrator) Stats(sid core.SessionID) {
	o.Out.SendTo(sid, core.NewEvent(core.EvGlobalStats, o.Presence.GlobalStats()))
}

// RoomStats answers get-room-stats.
func (o *Orchestrator) RoomStats(sid core.SessionID) {
	o.Out.SendTo(sid, core.NewEvent(core.EvRoomStats, o.Presence.GlobalStats()))
}
