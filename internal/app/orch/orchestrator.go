package orch

import (
	"errors"

	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
)

const (
	MusicCommand = "/music"
	AIPrefix     = "/model "
)

// Radio is the part of the playback coordinator the dispatcher drives.
type Radio interface {
	RequestTrack(room domain.RoomName, user string)
	Toggle(room domain.RoomName, user string) bool
	Stop(room domain.RoomName, by string) bool
	State(room domain.RoomName) (domain.PlaybackState, bool)
}

type Assistant interface {
	Ask(room domain.RoomName, prompt string)
	Label() string
}

// TextLimits bound the user-supplied fields.
type TextLimits struct {
	Username int
	RoomName int
	Message  int
}

func DefaultTextLimits() TextLimits {
	return TextLimits{
		Username: domain.MaxUsernameLen,
		RoomName: domain.MaxRoomNameLen,
		Message:  domain.MaxMessageLen,
	}
}

// Orchestrator handles every inbound event of a connection. All replies go
// through Out; nothing here touches a socket.
type Orchestrator struct {
	Registry  *app.Registry
	Rooms     core.RoomRegistry
	Presence  *app.Presence
	Out       core.Broadcaster
	Radio     Radio
	Assistant Assistant
	Limits    TextLimits
}

func (o *Orchestrator) limits() TextLimits {
	l := o.Limits
	def := DefaultTextLimits()
	if l.Username <= 0 {
		l.Username = def.Username
	}
	if l.RoomName <= 0 {
		l.RoomName = def.RoomName
	}
	if l.Message <= 0 {
		l.Message = def.Message
	}
	return l
}

func (o *Orchestrator) aiLabel() string {
	if o.Assistant != nil {
		return o.Assistant.Label()
	}
	return domain.AIAuthor
}

func (o *Orchestrator) sendError(sid core.SessionID, typ string, err error) {
	o.Out.SendTo(sid, core.NewEvent(typ, core.ErrorPayload{Message: userMessage(err)}))
}

func (o *Orchestrator) broadcastGlobalStats() {
	o.Out.SendAll(core.NewEvent(core.EvGlobalStats, o.Presence.GlobalStats()))
}

// userMessage maps an error to the text shown to the client.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUsernameEmpty):
		return "Username cannot be empty"
	case errors.Is(err, domain.ErrUsernameTooLong):
		return "Username is too long"
	case errors.Is(err, domain.ErrRoomNameEmpty):
		return "Room name cannot be empty"
	case errors.Is(err, domain.ErrRoomNameTooLong):
		return "Room name is too long"
	case errors.Is(err, domain.ErrMessageEmpty):
		return "Message cannot be empty"
	case errors.Is(err, domain.ErrMessageTooLong):
		return "Message is too long"
	case errors.Is(err, core.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, core.ErrNameTaken):
		return "Username already taken in this room"
	case errors.Is(err, app.ErrAlreadyJoined):
		return "Already in a room"
	case errors.Is(err, app.ErrNotJoined):
		return "not logged in"
	case errors.Is(err, core.ErrNoPlayback):
		return "Nothing is playing"
	default:
		return "Something went wrong"
	}
}
