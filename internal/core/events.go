package core

import "github.com/dkeye/Valley/internal/domain"

// Inbound event types.
const (
	EvJoinRoom     = "join-room"
	EvSendMessage  = "send-message"
	EvLeaveRoom    = "leave-room"
	EvGetStats     = "get-stats"
	EvGetRoomStats = "get-room-stats"
	EvMusicToggle  = "music-toggle"
	EvMusicStop    = "music-stop"
	EvPing         = "ping"
)

// Outbound event types.
const (
	EvJoinSuccess      = "join-success"
	EvJoinError        = "join-error"
	EvLeaveSuccess     = "leave-success"
	EvMessage          = "message"
	EvHistoryMessages  = "history-messages"
	EvUsersUpdate      = "users-update"
	EvRoomNotification = "room-notification"
	EvGlobalStats      = "global-stats"
	EvRoomStats        = "room-stats"
	EvError            = "error"
	EvMusicPlay        = "music-play"
	EvMusicSync        = "music-sync"
	EvPong             = "pong"
	// music-toggle and music-stop share their name with the inbound events.
)

// Event is the envelope on the wire: {"type": ..., "data": ...}.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func NewEvent(typ string, data any) Event {
	return Event{Type: typ, Data: data}
}

type JoinSuccess struct {
	Username  string          `json:"username"`
	RoomName  domain.RoomName `json:"roomName"`
	UserCount int             `json:"userCount"`
}

// ErrorPayload serves both join-error and error.
type ErrorPayload struct {
	Message string `json:"message"`
}

type RoomNotification struct {
	Type     string          `json:"type"`
	Username string          `json:"username"`
	RoomName domain.RoomName `json:"roomName"`
}

const (
	NotifyJoin  = "join"
	NotifyLeave = "leave"
)

type Stats struct {
	TotalUsers int `json:"totalUsers"`
	TotalRooms int `json:"totalRooms"`
}

type MusicSync struct {
	Elapsed   float64 `json:"elapsedSeconds"`
	IsPlaying bool    `json:"isPlaying"`
}

type MusicToggle struct {
	IsPlaying  bool    `json:"isPlaying"`
	Elapsed    float64 `json:"elapsedSeconds"`
	ActingUser string  `json:"actingUser"`
}
