package domain

import (
	"strings"
	"time"
)

type RoomName string

// RoomKind decides the admission policy of a room.
type RoomKind string

const (
	RoomNormal RoomKind = "normal"
	RoomAI     RoomKind = "ai"
)

// ParseRoomKind maps the wire value of roomType; anything unknown is Normal.
func ParseRoomKind(s string) RoomKind {
	if strings.EqualFold(strings.TrimSpace(s), string(RoomAI)) {
		return RoomAI
	}
	return RoomNormal
}

type Room struct {
	Name      RoomName  `json:"name"`
	Kind      RoomKind  `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member represents a user's seat in a room.
type Member struct {
	Username string    `json:"username"`
	JoinedAt time.Time `json:"-"`
}
