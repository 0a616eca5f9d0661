package domain

import "time"

// Session is the association between one live connection and a
// (username, room) pair. It exists only between join and leave.
type Session struct {
	Username string
	Room     RoomName
	Kind     RoomKind
	JoinedAt time.Time
}
