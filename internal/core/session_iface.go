package core

import "github.com/dkeye/Valley/internal/domain"

// SessionID identifies one live connection.
type SessionID string

// Broadcaster fans events out to connections. Delivery is best-effort:
// implementations never block on a slow receiver.
type Broadcaster interface {
	SendTo(sid SessionID, ev Event)
	// SendRoom delivers to every member of room except the given sid.
	// Pass an empty except to reach the whole room.
	SendRoom(room domain.RoomName, ev Event, except SessionID)
	SendAll(ev Event)
}
