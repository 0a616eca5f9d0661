package app

import (
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
)

// Presence derives member lists and global counters. Nothing is cached:
// every call reads the registries.
type Presence struct {
	Sessions *Registry
	Rooms    core.RoomRegistry
}

func NewPresence(sessions *Registry, rooms core.RoomRegistry) *Presence {
	return &Presence{Sessions: sessions, Rooms: rooms}
}

// MemberList returns the room's members in join order.
func (p *Presence) MemberList(room domain.RoomName) []core.MemberDTO {
	return p.Rooms.Members(room)
}

func (p *Presence) GlobalStats() core.Stats {
	return core.Stats{
		TotalUsers: p.Sessions.GlobalUserCount(),
		TotalRooms: p.Rooms.RoomCount(),
	}
}
