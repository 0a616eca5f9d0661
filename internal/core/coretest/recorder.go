// Package coretest provides an in-memory core.Broadcaster for tests.
package coretest

import (
	"slices"
	"sync"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
)

// Recorder resolves room recipients at send time, the same way the real
// fan-out does, and keeps one inbox per connection.
type Recorder struct {
	Rooms core.RoomRegistry

	mu        sync.Mutex
	inbox     map[core.SessionID][]core.Event
	connected []core.SessionID
	roomLog   map[domain.RoomName][]core.Event
}

func NewRecorder(rooms core.RoomRegistry) *Recorder {
	return &Recorder{
		Rooms:   rooms,
		inbox:   make(map[core.SessionID][]core.Event),
		roomLog: make(map[domain.RoomName][]core.Event),
	}
}

// Connect registers sid as a target of SendAll.
func (r *Recorder) Connect(sids ...core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = append(r.connected, sids...)
}

func (r *Recorder) SendTo(sid core.SessionID, ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inbox[sid] = append(r.inbox[sid], ev)
}

func (r *Recorder) SendRoom(room domain.RoomName, ev core.Event, except core.SessionID) {
	members := r.Rooms.Members(room)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomLog[room] = append(r.roomLog[room], ev)
	for _, m := range members {
		if m.SID != except {
			r.inbox[m.SID] = append(r.inbox[m.SID], ev)
		}
	}
}

func (r *Recorder) SendAll(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sid := range r.connected {
		r.inbox[sid] = append(r.inbox[sid], ev)
	}
}

// Events returns what sid received, oldest first.
func (r *Recorder) Events(sid core.SessionID) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.inbox[sid])
}

func (r *Recorder) Types(sid core.SessionID) []string {
	evs := r.Events(sid)
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

// OfType filters the inbox of sid.
func (r *Recorder) OfType(sid core.SessionID, typ string) []core.Event {
	var out []core.Event
	for _, ev := range r.Events(sid) {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// RoomEvents lists every event addressed to room, whoever was in it.
func (r *Recorder) RoomEvents(room domain.RoomName) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.roomLog[room])
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.inbox)
	clear(r.roomLog)
}
