package app

import (
	"errors"

	"github.com/dkeye/Valley/internal/app/metrics"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Fanout is the core.Broadcaster over the signal connections bound in the
// registry. Each event is encoded once and queued on every recipient
// without blocking.
type Fanout struct {
	Sessions *Registry
	Rooms    core.RoomRegistry
	Policy   Policy
}

func NewFanout(sessions *Registry, rooms core.RoomRegistry, policy Policy) *Fanout {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Fanout{Sessions: sessions, Rooms: rooms, Policy: policy}
}

func (f *Fanout) SendTo(sid core.SessionID, ev core.Event) {
	frame, ok := encode(ev)
	if !ok {
		return
	}
	f.deliver(sid, frame)
}

func (f *Fanout) SendRoom(room domain.RoomName, ev core.Event, except core.SessionID) {
	frame, ok := encode(ev)
	if !ok {
		return
	}
	for _, m := range f.Rooms.Members(room) {
		if m.SID == except {
			continue
		}
		f.deliver(m.SID, frame)
	}
}

func (f *Fanout) SendAll(ev core.Event) {
	frame, ok := encode(ev)
	if !ok {
		return
	}
	for _, sid := range f.Sessions.ConnectedIDs() {
		f.deliver(sid, frame)
	}
}

func (f *Fanout) deliver(sid core.SessionID, frame core.Frame) {
	conn, ok := f.Sessions.Signal(sid)
	if !ok {
		return
	}
	err := conn.TrySend(frame)
	switch {
	case err == nil:
		metrics.EventsSent.Inc()
		return
	case errors.Is(err, core.ErrConnClosed):
		return
	}
	metrics.FramesDropped.Inc()
	switch f.Policy.OnBackPressure(sid) {
	case KickMember:
		log.Warn().Str("module", "app.fanout").Str("sid", string(sid)).Msg("send buffer full, kicking")
		f.Sessions.Cancel(sid)
	case DropFrame, NoAction:
	}
}

func encode(ev core.Event) (core.Frame, bool) {
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.fanout").Str("type", ev.Type).Msg("encode event")
		return nil, false
	}
	return b, true
}
