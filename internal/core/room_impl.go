package core

import (
	"context"
	"slices"
	"time"

	"github.com/dkeye/Valley/internal/domain"
)

type seat struct {
	sid    SessionID
	member domain.Member
}

type playbackSlot struct {
	state  domain.PlaybackState
	cancel context.CancelFunc
}

// stop cancels the sync tick exactly once.
func (p *playbackSlot) stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// roomImpl is an in-memory room. It has no lock of its own: every access
// goes through RoomManager, which serializes all mutations.
type roomImpl struct {
	room       domain.Room
	seats      []seat // join order
	history    []domain.Message
	maxHistory int
	convo      *domain.Conversation
	playback   *playbackSlot
}

func newRoom(name domain.RoomName, kind domain.RoomKind, lim Limits) *roomImpl {
	return &roomImpl{
		room:       domain.Room{Name: name, Kind: kind, CreatedAt: time.Now()},
		maxHistory: lim.History,
		convo:      domain.NewConversation(lim.AITurns),
	}
}

func (r *roomImpl) info() RoomInfo {
	return RoomInfo{
		Name:        r.room.Name,
		Kind:        r.room.Kind,
		MemberCount: len(r.seats),
		CreatedAt:   r.room.CreatedAt,
		Playing:     r.playback != nil && r.playback.state.IsPlaying,
	}
}

func (r *roomImpl) indexOf(sid SessionID) int {
	return slices.IndexFunc(r.seats, func(s seat) bool { return s.sid == sid })
}

func (r *roomImpl) hasUsername(username string) bool {
	return slices.ContainsFunc(r.seats, func(s seat) bool { return s.member.Username == username })
}

func (r *roomImpl) add(sid SessionID, m domain.Member) {
	if i := r.indexOf(sid); i >= 0 {
		r.seats[i].member = m
		return
	}
	r.seats = append(r.seats, seat{sid: sid, member: m})
}

func (r *roomImpl) remove(sid SessionID) bool {
	i := r.indexOf(sid)
	if i < 0 {
		return false
	}
	r.seats = slices.Delete(r.seats, i, i+1)
	return true
}

func (r *roomImpl) members() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.seats))
	for _, s := range r.seats {
		out = append(out, MemberDTO{SID: s.sid, Username: s.member.Username})
	}
	return out
}

func (r *roomImpl) appendMessage(msg domain.Message) {
	r.history = append(r.history, msg)
	if over := len(r.history) - r.maxHistory; over > 0 {
		r.history = slices.Delete(r.history, 0, over)
	}
}

// release drops everything attached to the room.
func (r *roomImpl) release() {
	if r.playback != nil {
		r.playback.stop()
		r.playback = nil
	}
	r.convo = nil
	r.history = nil
}
