package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager is the threadsafe RoomRegistry. A single mutex guards the
// room map and every room in it, so check-then-act sequences such as
// capacity-check-then-seat and empty-check-then-delete are atomic.
type RoomManager struct {
	mu     sync.Mutex
	rooms  map[domain.RoomName]*roomImpl
	limits Limits
}

func NewRoomManager(lim Limits) *RoomManager {
	def := DefaultLimits()
	if lim.Capacity <= 0 {
		lim.Capacity = def.Capacity
	}
	if lim.History <= 0 {
		lim.History = def.History
	}
	if lim.AITurns <= 0 {
		lim.AITurns = def.AITurns
	}
	return &RoomManager{
		rooms:  make(map[domain.RoomName]*roomImpl),
		limits: lim,
	}
}

func (m *RoomManager) Exists(name domain.RoomName) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rooms[name]
	return ok
}

// Create is idempotent: an existing room is returned untouched.
func (m *RoomManager) Create(name domain.RoomName, kind domain.RoomKind) RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(name, kind).info()
}

func (m *RoomManager) getOrCreateLocked(name domain.RoomName, kind domain.RoomKind) *roomImpl {
	if r, ok := m.rooms[name]; ok {
		return r
	}
	r := newRoom(name, kind, m.limits)
	m.rooms[name] = r
	log.Info().Str("module", "core.rooms").Str("room", string(name)).Str("kind", string(kind)).Msg("room created")
	return r
}

func (m *RoomManager) Get(name domain.RoomName) (RoomInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return RoomInfo{}, false
	}
	return r.info(), true
}

// Delete removes the room with its playback state and AI conversation.
// Deleting a missing room is a no-op.
func (m *RoomManager) Delete(name domain.RoomName) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(name)
}

func (m *RoomManager) deleteLocked(name domain.RoomName) bool {
	r, ok := m.rooms[name]
	if !ok {
		return false
	}
	r.release()
	delete(m.rooms, name)
	log.Info().Str("module", "core.rooms").Str("room", string(name)).Msg("room deleted")
	return true
}

func (m *RoomManager) List() []RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.info())
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (m *RoomManager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// SweepEmpty deletes every room without members and returns their names.
func (m *RoomManager) SweepEmpty() []domain.RoomName {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept []domain.RoomName
	for name, r := range m.rooms {
		if len(r.seats) == 0 {
			m.deleteLocked(name)
			swept = append(swept, name)
		}
	}
	return swept
}

func (m *RoomManager) Admit(name domain.RoomName, kind domain.RoomKind, sid SessionID, mem domain.Member) (RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.getOrCreateLocked(name, kind)
	if r.room.Kind == domain.RoomNormal && len(r.seats) >= m.limits.Capacity {
		return r.info(), fmt.Errorf("admit %q to %q: %w", mem.Username, name, ErrRoomFull)
	}
	if r.hasUsername(mem.Username) {
		return r.info(), fmt.Errorf("admit %q to %q: %w", mem.Username, name, ErrNameTaken)
	}
	r.add(sid, mem)
	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("room", string(name)).Str("username", mem.Username).Msg("member added")
	return r.info(), nil
}

func (m *RoomManager) Remove(name domain.RoomName, sid SessionID) (deleted bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.rooms[name]
	if !exists || !r.remove(sid) {
		return false, false
	}
	log.Info().Str("module", "core.rooms").Str("sid", string(sid)).Str("room", string(name)).Msg("member removed")
	if len(r.seats) == 0 {
		return m.deleteLocked(name), true
	}
	return false, true
}

func (m *RoomManager) MemberCount(name domain.RoomName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		return len(r.seats)
	}
	return 0
}

func (m *RoomManager) Members(name domain.RoomName) []MemberDTO {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		return r.members()
	}
	return []MemberDTO{}
}

func (m *RoomManager) UsernameTaken(name domain.RoomName, username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	return ok && r.hasUsername(username)
}

// AppendMessage is a no-op when the room is gone.
func (m *RoomManager) AppendMessage(name domain.RoomName, msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		r.appendMessage(msg)
	}
}

func (m *RoomManager) History(name domain.RoomName) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return []domain.Message{}
	}
	return slices.Clone(r.history)
}

func (m *RoomManager) Conversation(name domain.RoomName) []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok && r.convo != nil {
		return r.convo.Turns()
	}
	return nil
}

func (m *RoomManager) RecordExchange(name domain.RoomName, prompt, reply string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok || r.convo == nil {
		return false
	}
	r.convo.Record(prompt, reply)
	return true
}

func (m *RoomManager) AttachPlayback(name domain.RoomName, state domain.PlaybackState, cancel context.CancelFunc) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return false, fmt.Errorf("attach playback to %q: %w", name, ErrRoomNotFound)
	}
	replaced := r.playback != nil
	if replaced {
		r.playback.stop()
	}
	r.playback = &playbackSlot{state: state, cancel: cancel}
	return replaced, nil
}

func (m *RoomManager) DetachPlayback(name domain.RoomName) (domain.PlaybackState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok || r.playback == nil {
		return domain.PlaybackState{}, false
	}
	st := r.playback.state
	r.playback.stop()
	r.playback = nil
	return st, true
}

// SyncPlayback refreshes the stored offset from the clock and returns it.
func (m *RoomManager) SyncPlayback(name domain.RoomName, now time.Time) (domain.PlaybackState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok || r.playback == nil {
		return domain.PlaybackState{}, false
	}
	r.playback.state.Elapsed = r.playback.state.ElapsedAt(now)
	return r.playback.state, true
}

func (m *RoomManager) TogglePlayback(name domain.RoomName, now time.Time, resume func() context.CancelFunc) (domain.PlaybackState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[name]
	if !ok {
		return domain.PlaybackState{}, fmt.Errorf("toggle playback in %q: %w", name, ErrRoomNotFound)
	}
	if r.playback == nil {
		return domain.PlaybackState{}, fmt.Errorf("toggle playback in %q: %w", name, ErrNoPlayback)
	}
	slot := r.playback
	if slot.state.IsPlaying {
		slot.state.Pause(now)
		slot.stop()
	} else {
		slot.state.Resume(now)
		slot.stop()
		if resume != nil {
			slot.cancel = resume()
		}
	}
	return slot.state, nil
}
