package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyJoined = errors.New("already in a room")
	ErrNotJoined     = errors.New("not logged in")
)

type sessionEntry struct {
	Signal  core.SignalConnection
	Cancel  context.CancelFunc
	Session *domain.Session
}

// Registry maps live connections to their transport endpoint and, once
// joined, to their session. Join and Leave hold the registry lock for the
// whole transaction and call into the room registry while holding it
// (lock order: registry, then rooms).
type Registry struct {
	mu      sync.RWMutex
	rooms   core.RoomRegistry
	entries map[core.SessionID]*sessionEntry
}

func NewRegistry(rooms core.RoomRegistry) *Registry {
	return &Registry{
		rooms:   rooms,
		entries: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		e = &sessionEntry{}
		r.entries[sid] = e
	}
	e.Signal = conn
	e.Cancel = cancel
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

// Unbind forgets the connection. Callers leave the room first.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[sid]
	if !ok || e.Signal == nil {
		return nil, false
	}
	return e.Signal, true
}

// ConnectedIDs lists every connection, joined or not.
func (r *Registry) ConnectedIDs() []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionID, 0, len(r.entries))
	for sid, e := range r.entries {
		if e.Signal != nil {
			out = append(out, sid)
		}
	}
	return out
}

// Join seats the connection in roomName. Capacity and uniqueness failures
// leave no trace besides a lazily created room.
func (r *Registry) Join(sid core.SessionID, username string, roomName domain.RoomName, kind domain.RoomKind) (domain.Session, core.RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sid]
	if ok && e.Session != nil {
		return domain.Session{}, core.RoomInfo{}, fmt.Errorf("join %q: %w", roomName, ErrAlreadyJoined)
	}

	now := time.Now()
	info, err := r.rooms.Admit(roomName, kind, sid, domain.Member{Username: username, JoinedAt: now})
	if err != nil {
		return domain.Session{}, info, err
	}
	if !ok {
		e = &sessionEntry{}
		r.entries[sid] = e
	}
	e.Session = &domain.Session{Username: username, Room: roomName, Kind: info.Kind, JoinedAt: now}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomName)).Str("username", username).Msg("joined")
	return *e.Session, info, nil
}

// Leave ends the session of sid. The room is deleted within the same
// transaction when its last member goes.
func (r *Registry) Leave(sid core.SessionID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sid]
	if !ok || e.Session == nil {
		return domain.Session{}, false
	}
	sess := *e.Session
	e.Session = nil
	if e.Signal == nil {
		delete(r.entries, sid)
	}
	deleted, _ := r.rooms.Remove(sess.Room, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(sess.Room)).Bool("room_deleted", deleted).Msg("left")
	return sess, true
}

func (r *Registry) Get(sid core.SessionID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[sid]; ok && e.Session != nil {
		return *e.Session, true
	}
	return domain.Session{}, false
}

func (r *Registry) GlobalUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.Session != nil {
			n++
		}
	}
	return n
}

func (r *Registry) UsernameTakenInRoom(username string, roomName domain.RoomName) bool {
	return r.rooms.UsernameTaken(roomName, username)
}

// CancelAll tears down every bound connection and returns how many there were.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	cancels := make([]context.CancelFunc, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Cancel != nil {
			cancels = append(cancels, e.Cancel)
		}
	}
	r.mu.RUnlock()
	for _, cancel := range cancels {
		cancel()
	}
	log.Info().Str("module", "app.registry").Int("count", len(cancels)).Msg("canceled all sessions")
	return len(cancels)
}

// Cancel tears down the connection of sid; the adapter then runs the
// regular disconnect path.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.entries[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
