package core

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Valley/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
	ErrNameTaken    = errors.New("username taken")
	ErrNoPlayback   = errors.New("nothing is playing")
)

const (
	DefaultRoomCapacity = 10
	DefaultHistorySize  = 50
)

// Limits are the fixed room policies.
type Limits struct {
	Capacity int // members per Normal room
	History  int // messages kept per room
	AITurns  int // AI conversation turns kept per room
}

func DefaultLimits() Limits {
	return Limits{
		Capacity: DefaultRoomCapacity,
		History:  DefaultHistorySize,
		AITurns:  domain.MaxAITurns,
	}
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID      SessionID `json:"-"`
	Username string    `json:"username"`
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	Kind        domain.RoomKind `json:"kind"`
	MemberCount int             `json:"userCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	Playing     bool            `json:"playing"`
}

// RoomRegistry owns every room. All methods are safe for concurrent use and
// each one is a single atomic transaction.
type RoomRegistry interface {
	Exists(name domain.RoomName) bool
	Create(name domain.RoomName, kind domain.RoomKind) RoomInfo
	Get(name domain.RoomName) (RoomInfo, bool)
	Delete(name domain.RoomName) bool
	List() []RoomInfo
	RoomCount() int
	SweepEmpty() []domain.RoomName

	// Admit creates the room if needed, enforces capacity and name
	// uniqueness, and seats the member.
	Admit(name domain.RoomName, kind domain.RoomKind, sid SessionID, m domain.Member) (RoomInfo, error)
	// Remove unseats sid and deletes the room once it is empty.
	Remove(name domain.RoomName, sid SessionID) (deleted bool, ok bool)
	MemberCount(name domain.RoomName) int
	Members(name domain.RoomName) []MemberDTO
	UsernameTaken(name domain.RoomName, username string) bool

	AppendMessage(name domain.RoomName, msg domain.Message)
	History(name domain.RoomName) []domain.Message

	Conversation(name domain.RoomName) []domain.Turn
	RecordExchange(name domain.RoomName, prompt, reply string) bool

	// AttachPlayback installs state and its tick cancel handle, replacing
	// (and cancelling) any previous one.
	AttachPlayback(name domain.RoomName, state domain.PlaybackState, cancel context.CancelFunc) (replaced bool, err error)
	DetachPlayback(name domain.RoomName) (domain.PlaybackState, bool)
	SyncPlayback(name domain.RoomName, now time.Time) (domain.PlaybackState, bool)
	// TogglePlayback flips play/pause. resume is called under the registry
	// lock when the state becomes playing and must not block.
	TogglePlayback(name domain.RoomName, now time.Time, resume func() context.CancelFunc) (domain.PlaybackState, error)
}
