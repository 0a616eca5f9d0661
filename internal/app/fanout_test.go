package app

import (
	"sync"
	"testing"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return assert.AnError
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev.Type)
	}
	return out
}

func TestFanoutRoutes(t *testing.T) {
	reg, rooms := newTestRegistry()
	ann, ben, lobby := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.BindSignal("ann", ann, func() {})
	reg.BindSignal("ben", ben, func() {})
	reg.BindSignal("lobby", lobby, func() {})
	_, _, _ = reg.Join("ann", "Ann", "Garden", domain.RoomNormal)
	_, _, _ = reg.Join("ben", "Ben", "Garden", domain.RoomNormal)

	f := NewFanout(reg, rooms, nil)
	f.SendTo("ann", core.NewEvent(core.EvPong, nil))
	f.SendRoom("Garden", core.NewEvent(core.EvMessage, domain.SystemMessage("hi")), "ann")
	f.SendRoom("Garden", core.NewEvent(core.EvUsersUpdate, rooms.Members("Garden")), "")
	f.SendAll(core.NewEvent(core.EvGlobalStats, core.Stats{TotalUsers: 2, TotalRooms: 1}))

	assert.Equal(t, []string{core.EvPong, core.EvUsersUpdate, core.EvGlobalStats}, ann.types(t))
	assert.Equal(t, []string{core.EvMessage, core.EvUsersUpdate, core.EvGlobalStats}, ben.types(t))
	assert.Equal(t, []string{core.EvGlobalStats}, lobby.types(t))
}

func TestFanoutEncodesMemberList(t *testing.T) {
	reg, rooms := newTestRegistry()
	ann := &fakeConn{}
	reg.BindSignal("ann", ann, func() {})
	_, _, _ = reg.Join("ann", "Ann", "Garden", domain.RoomNormal)

	NewFanout(reg, rooms, nil).SendTo("ann", core.NewEvent(core.EvUsersUpdate, rooms.Members("Garden")))

	require.Len(t, ann.frames, 1)
	assert.JSONEq(t, `{"type":"users-update","data":[{"username":"Ann"}]}`, string(ann.frames[0]))
}

func TestFanoutKicksSlowConnection(t *testing.T) {
	reg, rooms := newTestRegistry()
	kicked := false
	reg.BindSignal("slow", &fakeConn{full: true}, func() { kicked = true })

	NewFanout(reg, rooms, SimplePolicy{}).SendTo("slow", core.NewEvent(core.EvPong, nil))
	assert.True(t, kicked)
}

func TestFanoutLenientPolicyDrops(t *testing.T) {
	reg, rooms := newTestRegistry()
	kicked := false
	reg.BindSignal("slow", &fakeConn{full: true}, func() { kicked = true })

	NewFanout(reg, rooms, PolicyByName("drop")).SendTo("slow", core.NewEvent(core.EvPong, nil))
	assert.False(t, kicked)
}

func TestFanoutSkipsClosedConnection(t *testing.T) {
	reg, rooms := newTestRegistry()
	kicked := false
	reg.BindSignal("gone", &fakeConn{closed: true}, func() { kicked = true })

	NewFanout(reg, rooms, SimplePolicy{}).SendTo("gone", core.NewEvent(core.EvPong, nil))
	assert.False(t, kicked)
}
