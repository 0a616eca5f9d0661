package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/app/orch"
	"github.com/dkeye/Valley/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	url   string
	rooms *core.RoomManager
	reg   *app.Registry
	stop  context.CancelFunc
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rooms := core.NewRoomManager(core.DefaultLimits())
	reg := app.NewRegistry(rooms)
	o := &orch.Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Presence: app.NewPresence(reg, rooms),
		Out:      app.NewFanout(reg, rooms, app.SimplePolicy{}),
	}
	ctrl := NewSignalWSController(o, NewRoomRateLimiter(limit, time.Minute, nil), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctrl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", rooms: rooms, reg: reg, stop: cancel}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	// Every connection is greeted with the global counters.
	readUntil(t, conn, core.EvGlobalStats)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"type": typ, "data": data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// readUntil skips frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", typ)
		var ev wireEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Type == typ {
			return ev
		}
	}
}

func TestJoinAndChat(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)
	ben := s.dial(t)

	send(t, ann, core.EvJoinRoom, map[string]string{"username": "Ann", "roomName": "Garden", "roomType": "normal"})
	ev := readUntil(t, ann, core.EvJoinSuccess)
	var js core.JoinSuccess
	require.NoError(t, json.Unmarshal(ev.Data, &js))
	assert.Equal(t, core.JoinSuccess{Username: "Ann", RoomName: "Garden", UserCount: 1}, js)

	send(t, ben, core.EvJoinRoom, map[string]string{"username": "Ben", "roomName": "Garden"})
	readUntil(t, ben, core.EvJoinSuccess)
	ev = readUntil(t, ann, core.EvRoomNotification)
	assert.JSONEq(t, `{"type":"join","username":"Ben","roomName":"Garden"}`, string(ev.Data))

	send(t, ben, core.EvSendMessage, map[string]string{"message": "hi Ann"})
	ev = readUntil(t, ann, core.EvMessage)
	var msg struct {
		Author string `json:"author"`
		Text   string `json:"text"`
		Kind   string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Equal(t, "Ben", msg.Author)
	assert.Equal(t, "hi Ann", msg.Text)
	assert.Equal(t, "user", msg.Kind)
}

func TestJoinErrorOverWire(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)

	send(t, ann, core.EvJoinRoom, map[string]string{"username": "", "roomName": "Garden"})
	ev := readUntil(t, ann, core.EvJoinError)
	assert.JSONEq(t, `{"message":"Username cannot be empty"}`, string(ev.Data))
}

func TestSendBeforeJoin(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)

	send(t, ann, core.EvSendMessage, map[string]string{"message": "hello"})
	ev := readUntil(t, ann, core.EvError)
	assert.JSONEq(t, `{"message":"not logged in"}`, string(ev.Data))
}

func TestRateLimitOverWire(t *testing.T) {
	s := newTestServer(t, 2)
	ann := s.dial(t)
	send(t, ann, core.EvJoinRoom, map[string]string{"username": "Ann", "roomName": "Garden"})
	readUntil(t, ann, core.EvJoinSuccess)

	for range 3 {
		send(t, ann, core.EvSendMessage, map[string]string{"message": "spam"})
	}
	ev := readUntil(t, ann, core.EvError)
	assert.JSONEq(t, `{"message":"slow down"}`, string(ev.Data))
}

func TestPingAndBadPayload(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)

	send(t, ann, core.EvPing, nil)
	readUntil(t, ann, core.EvPong)

	require.NoError(t, ann.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev := readUntil(t, ann, core.EvError)
	assert.JSONEq(t, `{"message":"bad payload"}`, string(ev.Data))

	// Still serving.
	send(t, ann, core.EvGetRoomStats, nil)
	ev = readUntil(t, ann, core.EvRoomStats)
	assert.JSONEq(t, `{"totalUsers":0,"totalRooms":0}`, string(ev.Data))
}

func TestCloseLeavesRoom(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)
	ben := s.dial(t)
	send(t, ann, core.EvJoinRoom, map[string]string{"username": "Ann", "roomName": "Garden"})
	readUntil(t, ann, core.EvJoinSuccess)
	send(t, ben, core.EvJoinRoom, map[string]string{"username": "Ben", "roomName": "Garden"})
	readUntil(t, ben, core.EvJoinSuccess)

	require.NoError(t, ben.Close())
	ev := readUntil(t, ann, core.EvRoomNotification)
	for !strings.Contains(string(ev.Data), `"leave"`) {
		ev = readUntil(t, ann, core.EvRoomNotification)
	}
	assert.JSONEq(t, `{"type":"leave","username":"Ben","roomName":"Garden"}`, string(ev.Data))

	require.NoError(t, ann.Close())
	require.Eventually(t, func() bool {
		return !s.rooms.Exists("Garden") && len(s.reg.ConnectedIDs()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPanicInHandlerIsContained(t *testing.T) {
	// A dispatcher without presence panics on get-stats.
	ctl := NewSignalWSController(&orch.Orchestrator{}, nil, Options{})
	conn := &WsSignalConn{send: make(chan core.Frame, 4)}

	assert.NotPanics(t, func() {
		ctl.handleSignal("s1", conn, []byte(`{"type":"get-stats"}`))
	})
}

func TestMusicControlsOverWire(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)

	send(t, ann, core.EvMusicToggle, struct{}{})
	ev := readUntil(t, ann, core.EvError)
	assert.JSONEq(t, `{"message":"not logged in"}`, string(ev.Data))

	send(t, ann, core.EvJoinRoom, map[string]string{"username": "Ann", "roomName": "Garden"})
	readUntil(t, ann, core.EvJoinSuccess)

	send(t, ann, core.EvMusicStop, struct{}{})
	ev = readUntil(t, ann, core.EvError)
	assert.JSONEq(t, `{"message":"Nothing is playing"}`, string(ev.Data))
}

func TestServerStopReleasesSilentPeer(t *testing.T) {
	s := newTestServer(t, 20)
	ann := s.dial(t)
	send(t, ann, core.EvJoinRoom, map[string]string{"username": "Ann", "roomName": "Garden"})
	readUntil(t, ann, core.EvJoinSuccess)

	// The client never reads again, so it never answers the close frame.
	s.stop()
	require.Eventually(t, func() bool {
		return len(s.reg.ConnectedIDs()) == 0 && !s.rooms.Exists("Garden")
	}, 2*time.Second, 10*time.Millisecond)
}
