package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/Valley/internal/adapters/signal"
	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/app/orch"
	"github.com/dkeye/Valley/internal/config"
	"github.com/dkeye/Valley/internal/core"
	rest "github.com/dkeye/Valley/internal/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	rooms := core.NewRoomManager(core.DefaultLimits())
	reg := app.NewRegistry(rooms)
	presence := app.NewPresence(reg, rooms)
	o := &orch.Orchestrator{Registry: reg, Rooms: rooms, Presence: presence, Out: app.NewFanout(reg, rooms, nil)}
	cfg := &config.Config{Mode: "release", StaticPath: t.TempDir(), Secret: "test-secret"}
	return SetupRouter(t.Context(), cfg, signal.NewSignalWSController(o, nil, signal.Options{}), &rest.Handlers{Stats: presence, Rooms: rooms})
}

func TestRouterServesDiagnostics(t *testing.T) {
	r := newRouter(t)
	for _, path := range []string{"/healthz", "/metrics", "/api/stats", "/api/rooms"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestClientTokenIsStable(t *testing.T) {
	r := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "ValleySessions", cookies[0].Name)

	// A returning browser keeps its session cookie untouched.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
}
