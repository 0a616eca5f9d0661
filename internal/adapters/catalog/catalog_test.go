package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Valley-test", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRandomTrack(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"success":true,"info":{"id":1829,"name":"Tune","auther":"Band","pic_url":"https://img/1.jpg","url":"https://cdn/1.mp3"}}`)
	c := New(srv.URL, time.Second, "Valley-test")

	tr, err := c.FetchRandomTrack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Track{
		ID:        "1829",
		Title:     "Tune",
		Artist:    "Band",
		CoverURL:  "https://img/1.jpg",
		StreamURL: "https://cdn/1.mp3",
	}, tr)
}

func TestFetchRandomTrackCamelCover(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"success":true,"info":{"id":"abc","name":"Tune","auther":"Band","picUrl":"https://img/2.jpg","url":"https://cdn/2.mp3"}}`)
	tr, err := New(srv.URL, time.Second, "Valley-test").FetchRandomTrack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tr.ID)
	assert.Equal(t, "https://img/2.jpg", tr.CoverURL)
}

func TestFetchRandomTrackFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"status":      {http.StatusBadGateway, `{}`},
		"not success": {http.StatusOK, `{"success":false}`},
		"garbage":     {http.StatusOK, `<html>`},
		"no url":      {http.StatusOK, `{"success":true,"info":{"id":1}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, tc.status, tc.body)
			_, err := New(srv.URL, time.Second, "Valley-test").FetchRandomTrack(context.Background())
			assert.ErrorIs(t, err, core.ErrUnavailable)
		})
	}
}

func TestFetchRandomTrackUnconfigured(t *testing.T) {
	_, err := New("", time.Second, "").FetchRandomTrack(context.Background())
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestFetchRandomTrackHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := New(srv.URL, time.Minute, "").FetchRandomTrack(ctx)
	assert.ErrorIs(t, err, core.ErrUnavailable)
}
