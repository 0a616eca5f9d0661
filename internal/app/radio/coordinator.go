// Package radio runs the shared per-room playback clock.
package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Valley/internal/app/metrics"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const (
	DefaultSyncInterval = time.Second
	DefaultFetchTimeout = 10 * time.Second
)

const unavailableText = "Sorry, the music service is unavailable right now. Please try again later."

type Config struct {
	Clock        clock.Clock
	SyncInterval time.Duration
	FetchTimeout time.Duration
}

// Coordinator owns the Idle -> Playing <-> Paused -> Idle machine of every
// room. The state itself and the cancel handle of its sync tick live in the
// room registry, so deleting a room also stops its tick.
type Coordinator struct {
	rooms   core.RoomRegistry
	catalog core.MusicCatalog
	out     core.Broadcaster

	clock        clock.Clock
	syncInterval time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	mu     sync.Mutex
	closed bool
	wg     conc.WaitGroup
}

// New binds the coordinator to ctx: every fetch and tick stops once it is done.
func New(ctx context.Context, rooms core.RoomRegistry, catalog core.MusicCatalog, out core.Broadcaster, cfg Config) *Coordinator {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Coordinator{
		rooms:        rooms,
		catalog:      catalog,
		out:          out,
		clock:        cfg.Clock,
		syncInterval: cfg.SyncInterval,
		fetchTimeout: cfg.FetchTimeout,
		ctx:          ctx,
	}
}

// RequestTrack replaces whatever the room is playing with a fresh random
// track. The catalog call runs in the background.
func (c *Coordinator) RequestTrack(room domain.RoomName, user string) {
	c.spawn(func() {
		c.requestTrack(room, user)
	})
}

// spawn starts fn unless Close has been called.
func (c *Coordinator) spawn(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Go(fn)
	return true
}

func (c *Coordinator) requestTrack(room domain.RoomName, user string) {
	logger := log.With().Str("module", "radio").Str("room", string(room)).Str("username", user).Logger()

	c.Stop(room, "")

	ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
	track, err := c.catalog.FetchRandomTrack(ctx)
	cancel()
	if err != nil {
		metrics.CollaboratorCalls.WithLabelValues("music", "error").Inc()
		logger.Error().Err(err).Msg("fetch track")
		c.out.SendRoom(room, core.NewEvent(core.EvMessage,
			domain.NewMessage(domain.RadioAuthor, unavailableText, domain.KindSystem)), "")
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("music", "ok").Inc()

	state := domain.NewPlayback(track, user, c.clock.Now())
	stopTick := c.startTick(room)
	replaced, err := c.rooms.AttachPlayback(room, state, stopTick)
	if err != nil {
		stopTick()
		logger.Info().Err(err).Msg("room gone before track arrived")
		return
	}
	if replaced {
		c.out.SendRoom(room, core.NewEvent(core.EvMusicStop, nil), "")
	}

	msg := domain.NewMessage(domain.RadioAuthor, fmt.Sprintf("%s requested track: %s - %s", user, track.Title, track.Artist), domain.KindSystem)
	c.out.SendRoom(room, core.NewEvent(core.EvMessage, msg), "")
	c.rooms.AppendMessage(room, msg)
	c.out.SendRoom(room, core.NewEvent(core.EvMusicPlay, state), "")
	logger.Info().Str("track", track.ID).Msg("playing")
}

// Toggle flips play/pause. It reports false when nothing is playing.
func (c *Coordinator) Toggle(room domain.RoomName, user string) bool {
	state, err := c.rooms.TogglePlayback(room, c.clock.Now(), func() context.CancelFunc {
		return c.startTick(room)
	})
	if err != nil {
		if !errors.Is(err, core.ErrNoPlayback) && !errors.Is(err, core.ErrRoomNotFound) {
			log.Error().Err(err).Str("module", "radio").Str("room", string(room)).Msg("toggle")
		}
		return false
	}

	c.out.SendRoom(room, core.NewEvent(core.EvMusicToggle, core.MusicToggle{
		IsPlaying:  state.IsPlaying,
		Elapsed:    state.Elapsed,
		ActingUser: user,
	}), "")
	action := "paused"
	if state.IsPlaying {
		action = "resumed"
	}
	c.out.SendRoom(room, core.NewEvent(core.EvMessage,
		domain.NewMessage(domain.RadioAuthor, fmt.Sprintf("%s %s the music", user, action), domain.KindSystem)), "")
	return true
}

// Stop clears the room's playback. by names the user who asked for it; an
// empty by means the track was superseded and no chat message is sent.
func (c *Coordinator) Stop(room domain.RoomName, by string) bool {
	if _, ok := c.rooms.DetachPlayback(room); !ok {
		return false
	}
	c.out.SendRoom(room, core.NewEvent(core.EvMusicStop, nil), "")
	if by != "" {
		c.out.SendRoom(room, core.NewEvent(core.EvMessage,
			domain.NewMessage(domain.RadioAuthor, fmt.Sprintf("Playback stopped by %s", by), domain.KindSystem)), "")
	}
	return true
}

// State returns the room's playback with a freshly computed offset.
func (c *Coordinator) State(room domain.RoomName) (domain.PlaybackState, bool) {
	return c.rooms.SyncPlayback(room, c.clock.Now())
}

// Wait blocks until every in-flight request and tick has returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close refuses new requests and ticks, then waits for the running ones.
// Cancel the context passed to New first or live ticks keep Close waiting.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

// startTick must not block: the registry may call it under its lock.
func (c *Coordinator) startTick(room domain.RoomName) context.CancelFunc {
	ctx, cancel := context.WithCancel(c.ctx)
	ticker := c.clock.Ticker(c.syncInterval)
	started := c.spawn(func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			state, ok := c.rooms.SyncPlayback(room, c.clock.Now())
			if !ok || !state.IsPlaying || ctx.Err() != nil {
				return
			}
			c.out.SendRoom(room, core.NewEvent(core.EvMusicSync, core.MusicSync{
				Elapsed:   state.Elapsed,
				IsPlaying: state.IsPlaying,
			}), "")
		}
	})
	if !started {
		ticker.Stop()
	}
	return cancel
}
