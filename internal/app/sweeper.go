package app

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Valley/internal/app/metrics"
	"github.com/dkeye/Valley/internal/core"
	"github.com/rs/zerolog/log"
)

const DefaultSweepInterval = 60 * time.Second

// Sweeper periodically reclaims rooms that ended up empty.
type Sweeper struct {
	Rooms    core.RoomRegistry
	Clock    clock.Clock
	Interval time.Duration
}

func NewSweeper(rooms core.RoomRegistry, clk clock.Clock, interval time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{Rooms: rooms, Clock: clk, Interval: interval}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	t := s.Clock.Ticker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.SweepOnce()
		}
	}
}

func (s *Sweeper) SweepOnce() int {
	swept := s.Rooms.SweepEmpty()
	if len(swept) > 0 {
		metrics.RoomsSwept.Add(float64(len(swept)))
		log.Info().Str("module", "app.sweeper").Int("count", len(swept)).Msg("reclaimed empty rooms")
	}
	return len(swept)
}
