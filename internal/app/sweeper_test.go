package app

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperReclaimsEmptyRooms(t *testing.T) {
	rooms := core.NewRoomManager(core.DefaultLimits())
	rooms.Create("Empty", domain.RoomNormal)
	_, err := rooms.Admit("Busy", domain.RoomNormal, "s1", domain.Member{Username: "Ann"})
	require.NoError(t, err)

	mock := clock.NewMock()
	s := NewSweeper(rooms, mock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		return !rooms.Exists("Empty")
	}, time.Second, 10*time.Millisecond)
	assert.True(t, rooms.Exists("Busy"))

	cancel()
	assert.NoError(t, <-done)
}

func TestSweepOnceIsIdempotent(t *testing.T) {
	rooms := core.NewRoomManager(core.DefaultLimits())
	rooms.Create("Empty", domain.RoomNormal)
	s := NewSweeper(rooms, nil, 0)

	assert.Equal(t, DefaultSweepInterval, s.Interval)
	assert.Equal(t, 1, s.SweepOnce())
	assert.Equal(t, 0, s.SweepOnce())
}

func TestPresence(t *testing.T) {
	reg, rooms := newTestRegistry()
	p := NewPresence(reg, rooms)
	assert.Equal(t, core.Stats{}, p.GlobalStats())

	_, _, _ = reg.Join("s1", "Ann", "Garden", domain.RoomNormal)
	_, _, _ = reg.Join("s2", "Ben", "Garden", domain.RoomNormal)
	_, _, _ = reg.Join("s3", "Cat", "Pond", domain.RoomNormal)

	assert.Equal(t, core.Stats{TotalUsers: 3, TotalRooms: 2}, p.GlobalStats())
	list := p.MemberList("Garden")
	require.Len(t, list, 2)
	assert.Equal(t, "Ann", list[0].Username)
	assert.Equal(t, "Ben", list[1].Username)
}
