package core

import (
	"context"
	"errors"

	"github.com/dkeye/Valley/internal/domain"
)

// ErrUnavailable wraps every failure of an external collaborator.
var ErrUnavailable = errors.New("collaborator unavailable")

//go:generate mockgen -source=media_iface.go -destination=mocks/mock_media.go -package=mocks

// MusicCatalog hands out one track per call.
type MusicCatalog interface {
	FetchRandomTrack(ctx context.Context) (domain.Track, error)
}

// AIProvider completes a prompt given the prior turns of a room.
type AIProvider interface {
	Complete(ctx context.Context, prompt string, history []domain.Turn) (string, error)
}
