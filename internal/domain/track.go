package domain

import "time"

type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CoverURL  string `json:"coverUrl"`
	StreamURL string `json:"streamUrl"`
}

// PlaybackState is the shared "radio" clock of a room.
// Elapsed is derived from StartedAt while playing and frozen while paused.
type PlaybackState struct {
	Track
	RequestedBy string    `json:"requestedBy"`
	StartedAt   time.Time `json:"-"`
	IsPlaying   bool      `json:"isPlaying"`
	Elapsed     float64   `json:"elapsedSeconds"`
}

// NewPlayback starts a track at offset zero.
func NewPlayback(track Track, requestedBy string, now time.Time) PlaybackState {
	return PlaybackState{
		Track:       track,
		RequestedBy: requestedBy,
		StartedAt:   now,
		IsPlaying:   true,
	}
}

// ElapsedAt returns the play position at now in seconds.
func (p PlaybackState) ElapsedAt(now time.Time) float64 {
	if !p.IsPlaying {
		return p.Elapsed
	}
	d := now.Sub(p.StartedAt)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

// Pause freezes the offset at now.
func (p *PlaybackState) Pause(now time.Time) {
	if !p.IsPlaying {
		return
	}
	p.Elapsed = p.ElapsedAt(now)
	p.IsPlaying = false
}

// Resume rebases StartedAt so that now-StartedAt equals the frozen offset.
func (p *PlaybackState) Resume(now time.Time) {
	if p.IsPlaying {
		return
	}
	p.StartedAt = now.Add(-time.Duration(p.Elapsed * float64(time.Second)))
	p.IsPlaying = true
}
