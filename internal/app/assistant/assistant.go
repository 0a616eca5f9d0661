// Package assistant forwards "/model" prompts of AI rooms to the AI provider
// and re-enters the reply as an ordinary room broadcast.
package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Valley/internal/app/metrics"
	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const DefaultTimeout = 30 * time.Second

const failureText = "Sorry, I can't reply right now. Please try again later."

type Assistant struct {
	rooms    core.RoomRegistry
	provider core.AIProvider
	out      core.Broadcaster
	timeout  time.Duration
	label    string

	ctx    context.Context
	mu     sync.Mutex
	closed bool
	wg     conc.WaitGroup
}

// New returns an assistant speaking as label. Zero values fall back to
// the defaults.
func New(ctx context.Context, rooms core.RoomRegistry, provider core.AIProvider, out core.Broadcaster, timeout time.Duration, label string) *Assistant {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if label == "" {
		label = domain.AIAuthor
	}
	return &Assistant{
		rooms:    rooms,
		provider: provider,
		out:      out,
		timeout:  timeout,
		label:    label,
		ctx:      ctx,
	}
}

func (a *Assistant) Label() string { return a.label }

// Ask starts one completion for room. The history snapshot is taken before
// the call, so concurrent prompts see the same prior turns.
func (a *Assistant) Ask(room domain.RoomName, prompt string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	history := a.rooms.Conversation(room)
	a.wg.Go(func() {
		a.ask(room, prompt, history)
	})
}

func (a *Assistant) ask(room domain.RoomName, prompt string, history []domain.Turn) {
	logger := log.With().Str("module", "assistant").Str("room", string(room)).Logger()

	ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
	defer cancel()
	reply, err := a.provider.Complete(ctx, prompt, history)
	if err != nil || reply == "" {
		metrics.CollaboratorCalls.WithLabelValues("ai", "error").Inc()
		logger.Error().Err(err).Msg("completion failed")
		a.out.SendRoom(room, core.NewEvent(core.EvMessage,
			domain.NewMessage(a.label, failureText, domain.KindSystem)), "")
		return
	}
	metrics.CollaboratorCalls.WithLabelValues("ai", "ok").Inc()

	if !a.rooms.RecordExchange(room, prompt, reply) {
		logger.Info().Msg("room gone before reply arrived")
		return
	}
	msg := domain.NewMessage(a.label, reply, domain.KindAI)
	a.out.SendRoom(room, core.NewEvent(core.EvMessage, msg), "")
	a.rooms.AppendMessage(room, msg)
}

func (a *Assistant) Wait() {
	a.wg.Wait()
}

// Close drops prompts that arrive from now on and waits for the pending ones.
func (a *Assistant) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}
