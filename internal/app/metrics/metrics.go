// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "valley"

var (
	EventsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_sent_total",
		Help:      "Frames queued on signal connections.",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_dropped_total",
		Help:      "Frames rejected by a full send buffer.",
	})
	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_events_total",
		Help:      "Client events by type.",
	}, []string{"type"})
	RoomsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_swept_total",
		Help:      "Empty rooms deleted by the periodic sweep.",
	})
	CollaboratorCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_calls_total",
		Help:      "Calls to the AI provider and the music catalog by outcome.",
	}, []string{"collaborator", "outcome"})
)

// RegisterGauges exposes live counts read on every scrape.
func RegisterGauges(reg prometheus.Registerer, users, rooms func() int) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users",
			Help:      "Joined sessions.",
		}, func() float64 { return float64(users()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Live rooms.",
		}, func() float64 { return float64(rooms()) }),
	)
}
