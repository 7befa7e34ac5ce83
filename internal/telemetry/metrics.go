package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesSent counts frames handed to the injector successfully
	FramesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktsender",
			Name:      "frames_sent_total",
			Help:      "Total number of frames transmitted",
		},
		[]string{"interface", "kind"},
	)

	// SendErrors counts transport failures
	SendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktsender",
			Name:      "send_errors_total",
			Help:      "Total number of failed frame transmissions",
		},
		[]string{"interface", "kind"},
	)

	// RepliesReceived counts answers seen by send-and-receive runs
	RepliesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktsender",
			Name:      "replies_received_total",
			Help:      "Total number of replies matched to a sent frame",
		},
		[]string{"interface", "kind"},
	)

	// ActiveStreams counts the background workers still running on the interface,
	// abandoned ones included
	ActiveStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pktsender",
			Name:      "active_streams",
			Help:      "Background send workers currently running",
		},
		[]string{"interface"},
	)

	// ForcedStops counts workers cancelled after the stop grace period
	ForcedStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktsender",
			Name:      "forced_stops_total",
			Help:      "Workers that had to be cancelled after ignoring a stop request",
		},
		[]string{"interface"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(FramesSent)
		prometheus.DefaultRegisterer.Register(SendErrors)
		prometheus.DefaultRegisterer.Register(RepliesReceived)
		prometheus.DefaultRegisterer.Register(ActiveStreams)
		prometheus.DefaultRegisterer.Register(ForcedStops)
	})
}
