// Package metrics exposes optional Prometheus instrumentation for a Client
// or Server: a handful of counters and one histogram, registered on a
// private Registry so embedding a Recorder in a test never collides with
// the global default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records endpoint events as Prometheus metrics. A nil *Recorder
// is valid: every method checks its receiver and does nothing, so endpoints
// hold one unconditionally and call through without nil checks at each
// site.
type Recorder struct {
	Registry *prometheus.Registry

	connectionsAccepted prometheus.Counter
	handshakeFailures   prometheus.Counter
	disconnects         *prometheus.CounterVec
	framingErrors       prometheus.Counter
	heartbeatsSent      prometheus.Counter
	dispatchLatency     prometheus.Histogram
}

// NewRecorder builds a Recorder on a fresh, private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		Registry: reg,
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncnet_connections_accepted_total",
			Help: "Connections that completed a handshake.",
		}),
		handshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncnet_handshake_failures_total",
			Help: "Accepted sockets that never completed a valid handshake.",
		}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asyncnet_disconnects_total",
			Help: "Connections torn down, labeled by reason.",
		}, []string{"reason"}),
		framingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncnet_framing_errors_total",
			Help: "Frames rejected for bad magic, short header, or oversize length.",
		}),
		heartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncnet_heartbeats_sent_total",
			Help: "Header-only heartbeat frames sent.",
		}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "asyncnet_dispatch_latency_seconds",
			Help:    "Time a registered packet handler spends running for one frame.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.connectionsAccepted, r.handshakeFailures, r.disconnects, r.framingErrors, r.heartbeatsSent, r.dispatchLatency)
	return r
}

func (r *Recorder) ConnectionAccepted() {
	if r == nil {
		return
	}
	r.connectionsAccepted.Inc()
}

func (r *Recorder) HandshakeFailed() {
	if r == nil {
		return
	}
	r.handshakeFailures.Inc()
}

func (r *Recorder) Disconnected(reason string) {
	if r == nil {
		return
	}
	r.disconnects.WithLabelValues(reason).Inc()
}

func (r *Recorder) FramingError() {
	if r == nil {
		return
	}
	r.framingErrors.Inc()
}

func (r *Recorder) HeartbeatSent() {
	if r == nil {
		return
	}
	r.heartbeatsSent.Inc()
}

func (r *Recorder) ObserveDispatch(d time.Duration) {
	if r == nil {
		return
	}
	r.dispatchLatency.Observe(d.Seconds())
}
