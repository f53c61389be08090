package server

import (
	"time"

	"golang.org/x/time/rate"

	"asyncnet/metrics"
)

// options configures a Server. Unexported and reachable only through
// functional Option values, so defaults apply unless explicitly overridden.
type options struct {
	maxPacketBytes    uint32
	handshakeTimeout  time.Duration
	heartbeatInterval time.Duration
	acceptLimiter     *rate.Limiter
	metrics           *metrics.Recorder
}

var defaultOptions = options{
	maxPacketBytes:    1 << 20, // 1 MiB
	handshakeTimeout:  5 * time.Second,
	heartbeatInterval: 5 * time.Second,
}

// Option configures a Server at construction time.
type Option func(*options)

// WithMaxPacketBytes caps the length a single incoming frame may declare.
// Zero means unbounded.
func WithMaxPacketBytes(n uint32) Option {
	return func(o *options) { o.maxPacketBytes = n }
}

// WithHandshakeTimeout bounds how long a freshly accepted socket has to
// complete its handshake before it is dropped.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithHeartbeatInterval sets how often the heartbeat ticker sends a
// header-only keepalive frame to every open connection.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(o *options) { o.heartbeatInterval = d }
}

// WithAcceptRateLimit caps the rate of newly accepted sockets admitted into
// the handshake phase, as a token bucket of size burst refilling at
// eventsPerSecond. Connections denied a token are closed immediately rather
// than queued, keeping a connection flood from starving the accept loop.
func WithAcceptRateLimit(eventsPerSecond float64, burst int) Option {
	return func(o *options) { o.acceptLimiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst) }
}

// WithMetrics attaches a Recorder. Passing nil (the default) disables
// instrumentation entirely.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *options) { o.metrics = rec }
}
