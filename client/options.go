package client

import (
	"time"

	"asyncnet/metrics"
)

// options configures a Client. Unexported and reachable only through
// functional Option values, so defaults apply unless explicitly overridden.
type options struct {
	maxPacketBytes   uint32
	handshakeTimeout time.Duration
	metrics          *metrics.Recorder
}

var defaultOptions = options{
	maxPacketBytes:   1 << 20, // 1 MiB
	handshakeTimeout: 5 * time.Second,
}

// Option configures a Client at construction time.
type Option func(*options)

// WithMaxPacketBytes caps the length a single incoming frame may declare.
// Zero means unbounded.
func WithMaxPacketBytes(n uint32) Option {
	return func(o *options) { o.maxPacketBytes = n }
}

// WithHandshakeTimeout bounds how long Connect waits for the server's half
// of the handshake before giving up. Zero disables the deadline.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithMetrics attaches a Recorder. Passing nil (the default) disables
// instrumentation entirely.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *options) { o.metrics = rec }
}
