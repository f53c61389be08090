package transport

import (
	"net"
	"sync"

	"asyncnet/codec"
	"asyncnet/packet"
	"asyncnet/protocol"
)

// Session bundles a live connection with the lock that serializes writes to
// it and the scratch Serializer used to encode outgoing packets. One Session
// exists per TCP connection on either side of the wire.
type Session struct {
	Conn       net.Conn
	sendMu     sync.Mutex
	serializer *codec.Serializer
	done       chan struct{}
	closeOnce  sync.Once
	teardownOnce sync.Once
}

// NewSession wraps an already-handshaken connection.
func NewSession(conn net.Conn) *Session {
	return &Session{
		Conn:       conn,
		serializer: codec.NewSerializer(),
		done:       make(chan struct{}),
	}
}

// Done returns a channel closed exactly once, by MarkClosed, just before the
// socket itself is closed. ReceiveLoop selects on it while handing a chunk to
// the dispatcher, so it can exit even if the dispatcher has stopped reading.
func (s *Session) Done() <-chan struct{} { return s.done }

// MarkClosed closes Done and the connection. Safe to call more than once or
// concurrently; only the first call has effect.
func (s *Session) MarkClosed() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.Conn.Close()
	})
}

// Teardown runs fn exactly once for this session's lifetime, no matter how
// many goroutines (the receiver, the dispatcher, an explicit Disconnect
// call) race to trigger it. Concurrent callers after the first return
// immediately without running fn.
func (s *Session) Teardown(fn func()) {
	s.teardownOnce.Do(fn)
}

// SendFrame writes one header-only or payload-bearing frame, holding the
// send lock for the duration so concurrent senders (the heartbeat ticker
// and a caller's SendPacket) never interleave bytes on the wire.
func (s *Session) SendFrame(id protocol.ID, flags protocol.Flags, payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return protocol.Encode(s.Conn, id, flags, payload)
}

// SendPacket encodes p with the session's scratch serializer and writes it
// as a single frame under the send lock.
func (s *Session) SendPacket(p packet.Packet) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.serializer.Reset()
	p.Encode(s.serializer)
	return protocol.Encode(s.Conn, p.ID(), protocol.FlagNone, s.serializer.Bytes())
}
