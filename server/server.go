// Package server implements the server half of an asyncnet connection: an
// accept loop, per-connection handshake/receive/dispatch goroutines, a
// heartbeat ticker, and graceful shutdown — one goroutine draining Accept,
// a per-connection write lock, and a sync.WaitGroup joined on Stop.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"asyncnet"
	"asyncnet/codec"
	"asyncnet/packet"
	"asyncnet/protocol"
	"asyncnet/transport"
)

// ConnID identifies one accepted connection for its lifetime.
type ConnID = xid.ID

// PacketHandler receives one decoded application packet from connection who.
type PacketHandler func(srv *Server, who ConnID, id protocol.ID, s *codec.Serializer)

// ConnectHandler is invoked once a newly accepted socket completes its
// handshake and is admitted as a live connection.
type ConnectHandler func(srv *Server, who ConnID)

// DisconnectHandler is invoked exactly once per connection, after its
// teardown completes, on its own goroutine rather than the receiver,
// dispatcher, or heartbeat loop that triggered teardown — so a handler that
// calls Stop or DisconnectClient never blocks the goroutine Stop is
// waiting to join.
type DisconnectHandler func(srv *Server, who ConnID, reason asyncnet.DisconnectReason)

// StopHandler is invoked once Stop has torn down every connection and the
// listener is closed.
type StopHandler func(srv *Server)

// Server accepts asyncnet connections on one TCP port. The zero value is
// not usable; construct with New.
type Server struct {
	opts options

	packetHandler     PacketHandler
	connectHandler    ConnectHandler
	disconnectHandler DisconnectHandler
	stopHandler       StopHandler

	running  atomic.Bool
	listener net.Listener
	done     chan struct{}

	connsMu sync.RWMutex
	conns   map[ConnID]*transport.Session

	wg sync.WaitGroup
}

// New constructs a Server with the given options applied over the defaults.
func New(opts ...Option) *Server {
	s := &Server{opts: defaultOptions}
	for _, o := range opts {
		o(&s.opts)
	}
	return s
}

func (srv *Server) RegisterPacketHandler(fn PacketHandler) error {
	if srv.running.Load() {
		return asyncnet.ErrRegisterAfterStart
	}
	srv.packetHandler = fn
	return nil
}

func (srv *Server) RegisterConnectHandler(fn ConnectHandler) error {
	if srv.running.Load() {
		return asyncnet.ErrRegisterAfterStart
	}
	srv.connectHandler = fn
	return nil
}

func (srv *Server) RegisterDisconnectHandler(fn DisconnectHandler) error {
	if srv.running.Load() {
		return asyncnet.ErrRegisterAfterStart
	}
	srv.disconnectHandler = fn
	return nil
}

func (srv *Server) RegisterStopHandler(fn StopHandler) error {
	if srv.running.Load() {
		return asyncnet.ErrRegisterAfterStart
	}
	srv.stopHandler = fn
	return nil
}

// IsRunning reports whether the server is currently accepting connections.
func (srv *Server) IsRunning() bool { return srv.running.Load() }

// Start listens on port and begins accepting connections. It returns once
// the listener is up; accepting, handshaking, and dispatching all happen on
// background goroutines.
func (srv *Server) Start(port int) error {
	if srv.packetHandler == nil {
		return asyncnet.ErrNoPacketHandler
	}
	if !srv.running.CompareAndSwap(false, true) {
		return asyncnet.ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		srv.running.Store(false)
		return err
	}
	srv.listener = ln
	srv.done = make(chan struct{})
	srv.conns = make(map[ConnID]*transport.Session)

	srv.wg.Add(2)
	go srv.acceptLoop()
	go srv.heartbeatLoop()
	return nil
}

// acceptLoop is the single goroutine draining Accept; each accepted socket
// is handed off to its own goroutine so a slow or malicious handshake can
// never stall admission of the next connection.
func (srv *Server) acceptLoop() {
	defer srv.wg.Done()
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			// Accept fails permanently once the listener is closed, which
			// is how Stop ends this loop.
			return
		}
		if srv.opts.acceptLimiter != nil && !srv.opts.acceptLimiter.Allow() {
			conn.Close()
			continue
		}
		srv.wg.Add(1)
		go srv.admit(conn)
	}
}

func (srv *Server) admit(conn net.Conn) {
	defer srv.wg.Done()

	if err := transport.ServerHandshake(conn, srv.opts.handshakeTimeout); err != nil {
		conn.Close()
		srv.opts.metrics.HandshakeFailed()
		return
	}

	id := xid.New()
	sess := transport.NewSession(conn)
	srv.connsMu.Lock()
	if !srv.running.Load() {
		// Stop is already tearing down (or has torn down) the connections
		// it saw in its snapshot; admitting this one now would leave it
		// registered nowhere and its ReceiveLoop blocked on Read forever,
		// hanging Stop's wg.Wait(). Checked under connsMu so it can't race
		// Stop's own snapshot-and-close of the conns map.
		srv.connsMu.Unlock()
		conn.Close()
		return
	}
	srv.conns[id] = sess
	srv.connsMu.Unlock()
	srv.opts.metrics.ConnectionAccepted()
	if srv.connectHandler != nil {
		srv.connectHandler(srv, id)
	}

	chunks := make(chan []byte, transport.ChunkQueueSize)
	srv.wg.Add(2)
	go func() {
		defer srv.wg.Done()
		transport.ReceiveLoop(sess.Conn, chunks, sess.Done(), func(err error) {
			srv.teardown(id, sess, transport.ClassifyReadError(err))
		})
	}()
	go func() {
		defer srv.wg.Done()
		transport.DispatchLoop(chunks, srv.opts.maxPacketBytes, func(h protocol.Header, payload []byte) error {
			return srv.handleFrame(id, sess, h, payload)
		}, func(err error) {
			srv.opts.metrics.FramingError()
			srv.teardown(id, sess, asyncnet.ReasonFramingError)
		})
	}()
}

func (srv *Server) handleFrame(id ConnID, sess *transport.Session, h protocol.Header, payload []byte) error {
	switch {
	case h.ID == protocol.IDHeartbeat && h.Flags.Has(protocol.FlagHeartbeat):
		return nil
	case h.ID == protocol.IDDisconnect && h.Flags.Has(protocol.FlagDisconnect):
		srv.teardown(id, sess, asyncnet.ReasonPeerClosed)
		return nil
	case h.ID == protocol.IDHandshake:
		return protocol.ErrUnexpectedHandshake
	case h.ID > protocol.NumPresetIDs:
		s := codec.NewSerializer()
		s.AssignBuffer(payload)
		start := time.Now()
		srv.packetHandler(srv, id, h.ID, s)
		srv.opts.metrics.ObserveDispatch(time.Since(start))
		return nil
	default:
		return nil
	}
}

// heartbeatLoop sends a header-only keepalive to every live connection on a
// fixed interval. Using time.Ticker instead of a manually recomputed next
// deadline means a slow send round never compounds drift onto the next one.
func (srv *Server) heartbeatLoop() {
	defer srv.wg.Done()
	ticker := time.NewTicker(srv.opts.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-srv.done:
			return
		case <-ticker.C:
			srv.connsMu.RLock()
			ids := make([]ConnID, 0, len(srv.conns))
			sessions := make([]*transport.Session, 0, len(srv.conns))
			for id, sess := range srv.conns {
				ids = append(ids, id)
				sessions = append(sessions, sess)
			}
			srv.connsMu.RUnlock()

			for i, sess := range sessions {
				if err := sess.SendFrame(protocol.IDHeartbeat, protocol.FlagHeartbeat, nil); err != nil {
					srv.teardown(ids[i], sess, asyncnet.ReasonError)
					continue
				}
				srv.opts.metrics.HeartbeatSent()
			}
		}
	}
}

// SendPacket encodes and sends p to the connection identified by to.
func (srv *Server) SendPacket(to ConnID, p packet.Packet) error {
	if p == nil {
		return asyncnet.ErrNilPacket
	}
	srv.connsMu.RLock()
	sess, ok := srv.conns[to]
	srv.connsMu.RUnlock()
	if !ok {
		return asyncnet.ErrUnknownConnection
	}
	if err := sess.SendPacket(p); err != nil {
		srv.teardown(to, sess, asyncnet.ReasonError)
		return err
	}
	return nil
}

// DisconnectClient tears down one connection by id. Unknown ids are
// silently ignored, so disconnecting a connection that already went away on
// its own is a harmless no-op.
func (srv *Server) DisconnectClient(who ConnID) {
	srv.connsMu.RLock()
	sess, ok := srv.conns[who]
	srv.connsMu.RUnlock()
	if !ok {
		return
	}
	srv.teardown(who, sess, asyncnet.ReasonLocalStop)
}

func (srv *Server) teardown(id ConnID, sess *transport.Session, reason asyncnet.DisconnectReason) {
	sess.Teardown(func() {
		if reason == asyncnet.ReasonLocalStop {
			sess.SendFrame(protocol.IDDisconnect, protocol.FlagDisconnect, nil)
		}
		sess.MarkClosed()
		srv.connsMu.Lock()
		delete(srv.conns, id)
		srv.connsMu.Unlock()
		srv.opts.metrics.Disconnected(string(reason))
		if srv.disconnectHandler != nil {
			// Off the goroutine that triggered teardown (receiver,
			// dispatcher, or heartbeat loop): Stop joins those goroutines
			// with wg.Wait, and a handler that itself calls Stop (the
			// clean-disconnect pattern in cmd/acserver) would otherwise
			// deadlock waiting on the very goroutine it is running on.
			go srv.disconnectHandler(srv, id, reason)
		}
	})
}

// Stop closes the listener, tears down every live connection, waits for all
// background goroutines to exit, and finally invokes the stop callback. It
// is idempotent: calling Stop on an already-stopped server is a no-op.
func (srv *Server) Stop() error {
	if !srv.running.CompareAndSwap(true, false) {
		return nil
	}
	close(srv.done)
	srv.listener.Close()

	srv.connsMu.RLock()
	ids := make([]ConnID, 0, len(srv.conns))
	for id := range srv.conns {
		ids = append(ids, id)
	}
	srv.connsMu.RUnlock()
	for _, id := range ids {
		srv.DisconnectClient(id)
	}

	srv.wg.Wait()
	if srv.stopHandler != nil {
		srv.stopHandler(srv)
	}
	return nil
}
