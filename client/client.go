// Package client implements the client half of an asyncnet connection: one
// outbound socket, a handshake, a receive/dispatch goroutine pair, and
// idempotent teardown — a single connection to a single server, with a
// background receive loop and a per-connection send lock.
package client

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"asyncnet"
	"asyncnet/codec"
	"asyncnet/packet"
	"asyncnet/protocol"
	"asyncnet/transport"
)

// State is the client's position in the connecting → handshaking → open →
// closed lifecycle. Teardown is the closing phase; it holds no observable
// state of its own because it runs as one critical section. The zero value
// is StateClosed, so a freshly constructed, never-connected Client reads as
// closed.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateHandshaking
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// PacketHandler receives one decoded application packet. id identifies
// which packet type s holds; the handler is responsible for decoding it
// (typically via a Packet's Decode method).
type PacketHandler func(c *Client, id protocol.ID, s *codec.Serializer)

// DisconnectHandler is invoked exactly once per connection, after teardown
// has completed and the socket is closed.
type DisconnectHandler func(c *Client, reason asyncnet.DisconnectReason)

// Client is a single outbound asyncnet connection. The zero value is not
// usable; construct with New.
type Client struct {
	opts options

	packetHandler     PacketHandler
	disconnectHandler DisconnectHandler

	state   atomic.Int32
	sessMu  sync.Mutex
	session *transport.Session
}

// New constructs a Client with the given options applied over the defaults.
func New(opts ...Option) *Client {
	c := &Client{opts: defaultOptions}
	for _, o := range opts {
		o(&c.opts)
	}
	return c
}

// RegisterPacketHandler sets the callback invoked for every application
// packet received once the connection is open. Must be called before
// Connect.
func (c *Client) RegisterPacketHandler(fn PacketHandler) error {
	if State(c.state.Load()) != StateClosed {
		return asyncnet.ErrRegisterAfterStart
	}
	c.packetHandler = fn
	return nil
}

// RegisterDisconnectHandler sets the callback invoked once teardown
// completes, for any reason. Must be called before Connect.
func (c *Client) RegisterDisconnectHandler(fn DisconnectHandler) error {
	if State(c.state.Load()) != StateClosed {
		return asyncnet.ErrRegisterAfterStart
	}
	c.disconnectHandler = fn
	return nil
}

// State reports the client's current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// IsConnected reports whether the connection has completed its handshake
// and is open for traffic.
func (c *Client) IsConnected() bool { return State(c.state.Load()) == StateOpen }

// Connect dials ip:port, performs the client handshake, and on success
// starts the background receive/dispatch goroutines. It blocks until the
// handshake completes or its timeout elapses.
func (c *Client) Connect(ip string, port int) error {
	if c.packetHandler == nil {
		return asyncnet.ErrNoPacketHandler
	}
	if !c.state.CompareAndSwap(int32(StateClosed), int32(StateConnecting)) {
		return asyncnet.ErrAlreadyConnected
	}

	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	c.state.Store(int32(StateHandshaking))
	if err := transport.ClientHandshake(conn, c.opts.handshakeTimeout); err != nil {
		conn.Close()
		c.opts.metrics.HandshakeFailed()
		c.state.Store(int32(StateClosed))
		return err
	}

	sess := transport.NewSession(conn)
	c.sessMu.Lock()
	c.session = sess
	c.sessMu.Unlock()
	c.state.Store(int32(StateOpen))
	c.opts.metrics.ConnectionAccepted()

	chunks := make(chan []byte, transport.ChunkQueueSize)
	go transport.ReceiveLoop(sess.Conn, chunks, sess.Done(), func(err error) {
		c.teardown(sess, transport.ClassifyReadError(err))
	})
	go transport.DispatchLoop(chunks, c.opts.maxPacketBytes, func(h protocol.Header, payload []byte) error {
		return c.handleFrame(sess, h, payload)
	}, func(err error) {
		c.opts.metrics.FramingError()
		c.teardown(sess, asyncnet.ReasonFramingError)
	})

	return nil
}

func (c *Client) handleFrame(sess *transport.Session, h protocol.Header, payload []byte) error {
	switch {
	case h.ID == protocol.IDHeartbeat && h.Flags.Has(protocol.FlagHeartbeat):
		return nil
	case h.ID == protocol.IDDisconnect && h.Flags.Has(protocol.FlagDisconnect):
		c.teardown(sess, asyncnet.ReasonPeerClosed)
		return nil
	case h.ID == protocol.IDHandshake:
		return protocol.ErrUnexpectedHandshake
	case h.ID > protocol.NumPresetIDs:
		s := codec.NewSerializer()
		s.AssignBuffer(payload)
		start := time.Now()
		c.packetHandler(c, h.ID, s)
		c.opts.metrics.ObserveDispatch(time.Since(start))
		return nil
	default:
		// Reserved id with no assigned meaning: dropped, not fatal.
		return nil
	}
}

// SendPacket encodes and sends p on the open connection. Safe to call from
// any goroutine, including from within a registered PacketHandler.
func (c *Client) SendPacket(p packet.Packet) error {
	if p == nil {
		return asyncnet.ErrNilPacket
	}
	c.sessMu.Lock()
	sess := c.session
	c.sessMu.Unlock()
	if sess == nil || !c.IsConnected() {
		return asyncnet.ErrNotConnected
	}
	if err := sess.SendPacket(p); err != nil {
		c.teardown(sess, asyncnet.ReasonError)
		return err
	}
	return nil
}

// Disconnect tears down the current connection on the caller's goroutine:
// it sends the disconnect frame, closes the socket, and invokes the
// disconnect callback before returning. It does not wait for the receive
// and dispatch goroutines to exit. Calling it when not connected is a no-op.
func (c *Client) Disconnect() {
	c.sessMu.Lock()
	sess := c.session
	c.sessMu.Unlock()
	if sess == nil {
		return
	}
	c.teardown(sess, asyncnet.ReasonLocalStop)
}

// teardown runs at most once per session: it sends a best-effort
// id_disconnect frame when the local side initiated the stop, marks the
// session closed (unblocking any pending Read), and invokes the disconnect
// callback.
func (c *Client) teardown(sess *transport.Session, reason asyncnet.DisconnectReason) {
	sess.Teardown(func() {
		if reason == asyncnet.ReasonLocalStop {
			sess.SendFrame(protocol.IDDisconnect, protocol.FlagDisconnect, nil)
		}
		sess.MarkClosed()
		c.state.Store(int32(StateClosed))
		c.opts.metrics.Disconnected(string(reason))
		if c.disconnectHandler != nil {
			c.disconnectHandler(c, reason)
		}
	})
}
