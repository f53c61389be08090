// Package transport drives the byte-level conversation with a peer socket:
// the handshake, and the receive/dispatch loop that turns a raw stream into
// framed packets. It is shared by the client and server endpoints so both
// sides of the wire get identical handshake and framing behavior.
package transport

import (
	"io"
	"net"
	"time"

	"asyncnet/protocol"
)

// ErrHandshakeFailed reports a handshake that completed a round trip but
// whose id, flags or length did not match what the local side required.
var ErrHandshakeFailed = errHandshakeFailed{}

type errHandshakeFailed struct{}

func (errHandshakeFailed) Error() string { return "transport: handshake failed" }

// ClientHandshake performs the client half of the single-round handshake:
// send id_handshake/fl_handshake_client, then block for a full 12-byte
// reply and require id_handshake/fl_handshake_server in return.
func ClientHandshake(conn net.Conn, timeout time.Duration) error {
	return handshake(conn, timeout, protocol.FlagHandshakeClient, protocol.FlagHandshakeServer)
}

// ServerHandshake performs the server half: greet every freshly accepted
// socket immediately with fl_handshake_server, then require
// fl_handshake_client in reply.
func ServerHandshake(conn net.Conn, timeout time.Duration) error {
	return handshake(conn, timeout, protocol.FlagHandshakeServer, protocol.FlagHandshakeClient)
}

func handshake(conn net.Conn, timeout time.Duration, send, want protocol.Flags) error {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		defer conn.SetDeadline(time.Time{})
	}

	if err := protocol.Encode(conn, protocol.IDHandshake, send, nil); err != nil {
		return err
	}

	buf := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return err
	}
	h, err := protocol.ParseHeader(buf)
	if err != nil {
		return err
	}
	if h.ID != protocol.IDHandshake || h.Flags != want || h.Length != protocol.HeaderSize {
		return ErrHandshakeFailed
	}
	return nil
}
