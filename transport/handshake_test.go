package transport

import (
	"net"
	"testing"
	"time"

	"asyncnet/protocol"
)

// TestHandshakeSuccess runs both sides of the handshake for real and
// expects both to see it accepted. Both legs write before
// reading, so this needs a real socket pair rather than net.Pipe: net.Pipe
// has no buffering, and two goroutines each blocked in their own first Write
// would deadlock waiting on a Read the other can't reach yet. A loopback TCP
// connection has kernel send buffers, the same slack a real client/server
// pair gets in production.
func TestHandshakeSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverErr := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverErr <- err
			return
		}
		defer conn.Close()
		serverErr <- ServerHandshake(conn, time.Second)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := ClientHandshake(client, time.Second); err != nil {
		t.Fatalf("ClientHandshake: %v", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("ServerHandshake: %v", err)
	}
}

// TestClientHandshakeRejectsWrongServerFlags has the peer reply with the
// wrong flags (heartbeat instead of handshake-server); the client side must
// reject the handshake.
func TestClientHandshakeRejectsWrongServerFlags(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() { done <- ClientHandshake(client, time.Second) }()

	// Drain the client's handshake frame, then reply with the wrong flags.
	buf := make([]byte, protocol.HeaderSize)
	if _, err := readFull(server, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if err := protocol.Encode(server, protocol.IDHandshake, protocol.FlagHeartbeat, nil); err != nil {
		t.Fatalf("server write: %v", err)
	}

	if err := <-done; err != ErrHandshakeFailed {
		t.Fatalf("got %v, want ErrHandshakeFailed", err)
	}
}

// TestServerHandshakeRejectsWrongClientFlags has the accepted socket send
// flags=handshake-server (as if it were another server) instead of
// handshake-client.
func TestServerHandshakeRejectsWrongClientFlags(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() { done <- ServerHandshake(server, time.Second) }()

	buf := make([]byte, protocol.HeaderSize)
	if _, err := readFull(client, buf); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if err := protocol.Encode(client, protocol.IDHandshake, protocol.FlagHandshakeServer, nil); err != nil {
		t.Fatalf("client write: %v", err)
	}

	if err := <-done; err != ErrHandshakeFailed {
		t.Fatalf("got %v, want ErrHandshakeFailed", err)
	}
}

// TestHandshakeTimesOutOnSilentPeer exercises the bounded handshake timeout
// against a peer that never replies.
func TestHandshakeTimesOutOnSilentPeer(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	err := ClientHandshake(client, 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error, got nil")
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
