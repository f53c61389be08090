package client

import (
	"net"
	"reflect"
	"testing"
	"time"

	"asyncnet"
	"asyncnet/codec"
	"asyncnet/examplepkt"
	"asyncnet/protocol"
	"asyncnet/server"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func newTestServer(t *testing.T, port int) *server.Server {
	t.Helper()
	srv := server.New(server.WithHeartbeatInterval(time.Hour))
	if err := srv.RegisterPacketHandler(func(*server.Server, server.ConnID, protocol.ID, *codec.Serializer) {
	}); err != nil {
		t.Fatalf("RegisterPacketHandler: %v", err)
	}
	if err := srv.Start(port); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { srv.Stop() })
	return srv
}

func TestClientConnectAndDisconnect(t *testing.T) {
	port := freePort(t)
	newTestServer(t, port)

	c := New()
	c.RegisterPacketHandler(func(*Client, protocol.ID, *codec.Serializer) {})

	disconnected := make(chan asyncnet.DisconnectReason, 1)
	c.RegisterDisconnectHandler(func(_ *Client, reason asyncnet.DisconnectReason) {
		disconnected <- reason
	})

	if err := c.Connect("127.0.0.1", port); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !c.IsConnected() {
		t.Fatal("expected IsConnected after a successful Connect")
	}

	c.Disconnect()

	select {
	case reason := <-disconnected:
		if reason != asyncnet.ReasonLocalStop {
			t.Fatalf("got reason %v, want %v", reason, asyncnet.ReasonLocalStop)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect handler never fired")
	}
	if c.IsConnected() {
		t.Fatal("expected not connected after Disconnect")
	}
}

func TestClientConnectWithoutPacketHandlerFails(t *testing.T) {
	c := New()
	if err := c.Connect("127.0.0.1", 1); err != asyncnet.ErrNoPacketHandler {
		t.Fatalf("got %v, want ErrNoPacketHandler", err)
	}
}

func TestClientDoubleConnectFails(t *testing.T) {
	port := freePort(t)
	newTestServer(t, port)

	c := New()
	c.RegisterPacketHandler(func(*Client, protocol.ID, *codec.Serializer) {})
	if err := c.Connect("127.0.0.1", port); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	if err := c.Connect("127.0.0.1", port); err != asyncnet.ErrAlreadyConnected {
		t.Fatalf("got %v, want ErrAlreadyConnected", err)
	}
}

func TestClientSendPacketAndServerDisconnectNotifiesClient(t *testing.T) {
	port := freePort(t)
	srv := server.New(server.WithHeartbeatInterval(time.Hour))
	var who server.ConnID
	connected := make(chan struct{})
	serverGot := make(chan examplepkt.Packet, 1)
	srv.RegisterPacketHandler(func(sv *server.Server, from server.ConnID, id protocol.ID, body *codec.Serializer) {
		if id != examplepkt.ID {
			t.Errorf("unexpected packet id %d", id)
			return
		}
		var pkt examplepkt.Packet
		if err := pkt.Decode(body); err != nil {
			t.Errorf("Decode: %v", err)
			return
		}
		serverGot <- pkt
		if err := sv.SendPacket(from, &pkt); err != nil {
			t.Errorf("echo: %v", err)
		}
	})
	srv.RegisterConnectHandler(func(_ *server.Server, w server.ConnID) {
		who = w
		close(connected)
	})
	if err := srv.Start(port); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	c := New()
	clientGot := make(chan examplepkt.Packet, 1)
	c.RegisterPacketHandler(func(_ *Client, id protocol.ID, body *codec.Serializer) {
		var pkt examplepkt.Packet
		if err := pkt.Decode(body); err != nil {
			t.Errorf("Decode: %v", err)
			return
		}
		clientGot <- pkt
	})
	disconnected := make(chan asyncnet.DisconnectReason, 1)
	c.RegisterDisconnectHandler(func(_ *Client, reason asyncnet.DisconnectReason) { disconnected <- reason })

	if err := c.Connect("127.0.0.1", port); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed the connection")
	}

	sent := examplepkt.Packet{
		SomeShort:       128,
		SomeArray:       []uint8{1, 2, 3, 4, 5},
		SomeStringArray: []string{"Hello", "from", "client!"},
	}
	if err := c.SendPacket(&sent); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}

	select {
	case got := <-serverGot:
		if !reflect.DeepEqual(got, sent) {
			t.Fatalf("server decoded %+v, want %+v", got, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the packet")
	}
	select {
	case got := <-clientGot:
		if !reflect.DeepEqual(got, sent) {
			t.Fatalf("client decoded echo %+v, want %+v", got, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never received the echo")
	}

	srv.DisconnectClient(who)

	select {
	case reason := <-disconnected:
		if reason != asyncnet.ReasonPeerClosed {
			t.Fatalf("got reason %v, want %v", reason, asyncnet.ReasonPeerClosed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client disconnect handler never fired")
	}
}
