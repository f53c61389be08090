// Command acclient is a minimal asyncnet client: it connects to acserver,
// sends one example packet, prints the reply, then disconnects and exits.
package main

import (
	"log"
	"time"

	"asyncnet"
	"asyncnet/client"
	"asyncnet/codec"
	"asyncnet/examplepkt"
	"asyncnet/protocol"
)

func main() {
	cl := client.New()

	done := make(chan struct{})
	cl.RegisterDisconnectHandler(func(_ *client.Client, reason asyncnet.DisconnectReason) {
		log.Printf("disconnected from server: %s", reason)
		close(done)
	})

	cl.RegisterPacketHandler(func(c *client.Client, id protocol.ID, body *codec.Serializer) {
		if id != examplepkt.ID {
			log.Printf("unknown packet id %d received", id)
			return
		}
		var pkt examplepkt.Packet
		if err := pkt.Decode(body); err != nil {
			log.Printf("bad example packet: %v", err)
			return
		}
		for i, s := range pkt.SomeStringArray {
			log.Printf("[%d] %s", i, s)
		}
		c.Disconnect()
	})

	if err := cl.Connect("localhost", 1337); err != nil {
		log.Fatalf("handshake has failed: %v", err)
	}
	log.Println("connected to server!")

	pkt := examplepkt.Packet{
		SomeShort:       128,
		SomeArray:       []uint8{1, 2, 3, 4, 5},
		SomeStringArray: []string{"Hello", "from", "client!"},
	}
	if err := cl.SendPacket(&pkt); err != nil {
		log.Fatalf("send packet: %v", err)
	}

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Println("timed out waiting for server")
		cl.Disconnect()
	}
}
