// Command acserver is a minimal asyncnet server: it registers the four
// lifecycle callbacks, starts listening, echoes every example packet back
// to its sender, and stops once its one expected client disconnects.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"asyncnet"
	"asyncnet/codec"
	"asyncnet/examplepkt"
	"asyncnet/protocol"
	"asyncnet/server"
)

func main() {
	svr := server.New(
		server.WithAcceptRateLimit(50, 10),
	)

	svr.RegisterConnectHandler(func(_ *server.Server, who server.ConnID) {
		log.Printf("client %s has connected", who)
	})

	svr.RegisterDisconnectHandler(func(sv *server.Server, who server.ConnID, reason asyncnet.DisconnectReason) {
		log.Printf("client %s has disconnected: %s", who, reason)
		sv.Stop()
	})

	svr.RegisterStopHandler(func(*server.Server) {
		log.Println("server has been stopped")
	})

	svr.RegisterPacketHandler(onExamplePacket)

	if err := svr.Start(1337); err != nil {
		log.Fatalf("start: %v", err)
	}
	log.Println("server running on port 1337")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	svr.Stop()
}

func onExamplePacket(sv *server.Server, from server.ConnID, id protocol.ID, body *codec.Serializer) {
	if id != examplepkt.ID {
		log.Printf("unknown packet id %d received", id)
		return
	}
	var pkt examplepkt.Packet
	if err := pkt.Decode(body); err != nil {
		log.Printf("bad example packet from %s: %v", from, err)
		return
	}
	for i, s := range pkt.SomeStringArray {
		log.Printf("[%d] %s", i, s)
	}
	pkt.SomeStringArray = []string{"Hello", "from", "server!"}
	if err := sv.SendPacket(from, &pkt); err != nil {
		log.Printf("send reply to %s: %v", from, err)
	}
}
