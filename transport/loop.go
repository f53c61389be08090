package transport

import (
	"net"

	"asyncnet/protocol"
)

// ChunkQueueSize bounds how many unprocessed reads can back up behind a slow
// dispatcher before the receiver blocks. It is not a framing limit — a
// single frame may still span many chunks. Callers wiring up ReceiveLoop and
// DispatchLoop should size their chunk channel with it.
const ChunkQueueSize = 64

// readBufferSize is the size of one Read call's buffer.
const readBufferSize = 4096

// ReceiveLoop reads raw bytes from conn and forwards copies on chunks until
// Read fails or done is closed, then calls onDone with the read error (nil
// if done triggered the exit) and closes chunks. It never touches conn
// itself beyond Read — closing the socket to unblock a pending Read is the
// caller's job.
func ReceiveLoop(conn net.Conn, chunks chan<- []byte, done <-chan struct{}, onDone func(error)) {
	defer close(chunks)
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			select {
			case chunks <- cp:
			case <-done:
				onDone(nil)
				return
			}
		}
		if err != nil {
			onDone(err)
			return
		}
	}
}

// DispatchLoop drains chunks, reassembling them into frames with a
// Reassembler scoped to this single goroutine (no shared mutable state with
// ReceiveLoop beyond the channel itself). onFrame is called for each
// complete frame in arrival order; a non-nil return from onFrame or from the
// reassembler itself ends the loop via onFatal.
func DispatchLoop(chunks <-chan []byte, maxPacketBytes uint32, onFrame func(protocol.Header, []byte) error, onFatal func(error)) {
	r := protocol.NewReassembler(maxPacketBytes)
	for data := range chunks {
		r.Feed(data)
		for {
			h, payload, ok, err := r.Next()
			if err != nil {
				onFatal(err)
				return
			}
			if !ok {
				break
			}
			if err := onFrame(h, payload); err != nil {
				onFatal(err)
				return
			}
		}
	}
}
