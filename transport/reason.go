package transport

import (
	"errors"
	"io"
	"net"

	"asyncnet"
)

// ClassifyReadError turns a Conn.Read error into a DisconnectReason.
// net.ErrClosed means the local side already initiated teardown (MarkClosed
// closed the socket out from under the read); io.EOF means the peer closed
// its write side cleanly; anything else is a genuine I/O fault.
func ClassifyReadError(err error) asyncnet.DisconnectReason {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return asyncnet.ReasonPeerClosed
	case errors.Is(err, net.ErrClosed):
		return asyncnet.ReasonLocalStop
	default:
		return asyncnet.ReasonError
	}
}
