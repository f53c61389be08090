package asyncnet

import "errors"

var (
	// ErrAlreadyConnected is returned by Client.Connect when the client is
	// already connecting, handshaking, or open.
	ErrAlreadyConnected = errors.New("asyncnet: already connected")
	// ErrAlreadyRunning is returned by Server.Start when the server is
	// already listening.
	ErrAlreadyRunning = errors.New("asyncnet: already running")
	// ErrNoPacketHandler is returned by Connect/Start when no packet
	// handler has been registered yet. A framework with nowhere to route a
	// decoded packet is a configuration error, not a runtime one.
	ErrNoPacketHandler = errors.New("asyncnet: no packet handler registered")
	// ErrNilPacket is returned by SendPacket when given a nil packet.
	ErrNilPacket = errors.New("asyncnet: nil packet")
	// ErrNotConnected is returned by Client.SendPacket when called before a
	// successful Connect or after a disconnect.
	ErrNotConnected = errors.New("asyncnet: not connected")
	// ErrNotRunning names the state of a Server with no listener. No Server
	// method returns it: Server.SendPacket on a server that is not running
	// returns ErrUnknownConnection.
	ErrNotRunning = errors.New("asyncnet: not running")
	// ErrUnknownConnection is returned by Server.SendPacket for a ConnID
	// with no live connection.
	ErrUnknownConnection = errors.New("asyncnet: unknown connection")
	// ErrRegisterAfterStart is returned by the Register* methods once
	// Connect/Start has already been called. Handlers are read without a
	// lock from the connection goroutines, so registration is only safe
	// before the endpoint is live.
	ErrRegisterAfterStart = errors.New("asyncnet: cannot register a handler after start")
)
