// Package protocol implements the wire framing for asyncnet: a fixed
// 12-byte header followed by a variable-length body, solving TCP's sticky
// packet problem with a magic tag, an id, flags, and a length prefix that
// includes the header itself.
//
// Frame format:
//
//	0         4    6     8         12
//	┌─────────┬────┬─────┬─────────┬───────────────┐
//	│  magic  │ id │flags│ length  │    payload     │
//	│ uint32  │u16 │ u16 │ uint32  │ length-12 bytes│
//	└─────────┴────┴─────┴─────────┴───────────────┘
//
// All integers are little-endian. length counts the header itself, so a
// header-only control packet has length == HeaderSize.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderSize is the fixed size of every frame header in bytes.
const HeaderSize = 12

// Magic is the 32-bit sentinel that opens every well-formed header: the
// ASCII bytes 'F','I','0','0' read as a little-endian uint32. Pinned to a
// fixed numeric value rather than a C-style multi-character literal, whose
// byte order is implementation-defined.
const Magic uint32 = 0x30304946

// ID identifies a packet type. Values 0..NumPresetIDs are reserved; user
// packet ids must be strictly greater than NumPresetIDs.
type ID uint16

const (
	IDNone      ID = 0 // never sent on the wire
	IDHandshake ID = 1
	IDHeartbeat ID = 2
	IDDisconnect ID = 3
	// NumPresetIDs is a sentinel: user-defined packet ids must be > this value.
	NumPresetIDs ID = 4
)

// Flags is a bitfield of control-packet markers, combinable by OR.
type Flags uint16

const (
	FlagNone            Flags = 0
	FlagHandshakeClient Flags = 1 << 0
	FlagHandshakeServer Flags = 1 << 1
	FlagHeartbeat       Flags = 1 << 2
	FlagDisconnect      Flags = 1 << 3
)

// Has reports whether all bits of mask are set in f.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Header is the fixed 12-byte frame prefix.
type Header struct {
	ID     ID
	Flags  Flags
	Length uint32 // total frame length, including HeaderSize
}

// ErrBadMagic reports a header whose magic tag does not match Magic. Bad
// magic poisons the connection: no resynchronization is attempted.
var ErrBadMagic = errors.New("protocol: bad magic")

// ErrShortHeader reports a header whose declared length is less than
// HeaderSize, which is as fatal as a bad magic tag.
var ErrShortHeader = errors.New("protocol: header length shorter than header size")

// ErrTooLong reports a frame whose declared length exceeds the configured
// maximum packet size.
var ErrTooLong = errors.New("protocol: frame exceeds max packet size")

// ErrUnexpectedHandshake reports a handshake frame received after the
// handshake phase already completed. Nothing later in the stream can be
// trusted, so it is as fatal as a framing error.
var ErrUnexpectedHandshake = errors.New("protocol: handshake frame outside handshake phase")

// PutHeader encodes h into buf, which must be at least HeaderSize bytes.
func PutHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.ID))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Flags))
	binary.LittleEndian.PutUint32(buf[8:12], h.Length)
}

// ParseHeader decodes a header from buf, which must be at least HeaderSize
// bytes. It validates the magic tag and the minimum length but does not
// check maxPacketBytes — callers that enforce a cap should compare
// Header.Length themselves (see ErrTooLong).
func ParseHeader(buf []byte) (Header, error) {
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		ID:     ID(binary.LittleEndian.Uint16(buf[4:6])),
		Flags:  Flags(binary.LittleEndian.Uint16(buf[6:8])),
		Length: binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Length < HeaderSize {
		return Header{}, ErrShortHeader
	}
	return h, nil
}

// Encode writes a complete frame (header + payload) to w: one header whose
// Length is HeaderSize+len(payload), followed by payload verbatim.
func Encode(w io.Writer, id ID, flags Flags, payload []byte) error {
	total := HeaderSize + len(payload)
	buf := make([]byte, total)
	PutHeader(buf, Header{ID: id, Flags: flags, Length: uint32(total)})
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// Decode reads one complete frame from r: a header, then exactly
// Header.Length-HeaderSize payload bytes. maxPacketBytes caps the accepted
// frame size; a header claiming more is rejected as ErrTooLong without
// reading the (possibly enormous) payload.
func Decode(r io.Reader, maxPacketBytes uint32) (Header, []byte, error) {
	hdrBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return Header{}, nil, err
	}
	h, err := ParseHeader(hdrBuf)
	if err != nil {
		return Header{}, nil, err
	}
	if maxPacketBytes > 0 && h.Length > maxPacketBytes {
		return Header{}, nil, ErrTooLong
	}
	payload := make([]byte, h.Length-HeaderSize)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Header{}, nil, err
		}
	}
	return h, payload, nil
}
