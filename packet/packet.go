// Package packet defines the packet model shared by client and server
// endpoints: an identity plus an ordered sequence of typed fields, encoded
// and decoded through a codec.Serializer.
package packet

import (
	"asyncnet/codec"
	"asyncnet/protocol"
)

// Packet is implemented by every user-defined message type.
type Packet interface {
	// ID reports the packet's wire identity. User ids must be strictly
	// greater than protocol.NumPresetIDs.
	ID() protocol.ID

	// Encode appends the packet's fields, in order, to s.
	Encode(s *codec.Serializer)

	// Decode reads the packet's fields, in order, from s.
	Decode(s *codec.Serializer) error
}
