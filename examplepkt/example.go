// Package examplepkt is the illustrative demo packet used by the sample
// client and server programs. It is not imported by any core package.
package examplepkt

import (
	"asyncnet/codec"
	"asyncnet/protocol"
)

// ID is the wire identity of Packet: the first id past the reserved range.
const ID = protocol.NumPresetIDs + 1

// Packet carries one scalar, one byte array, and one string array, enough
// to exercise every encoding the codec supports.
type Packet struct {
	SomeShort       uint16
	SomeArray       []uint8
	SomeStringArray []string
}

// ID reports the packet's wire identity.
func (p *Packet) ID() protocol.ID { return ID }

// Encode writes SomeShort, SomeArray, then SomeStringArray, in that order.
func (p *Packet) Encode(s *codec.Serializer) {
	codec.WriteScalar(s, p.SomeShort)
	codec.WriteArray(s, p.SomeArray)
	codec.WriteStringArray(s, p.SomeStringArray)
}

// Decode reads SomeShort, SomeArray, then SomeStringArray, in that order.
func (p *Packet) Decode(s *codec.Serializer) error {
	var err error
	if p.SomeShort, err = codec.ReadScalar[uint16](s); err != nil {
		return err
	}
	if p.SomeArray, err = codec.ReadArray[uint8](s); err != nil {
		return err
	}
	if p.SomeStringArray, err = codec.ReadStringArray(s); err != nil {
		return err
	}
	return nil
}
