// Package codec implements the wire serialization format shared by every
// packet body: a deterministic, little-endian, length-prefixed encoding for
// arithmetic scalars, homogeneous arithmetic arrays, strings, and arrays of
// strings.
//
// The scalar and array operations are generic over the Arithmetic
// constraint, so one WriteScalar/ReadScalar pair covers every integer and
// float width instead of one function per type.
package codec

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncatedBuffer is returned when a read would advance the cursor past
// the end of the buffer.
var ErrTruncatedBuffer = errors.New("codec: truncated buffer")

// ErrLengthOverflow is returned when a decoded length prefix claims more
// bytes than remain in the buffer.
var ErrLengthOverflow = errors.New("codec: length prefix overflows buffer")

// Arithmetic constrains WriteScalar/WriteArray/ReadScalar/ReadArray to the
// fixed-width numeric types the wire format can encode.
type Arithmetic interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// Serializer is a cursor-based encoder/decoder over a single byte buffer.
//
// Writes always append to the tail; reads always advance a non-decreasing
// cursor. The zero value is ready to use for encoding. To decode an
// existing buffer, call AssignBuffer.
type Serializer struct {
	buf    []byte
	cursor int
}

// NewSerializer returns a Serializer ready for encoding.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Reset clears the buffer and the read cursor.
func (s *Serializer) Reset() {
	s.buf = s.buf[:0]
	s.cursor = 0
}

// AssignBuffer replaces the buffer contents with a copy of data and resets
// the cursor to zero, making the Serializer ready to decode data.
func (s *Serializer) AssignBuffer(data []byte) {
	s.buf = append(s.buf[:0], data...)
	s.cursor = 0
}

// Bytes returns the serializer's current buffer contents.
func (s *Serializer) Bytes() []byte { return s.buf }

// Len returns the number of bytes currently in the buffer.
func (s *Serializer) Len() int { return len(s.buf) }

// Remaining reports how many unread bytes remain after the cursor.
func (s *Serializer) Remaining() int { return len(s.buf) - s.cursor }

func widthOf[T Arithmetic]() int {
	var zero T
	switch any(zero).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	}
	return 0
}

func bitsOf[T Arithmetic](v T) uint64 {
	switch x := any(v).(type) {
	case int8:
		return uint64(uint8(x))
	case uint8:
		return uint64(x)
	case int16:
		return uint64(uint16(x))
	case uint16:
		return uint64(x)
	case int32:
		return uint64(uint32(x))
	case uint32:
		return uint64(x)
	case float32:
		return uint64(math.Float32bits(x))
	case int64:
		return uint64(x)
	case uint64:
		return x
	case float64:
		return math.Float64bits(x)
	}
	return 0
}

func fromBits[T Arithmetic](bits uint64) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(bits)).(T)
	case uint8:
		return any(uint8(bits)).(T)
	case int16:
		return any(int16(bits)).(T)
	case uint16:
		return any(uint16(bits)).(T)
	case int32:
		return any(int32(bits)).(T)
	case uint32:
		return any(uint32(bits)).(T)
	case float32:
		return any(math.Float32frombits(uint32(bits))).(T)
	case int64:
		return any(int64(bits)).(T)
	case uint64:
		return any(bits).(T)
	case float64:
		return any(math.Float64frombits(bits)).(T)
	}
	return zero
}

// WriteScalar appends the little-endian encoding of v, exactly width(T) bytes.
func WriteScalar[T Arithmetic](s *Serializer, v T) {
	w := widthOf[T]()
	var tmp [8]byte
	putUintLE(tmp[:w], bitsOf(v))
	s.buf = append(s.buf, tmp[:w]...)
}

// ReadScalar decodes a value of type T from the cursor and advances it by
// width(T) bytes.
func ReadScalar[T Arithmetic](s *Serializer) (T, error) {
	w := widthOf[T]()
	if s.cursor+w > len(s.buf) {
		var zero T
		return zero, ErrTruncatedBuffer
	}
	bits := uintLE(s.buf[s.cursor : s.cursor+w])
	s.cursor += w
	return fromBits[T](bits), nil
}

// WriteArray appends a uint32 element count followed by the raw
// little-endian element storage.
func WriteArray[T Arithmetic](s *Serializer, v []T) {
	WriteScalar(s, uint32(len(v)))
	for _, e := range v {
		WriteScalar(s, e)
	}
}

// ReadArray decodes a uint32-prefixed array of T.
func ReadArray[T Arithmetic](s *Serializer) ([]T, error) {
	n, err := ReadScalar[uint32](s)
	if err != nil {
		return nil, err
	}
	w := widthOf[T]()
	need := int(n) * w
	if need < 0 || s.cursor+need > len(s.buf) {
		return nil, ErrLengthOverflow
	}
	out := make([]T, n)
	for i := range out {
		out[i], err = ReadScalar[T](s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteString appends a uint32 byte-length prefix followed by the raw
// string bytes — no terminator, no encoding normalization.
func WriteString(s *Serializer, v string) {
	WriteScalar(s, uint32(len(v)))
	s.buf = append(s.buf, v...)
}

// ReadString decodes a uint32-prefixed string of exactly that many bytes.
func ReadString(s *Serializer) (string, error) {
	n, err := ReadScalar[uint32](s)
	if err != nil {
		return "", err
	}
	if int(n) < 0 || s.cursor+int(n) > len(s.buf) {
		return "", ErrLengthOverflow
	}
	v := string(s.buf[s.cursor : s.cursor+int(n)])
	s.cursor += int(n)
	return v, nil
}

// WriteStringArray appends a uint32 array-length prefix followed by each
// string encoded in order.
func WriteStringArray(s *Serializer, v []string) {
	WriteScalar(s, uint32(len(v)))
	for _, e := range v {
		WriteString(s, e)
	}
}

// ReadStringArray decodes a uint32-prefixed array of strings.
func ReadStringArray(s *Serializer) ([]string, error) {
	n, err := ReadScalar[uint32](s)
	if err != nil {
		return nil, err
	}
	// Every element contributes at least its own 4-byte length prefix;
	// reject an inflated count before make(), the same guard ReadArray
	// applies for fixed-width elements.
	need := int(n) * 4
	if need < 0 || s.cursor+need > len(s.buf) {
		return nil, ErrLengthOverflow
	}
	out := make([]string, n)
	for i := range out {
		out[i], err = ReadString(s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func putUintLE(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
}

func uintLE(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}
