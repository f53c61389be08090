package codec

import (
	"reflect"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	s := NewSerializer()
	WriteScalar[uint16](s, 128)

	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())

	got, err := ReadScalar[uint16](s2)
	if err != nil {
		t.Fatalf("ReadScalar failed: %v", err)
	}
	if got != 128 {
		t.Fatalf("got %d, want 128", got)
	}
}

func TestArrayRoundTrip(t *testing.T) {
	want := []uint8{1, 2, 3, 4, 5}

	s := NewSerializer()
	WriteArray(s, want)

	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())

	got, err := ReadArray[uint8](s2)
	if err != nil {
		t.Fatalf("ReadArray failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := NewSerializer()
	WriteString(s, "")
	WriteString(s, "hello")

	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())

	empty, err := ReadString(s2)
	if err != nil || empty != "" {
		t.Fatalf("empty string round-trip failed: %q, %v", empty, err)
	}
	hello, err := ReadString(s2)
	if err != nil || hello != "hello" {
		t.Fatalf("string round-trip failed: %q, %v", hello, err)
	}
}

func TestStringArrayRoundTrip(t *testing.T) {
	want := []string{"Hello", "from", "client!"}

	s := NewSerializer()
	WriteStringArray(s, want)

	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())

	got, err := ReadStringArray(s2)
	if err != nil {
		t.Fatalf("ReadStringArray failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExamplePacketWireBytes(t *testing.T) {
	// Exact on-wire payload bytes for the example packet's field layout.
	s := NewSerializer()
	WriteScalar[uint16](s, 128)
	WriteArray(s, []uint8{1, 2, 3, 4, 5})
	WriteStringArray(s, []string{"Hello", "from", "client!"})

	want := []byte{
		0x80, 0x00, // some_short = 128
		0x05, 0x00, 0x00, 0x00, 1, 2, 3, 4, 5, // some_array
		0x03, 0x00, 0x00, 0x00, // string array length
		0x05, 0x00, 0x00, 0x00, 'H', 'e', 'l', 'l', 'o',
		0x04, 0x00, 0x00, 0x00, 'f', 'r', 'o', 'm',
		0x07, 0x00, 0x00, 0x00, 'c', 'l', 'i', 'e', 'n', 't', '!',
	}
	if !reflect.DeepEqual(s.Bytes(), want) {
		t.Fatalf("got %v, want %v", s.Bytes(), want)
	}
}

func TestReadScalarTruncated(t *testing.T) {
	s := NewSerializer()
	s.AssignBuffer([]byte{0x01})
	if _, err := ReadScalar[uint16](s); err != ErrTruncatedBuffer {
		t.Fatalf("got %v, want ErrTruncatedBuffer", err)
	}
}

func TestReadStringLengthOverflow(t *testing.T) {
	s := NewSerializer()
	WriteScalar[uint32](s, 100) // claims 100 bytes, none follow
	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())
	if _, err := ReadString(s2); err != ErrLengthOverflow {
		t.Fatalf("got %v, want ErrLengthOverflow", err)
	}
}

func TestReadStringArrayLengthOverflow(t *testing.T) {
	s := NewSerializer()
	WriteScalar[uint32](s, 0xFFFFFFFF) // claims ~4 billion strings, none follow
	s2 := NewSerializer()
	s2.AssignBuffer(s.Bytes())
	if _, err := ReadStringArray(s2); err != ErrLengthOverflow {
		t.Fatalf("got %v, want ErrLengthOverflow", err)
	}
}

func TestResetClearsBufferAndCursor(t *testing.T) {
	s := NewSerializer()
	WriteString(s, "abc")
	s.Reset()
	if s.Len() != 0 || s.Remaining() != 0 {
		t.Fatalf("Reset did not clear buffer/cursor: len=%d remaining=%d", s.Len(), s.Remaining())
	}
}
