package protocol

// Reassembler accumulates bytes read from a stream socket and splits them
// into complete frames. It owns no socket; callers feed it bytes from recv
// and drain frames from it.
//
// Invariant: after Next reports that it needs more bytes (ok false, nil
// error), the internal buffer begins either
// empty or with a prefix shorter than one full frame.
type Reassembler struct {
	buf            []byte
	maxPacketBytes uint32
}

// NewReassembler returns a Reassembler that rejects any frame whose declared
// length exceeds maxPacketBytes. Zero means unbounded.
func NewReassembler(maxPacketBytes uint32) *Reassembler {
	return &Reassembler{maxPacketBytes: maxPacketBytes}
}

// Feed appends newly-received bytes to the reassembly buffer.
func (r *Reassembler) Feed(data []byte) {
	r.buf = append(r.buf, data...)
}

// Buffered returns the number of unparsed bytes currently held.
func (r *Reassembler) Buffered() int { return len(r.buf) }

// Next attempts to slice one complete frame off the front of the buffer.
//
// Return values:
//   - (header, payload, true, nil): a complete frame was parsed and removed.
//   - (Header{}, nil, false, nil): not enough bytes yet for a full frame.
//   - (Header{}, nil, false, err): the stream is corrupt (bad magic, short
//     header length, or a frame over the configured limit). The connection
//     must be torn down; no resynchronization is attempted.
func (r *Reassembler) Next() (Header, []byte, bool, error) {
	if len(r.buf) < HeaderSize {
		return Header{}, nil, false, nil
	}
	h, err := ParseHeader(r.buf[:HeaderSize])
	if err != nil {
		return Header{}, nil, false, err
	}
	if r.maxPacketBytes > 0 && h.Length > r.maxPacketBytes {
		return Header{}, nil, false, ErrTooLong
	}
	if uint32(len(r.buf)) < h.Length {
		return Header{}, nil, false, nil
	}

	payload := make([]byte, h.Length-HeaderSize)
	copy(payload, r.buf[HeaderSize:h.Length])

	remaining := len(r.buf) - int(h.Length)
	copy(r.buf, r.buf[h.Length:])
	r.buf = r.buf[:remaining]

	return h, payload, true, nil
}
