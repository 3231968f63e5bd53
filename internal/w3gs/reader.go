package w3gs

import (
	"encoding/binary"
	"fmt"
)

// Reader reads W3GS primitive values from a packet payload.
// All multi-byte values are little-endian, matching the W3GS wire format.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential reads. data is not copied; callers
// must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("w3gs: short read (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	return nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadUint16 reads a uint16 (2 bytes, LE).
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a uint32 (4 bytes, LE).
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadCString reads a NUL-terminated ASCII string.
func (r *Reader) ReadCString() (string, error) {
	start := r.pos
	for {
		if r.pos >= len(r.data) {
			return "", fmt.Errorf("w3gs: unterminated string (start=%d, len=%d)", start, len(r.data))
		}
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s, nil
		}
		r.pos++
	}
}

// ReadBytes reads n raw bytes (zero-copy subslice; callers must not mutate).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Remaining reads every byte left in the payload.
func (r *Reader) Remaining() []byte {
	b := r.data[r.pos:]
	r.pos = len(r.data)
	return b
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}
