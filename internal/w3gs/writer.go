package w3gs

import (
	"bytes"
	"encoding/binary"
)

// Writer builds a W3GS packet payload. All multi-byte values are
// little-endian, matching the W3GS wire format.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer with capacity pre-reserved.
func NewWriter(capacity int) *Writer {
	w := &Writer{}
	w.buf.Grow(capacity)
	return w
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) { w.buf.WriteByte(v) }

// WriteUint16 writes a uint16 (2 bytes, LE).
func (w *Writer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteUint32 writes a uint32 (4 bytes, LE).
func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf.Write(tmp[:])
}

// WriteCString writes s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) {
	w.buf.WriteString(s)
	w.buf.WriteByte(0)
}

// WriteBytes writes raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) { w.buf.Write(b) }

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the current payload length.
func (w *Writer) Len() int { return w.buf.Len() }
