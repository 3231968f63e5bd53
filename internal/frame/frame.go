// Package frame implements the node-side wire framing: every message
// exchanged with a node over its TCP stream is an 8-byte header (type id,
// payload length, both little-endian uint32) followed by payload bytes.
// A frame's payload is either a raw W3GS packet (re-framed without its own
// length prefix) or a control message understood only by the node link.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gDollaZ/flo/internal/w3gs"
)

// TypeID identifies what a Frame's payload holds.
type TypeID uint32

const (
	TypeW3GS    TypeID = 1
	TypeControl TypeID = 2
)

func (t TypeID) String() string {
	switch t {
	case TypeW3GS:
		return "W3GS"
	case TypeControl:
		return "Control"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// MaxPayloadLen bounds a single frame's payload, guarding against a
// corrupt or hostile length prefix causing an unbounded allocation.
const MaxPayloadLen = 16 << 20

// headerLen is the fixed 8-byte header size: 4 bytes type id + 4 bytes
// payload length.
const headerLen = 8

// Frame is one node-link message: a type id and its raw payload.
type Frame struct {
	Type    TypeID
	Payload []byte
}

// Write encodes f to w as an 8-byte header followed by the payload.
func Write(w io.Writer, f Frame) error {
	var hdr [headerLen]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(f.Type))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("frame: write header: %w", err)
	}
	if len(f.Payload) == 0 {
		return nil
	}
	if _, err := w.Write(f.Payload); err != nil {
		return fmt.Errorf("frame: write payload: %w", err)
	}
	return nil
}

// Read decodes one Frame from r, blocking until the full frame arrives.
func Read(r io.Reader) (Frame, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, fmt.Errorf("frame: read header: %w", err)
	}
	typ := TypeID(binary.LittleEndian.Uint32(hdr[0:4]))
	length := binary.LittleEndian.Uint32(hdr[4:8])
	if length > MaxPayloadLen {
		return Frame{}, fmt.Errorf("frame: payload length %d exceeds max %d", length, MaxPayloadLen)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("frame: read payload: %w", err)
		}
	}
	return Frame{Type: typ, Payload: payload}, nil
}

// w3gsTypeLen is the length of the re-framed W3GS payload's own
// sub-header: the packet type id (1 byte) and nothing else, since the
// outer Frame already carries the total length.
const w3gsTypeLen = 1

// FromW3GS wraps a decoded W3GS packet as a Frame.
func FromW3GS(p w3gs.Packet) Frame {
	payload := make([]byte, w3gsTypeLen+len(p.Payload))
	payload[0] = byte(p.Type)
	copy(payload[w3gsTypeLen:], p.Payload)
	return Frame{Type: TypeW3GS, Payload: payload}
}

// ToW3GS unwraps a Frame of type TypeW3GS back into a w3gs.Packet. It
// returns an error if f is not a W3GS frame or is too short to carry a
// type byte.
func ToW3GS(f Frame) (w3gs.Packet, error) {
	if f.Type != TypeW3GS {
		return w3gs.Packet{}, fmt.Errorf("frame: expected W3GS frame, got %s", f.Type)
	}
	if len(f.Payload) < w3gsTypeLen {
		return w3gs.Packet{}, fmt.Errorf("frame: W3GS frame payload too short (%d bytes)", len(f.Payload))
	}
	return w3gs.Packet{
		Type:    w3gs.TypeID(f.Payload[0]),
		Payload: f.Payload[w3gsTypeLen:],
	}, nil
}
