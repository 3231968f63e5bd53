// Package wnet binds a loopback TCP port for the game client to connect
// to, and frames W3GS packets over the resulting connection the way
// Warcraft III itself does: a fixed 4-byte header (magic, type id, total
// length LE) followed by the payload.
package wnet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gDollaZ/flo/internal/w3gs"
)

// packetMagic is the first byte of every W3GS packet header.
const packetMagic byte = 0xF7

// headerLen is the fixed header size: magic + type id + uint16 length.
const headerLen = 4

// maxPacketLen bounds a single packet, matching the field width of the
// wire length (uint16 includes the header).
const maxPacketLen = 0xFFFF

// WritePacket frames p and writes it to w.
func WritePacket(w io.Writer, p w3gs.Packet) error {
	total := headerLen + len(p.Payload)
	if total > maxPacketLen {
		return fmt.Errorf("w3gs/net: packet too large (%d bytes)", total)
	}
	hdr := [headerLen]byte{packetMagic, byte(p.Type)}
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(total))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("w3gs/net: write header: %w", err)
	}
	if len(p.Payload) == 0 {
		return nil
	}
	if _, err := w.Write(p.Payload); err != nil {
		return fmt.Errorf("w3gs/net: write payload: %w", err)
	}
	return nil
}

// ReadPacket decodes one framed packet from r, blocking until it arrives.
func ReadPacket(r io.Reader) (w3gs.Packet, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return w3gs.Packet{}, fmt.Errorf("w3gs/net: read header: %w", err)
	}
	if hdr[0] != packetMagic {
		return w3gs.Packet{}, fmt.Errorf("w3gs/net: bad magic byte 0x%02X", hdr[0])
	}
	total := binary.LittleEndian.Uint16(hdr[2:4])
	if int(total) < headerLen {
		return w3gs.Packet{}, fmt.Errorf("w3gs/net: length %d shorter than header", total)
	}
	payload := make([]byte, int(total)-headerLen)
	if len(payload) > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return w3gs.Packet{}, fmt.Errorf("w3gs/net: read payload: %w", err)
		}
	}
	return w3gs.Packet{Type: w3gs.TypeID(hdr[1]), Payload: payload}, nil
}
