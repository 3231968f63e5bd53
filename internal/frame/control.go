package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/gDollaZ/flo/internal/types"
)

// ControlTypeID distinguishes control messages carried inside a
// TypeControl frame.
type ControlTypeID uint8

const (
	// ControlClientUpdateSlotStatus: proxy -> node, client-observed slot
	// status.
	ControlClientUpdateSlotStatus ControlTypeID = 1
	// ControlNodeGameStatus: node -> proxy, authoritative game status push.
	ControlNodeGameStatus ControlTypeID = 2
	// ControlPlayerStatusUpdate: node -> every proxy, a slot's status
	// changed (reported by any player, or by the node itself on
	// connect/disconnect). Every proxy needs this, not just the reporting
	// one, so each client's lobby/load screen can show the others.
	ControlPlayerStatusUpdate ControlTypeID = 3
)

// ClientUpdateSlotClientStatusRequest reports that the proxy observed
// SlotPlayerID transition to Status on the client side. The node records
// Status as the latest status of the player the connection belongs to
// (replacing whatever it held before); SlotPlayerID itself is not used
// to pick the player.
type ClientUpdateSlotClientStatusRequest struct {
	SlotPlayerID uint8
	Status       types.SlotClientStatus
}

// Encode wraps the request as a control Frame.
func (r ClientUpdateSlotClientStatusRequest) Encode() Frame {
	payload := make([]byte, 3)
	payload[0] = byte(ControlClientUpdateSlotStatus)
	payload[1] = r.SlotPlayerID
	payload[2] = byte(r.Status)
	return Frame{Type: TypeControl, Payload: payload}
}

// NodeGameStatusUpdate reports the node's authoritative game status.
type NodeGameStatusUpdate struct {
	Status types.NodeGameStatus
}

// Encode wraps the update as a control Frame.
func (u NodeGameStatusUpdate) Encode() Frame {
	payload := []byte{byte(ControlNodeGameStatus), byte(u.Status)}
	return Frame{Type: TypeControl, Payload: payload}
}

// PlayerStatusUpdate reports that a player's slot-client status changed, for
// every proxy connected to the game (not only the one that reported it).
type PlayerStatusUpdate struct {
	PlayerID int32
	Status   types.SlotClientStatus
}

// Encode wraps the update as a control Frame.
func (u PlayerStatusUpdate) Encode() Frame {
	payload := make([]byte, 6)
	payload[0] = byte(ControlPlayerStatusUpdate)
	binary.LittleEndian.PutUint32(payload[1:5], uint32(u.PlayerID))
	payload[5] = byte(u.Status)
	return Frame{Type: TypeControl, Payload: payload}
}

// DecodeControl unwraps a control Frame's specific message. Callers switch
// on the returned value's concrete type.
func DecodeControl(f Frame) (any, error) {
	if f.Type != TypeControl {
		return nil, fmt.Errorf("frame: expected Control frame, got %s", f.Type)
	}
	if len(f.Payload) < 1 {
		return nil, fmt.Errorf("frame: control frame has no type byte")
	}
	switch ControlTypeID(f.Payload[0]) {
	case ControlClientUpdateSlotStatus:
		if len(f.Payload) != 3 {
			return nil, fmt.Errorf("frame: ClientUpdateSlotClientStatusRequest wants 3 bytes, got %d", len(f.Payload))
		}
		return ClientUpdateSlotClientStatusRequest{
			SlotPlayerID: f.Payload[1],
			Status:       types.SlotClientStatus(f.Payload[2]),
		}, nil
	case ControlNodeGameStatus:
		if len(f.Payload) != 2 {
			return nil, fmt.Errorf("frame: NodeGameStatusUpdate wants 2 bytes, got %d", len(f.Payload))
		}
		return NodeGameStatusUpdate{Status: types.NodeGameStatus(f.Payload[1])}, nil
	case ControlPlayerStatusUpdate:
		if len(f.Payload) != 6 {
			return nil, fmt.Errorf("frame: PlayerStatusUpdate wants 6 bytes, got %d", len(f.Payload))
		}
		return PlayerStatusUpdate{
			PlayerID: int32(binary.LittleEndian.Uint32(f.Payload[1:5])),
			Status:   types.SlotClientStatus(f.Payload[5]),
		}, nil
	default:
		return nil, fmt.Errorf("frame: unknown control type %d", f.Payload[0])
	}
}
