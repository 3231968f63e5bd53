package w3gs

import "fmt"

// TypeID identifies a W3GS packet's payload type. The wire format used here
// stands in for the real W3GS codec, which spec.md treats as an external,
// already-available library.
type TypeID uint8

const (
	TypeJoinReq           TypeID = 0x1E
	TypeSlotInfoJoin      TypeID = 0x04
	TypeRejectJoin        TypeID = 0x05
	TypePlayerInfo        TypeID = 0x06
	TypePlayerLeft        TypeID = 0x07
	TypePlayerLoaded      TypeID = 0x08
	TypeSlotInfo          TypeID = 0x09
	TypeCountDownStart    TypeID = 0x0A
	TypeCountDownEnd      TypeID = 0x0B
	TypeIncomingAction    TypeID = 0x0C
	TypeChatFromHost      TypeID = 0x0F
	TypeLeaveAck          TypeID = 0x1B
	TypeLeaveReq          TypeID = 0x21
	TypeGameLoadedSelf    TypeID = 0x23
	TypeOutgoingAction    TypeID = 0x26
	TypeOutgoingKeepAlive TypeID = 0x27
	TypeChatToHost        TypeID = 0x28
	TypeMapCheck          TypeID = 0x3D
)

func (t TypeID) String() string {
	switch t {
	case TypeJoinReq:
		return "JoinReq"
	case TypeSlotInfoJoin:
		return "SlotInfoJoin"
	case TypeRejectJoin:
		return "RejectJoin"
	case TypePlayerInfo:
		return "PlayerInfo"
	case TypePlayerLeft:
		return "PlayerLeft"
	case TypePlayerLoaded:
		return "PlayerLoaded"
	case TypeSlotInfo:
		return "SlotInfo"
	case TypeCountDownStart:
		return "CountDownStart"
	case TypeCountDownEnd:
		return "CountDownEnd"
	case TypeIncomingAction:
		return "IncomingAction"
	case TypeChatFromHost:
		return "ChatFromHost"
	case TypeLeaveAck:
		return "LeaveAck"
	case TypeLeaveReq:
		return "LeaveReq"
	case TypeGameLoadedSelf:
		return "GameLoadedSelf"
	case TypeOutgoingAction:
		return "OutgoingAction"
	case TypeOutgoingKeepAlive:
		return "OutgoingKeepAlive"
	case TypeChatToHost:
		return "ChatToHost"
	case TypeMapCheck:
		return "MapCheck"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
	}
}

// Packet is a decoded W3GS frame: a type id plus its raw payload. Handlers
// that care about a specific payload call the matching Decode* function;
// everything else is routed or forwarded unexamined.
type Packet struct {
	Type    TypeID
	Payload []byte
}

// Simple builds a Packet with no payload, for fire-and-forget packets like
// LeaveAck or GameLoadedSelf.
func Simple(t TypeID) Packet {
	return Packet{Type: t}
}

// Encoder is implemented by payload types that know how to serialize
// themselves into a Packet.
type Encoder interface {
	TypeID() TypeID
	Encode() []byte
}

// EncodePacket turns any Encoder into a Packet.
func EncodePacket(e Encoder) Packet {
	return Packet{Type: e.TypeID(), Payload: e.Encode()}
}
