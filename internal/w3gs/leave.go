package w3gs

import "github.com/gDollaZ/flo/internal/types"

// LeaveReq is sent by the client when it wants to leave the game.
type LeaveReq struct {
	Reason types.LeaveReason
}

func (LeaveReq) TypeID() TypeID { return TypeLeaveReq }

func (p LeaveReq) Encode() []byte {
	w := NewWriter(4)
	w.WriteUint32(uint32(p.Reason))
	return w.Bytes()
}

// DecodeLeaveReq decodes a LeaveReq payload.
func DecodeLeaveReq(payload []byte) (LeaveReq, error) {
	r := NewReader(payload)
	v, err := r.ReadUint32()
	if err != nil {
		return LeaveReq{}, err
	}
	return LeaveReq{Reason: types.LeaveReason(v)}, nil
}

// LeaveAck acknowledges a LeaveReq. No payload.
type LeaveAck struct{}

func (LeaveAck) TypeID() TypeID { return TypeLeaveAck }
func (LeaveAck) Encode() []byte { return nil }

// PlayerLeft is broadcast to remaining players when someone leaves.
type PlayerLeft struct {
	SlotPlayerID uint8
	Reason       types.LeaveReason
}

func (PlayerLeft) TypeID() TypeID { return TypePlayerLeft }

func (p PlayerLeft) Encode() []byte {
	w := NewWriter(5)
	w.WriteUint8(p.SlotPlayerID)
	w.WriteUint32(uint32(p.Reason))
	return w.Bytes()
}

// DecodePlayerLeft decodes a PlayerLeft payload.
func DecodePlayerLeft(payload []byte) (PlayerLeft, error) {
	r := NewReader(payload)
	id, err := r.ReadUint8()
	if err != nil {
		return PlayerLeft{}, err
	}
	reason, err := r.ReadUint32()
	if err != nil {
		return PlayerLeft{}, err
	}
	return PlayerLeft{SlotPlayerID: id, Reason: types.LeaveReason(reason)}, nil
}
