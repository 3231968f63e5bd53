package w3gs

// PlayerAction is one player's queued command data for a single time slot.
// The payload is opaque game-simulation bytes; the proxy and dispatcher
// never interpret it, only batch and forward it.
type PlayerAction struct {
	SlotPlayerID uint8
	Data         []byte
}

// OutgoingAction is what a client sends the host: its queued actions since
// the last tick, plus a CRC the host uses to detect desync.
type OutgoingAction struct {
	Data []byte
	CRC  uint16
}

func (OutgoingAction) TypeID() TypeID { return TypeOutgoingAction }

func (p OutgoingAction) Encode() []byte {
	w := NewWriter(2 + len(p.Data))
	w.WriteUint16(p.CRC)
	w.WriteBytes(p.Data)
	return w.Bytes()
}

// DecodeOutgoingAction decodes an OutgoingAction payload.
func DecodeOutgoingAction(payload []byte) (OutgoingAction, error) {
	r := NewReader(payload)
	crc, err := r.ReadUint16()
	if err != nil {
		return OutgoingAction{}, err
	}
	return OutgoingAction{CRC: crc, Data: r.Remaining()}, nil
}

// IncomingAction is a single time slot's worth of batched player actions,
// sent from host to all clients on the Action Tick Stream's cadence.
type IncomingAction struct {
	Actions  []PlayerAction
	TimeSlot uint16 // milliseconds since the previous tick
}

func (IncomingAction) TypeID() TypeID { return TypeIncomingAction }

func (p IncomingAction) Encode() []byte {
	w := NewWriter(64)
	body := NewWriter(64)
	for _, a := range p.Actions {
		body.WriteUint8(a.SlotPlayerID)
		body.WriteUint16(uint16(len(a.Data)))
		body.WriteBytes(a.Data)
	}
	w.WriteUint16(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
	w.WriteUint16(p.TimeSlot)
	return w.Bytes()
}

// DecodeIncomingAction decodes an IncomingAction payload.
func DecodeIncomingAction(payload []byte) (IncomingAction, error) {
	r := NewReader(payload)
	blockLen, err := r.ReadUint16()
	if err != nil {
		return IncomingAction{}, err
	}
	block, err := r.ReadBytes(int(blockLen))
	if err != nil {
		return IncomingAction{}, err
	}
	timeSlot, err := r.ReadUint16()
	if err != nil {
		return IncomingAction{}, err
	}
	br := NewReader(block)
	var actions []PlayerAction
	for br.Len() > 0 {
		id, err := br.ReadUint8()
		if err != nil {
			return IncomingAction{}, err
		}
		n, err := br.ReadUint16()
		if err != nil {
			return IncomingAction{}, err
		}
		data, err := br.ReadBytes(int(n))
		if err != nil {
			return IncomingAction{}, err
		}
		actions = append(actions, PlayerAction{SlotPlayerID: id, Data: data})
	}
	return IncomingAction{Actions: actions, TimeSlot: timeSlot}, nil
}

// OutgoingKeepAlive is sent by a client on ticks where it queued no actions,
// carrying only the running CRC the host uses for desync detection.
type OutgoingKeepAlive struct {
	CRC uint32
}

func (OutgoingKeepAlive) TypeID() TypeID { return TypeOutgoingKeepAlive }

func (p OutgoingKeepAlive) Encode() []byte {
	w := NewWriter(4)
	w.WriteUint32(p.CRC)
	return w.Bytes()
}

// DecodeOutgoingKeepAlive decodes an OutgoingKeepAlive payload.
func DecodeOutgoingKeepAlive(payload []byte) (OutgoingKeepAlive, error) {
	r := NewReader(payload)
	crc, err := r.ReadUint32()
	if err != nil {
		return OutgoingKeepAlive{}, err
	}
	return OutgoingKeepAlive{CRC: crc}, nil
}
