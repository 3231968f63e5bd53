package w3gs

// JoinReq is sent by the client to join the game lobby. HostCounter
// identifies the game on the sender's LAN broadcast; the proxy decodes it
// but never uses it.
type JoinReq struct {
	HostCounter uint32
	PlayerName  string
}

func (JoinReq) TypeID() TypeID { return TypeJoinReq }

func (p JoinReq) Encode() []byte {
	w := NewWriter(5 + len(p.PlayerName))
	w.WriteUint32(p.HostCounter)
	w.WriteCString(p.PlayerName)
	return w.Bytes()
}

// DecodeJoinReq decodes a JoinReq payload.
func DecodeJoinReq(payload []byte) (JoinReq, error) {
	r := NewReader(payload)
	hc, err := r.ReadUint32()
	if err != nil {
		return JoinReq{}, err
	}
	name, err := r.ReadCString()
	if err != nil {
		return JoinReq{}, err
	}
	return JoinReq{HostCounter: hc, PlayerName: name}, nil
}

// SlotEntry is one slot's wire representation in a SlotInfo/SlotInfoJoin
// table: the occupying player's slot id (0 if the slot is empty) plus the
// game options that round-trip through the lobby exchange.
type SlotEntry struct {
	SlotPlayerID uint8
	Race         uint8
	Color        uint8
	Team         uint8
	Handicap     uint8
	ComputerKind uint8
}

func writeSlots(w *Writer, slots []SlotEntry) {
	w.WriteUint8(uint8(len(slots)))
	for _, s := range slots {
		w.WriteUint8(s.SlotPlayerID)
		w.WriteUint8(s.Race)
		w.WriteUint8(s.Color)
		w.WriteUint8(s.Team)
		w.WriteUint8(s.Handicap)
		w.WriteUint8(s.ComputerKind)
	}
}

func readSlots(r *Reader) ([]SlotEntry, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	slots := make([]SlotEntry, n)
	for i := range slots {
		id, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		race, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		color, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		team, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		handicap, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		computerKind, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		slots[i] = SlotEntry{
			SlotPlayerID: id,
			Race:         race,
			Color:        color,
			Team:         team,
			Handicap:     handicap,
			ComputerKind: computerKind,
		}
	}
	return slots, nil
}

// SlotInfoJoin is the host's reply to a JoinReq: the full slot layout plus
// the joining player's own assigned slot id.
type SlotInfoJoin struct {
	Slots        []SlotEntry
	SlotPlayerID uint8
}

func (SlotInfoJoin) TypeID() TypeID { return TypeSlotInfoJoin }

func (p SlotInfoJoin) Encode() []byte {
	w := NewWriter(2 + len(p.Slots)*6)
	writeSlots(w, p.Slots)
	w.WriteUint8(p.SlotPlayerID)
	return w.Bytes()
}

// DecodeSlotInfoJoin decodes a SlotInfoJoin payload.
func DecodeSlotInfoJoin(payload []byte) (SlotInfoJoin, error) {
	r := NewReader(payload)
	slots, err := readSlots(r)
	if err != nil {
		return SlotInfoJoin{}, err
	}
	id, err := r.ReadUint8()
	if err != nil {
		return SlotInfoJoin{}, err
	}
	return SlotInfoJoin{Slots: slots, SlotPlayerID: id}, nil
}

// SlotInfo is the slot-table update W3GS uses after the initial join
// handshake (race/team/color changes, a slot being vacated). Nothing in
// this module sends it; only its codec is provided.
type SlotInfo struct {
	Slots []SlotEntry
}

func (SlotInfo) TypeID() TypeID { return TypeSlotInfo }

func (p SlotInfo) Encode() []byte {
	w := NewWriter(1 + len(p.Slots)*6)
	writeSlots(w, p.Slots)
	return w.Bytes()
}

// DecodeSlotInfo decodes a SlotInfo payload.
func DecodeSlotInfo(payload []byte) (SlotInfo, error) {
	r := NewReader(payload)
	slots, err := readSlots(r)
	if err != nil {
		return SlotInfo{}, err
	}
	return SlotInfo{Slots: slots}, nil
}

// PlayerInfo announces one other connected player to a joining client.
type PlayerInfo struct {
	SlotPlayerID uint8
	PlayerName   string
}

func (PlayerInfo) TypeID() TypeID { return TypePlayerInfo }

func (p PlayerInfo) Encode() []byte {
	w := NewWriter(2 + len(p.PlayerName))
	w.WriteUint8(p.SlotPlayerID)
	w.WriteCString(p.PlayerName)
	return w.Bytes()
}

// DecodePlayerInfo decodes a PlayerInfo payload.
func DecodePlayerInfo(payload []byte) (PlayerInfo, error) {
	r := NewReader(payload)
	id, err := r.ReadUint8()
	if err != nil {
		return PlayerInfo{}, err
	}
	name, err := r.ReadCString()
	if err != nil {
		return PlayerInfo{}, err
	}
	return PlayerInfo{SlotPlayerID: id, PlayerName: name}, nil
}

// MapCheck tells the joining client which map the host expects it to have,
// identified by path and SHA1 so the client can verify or reject it.
type MapCheck struct {
	Path string
	SHA1 [20]byte
}

func (MapCheck) TypeID() TypeID { return TypeMapCheck }

func (p MapCheck) Encode() []byte {
	w := NewWriter(21 + len(p.Path))
	w.WriteCString(p.Path)
	w.WriteBytes(p.SHA1[:])
	return w.Bytes()
}

// DecodeMapCheck decodes a MapCheck payload.
func DecodeMapCheck(payload []byte) (MapCheck, error) {
	r := NewReader(payload)
	path, err := r.ReadCString()
	if err != nil {
		return MapCheck{}, err
	}
	b, err := r.ReadBytes(20)
	if err != nil {
		return MapCheck{}, err
	}
	var sha1 [20]byte
	copy(sha1[:], b)
	return MapCheck{Path: path, SHA1: sha1}, nil
}
