package w3gs

import "fmt"

// ChatFlag distinguishes lobby chat (shown to everyone before load) from
// in-game chat (which carries a chat mode and is subject to ally/obs
// scoping and mute filtering).
type ChatFlag uint8

const (
	ChatFlagLobby  ChatFlag = 0x10
	ChatFlagInGame ChatFlag = 0x20
)

// ChatToHost is a chat message sent by a client to the host (the node, via
// the proxy). ToSlotPlayerIDs lists the intended recipients as they came
// off the wire; dispatch translates these ids to players through the
// game's slot table and drops the sender. ChatMode is not consulted.
type ChatToHost struct {
	ToSlotPlayerIDs  []uint8
	FromSlotPlayerID uint8
	Flag             ChatFlag
	ChatMode         uint32 // meaningful only when Flag == ChatFlagInGame
	Message          string
}

func (ChatToHost) TypeID() TypeID { return TypeChatToHost }

func (p ChatToHost) Encode() []byte {
	w := NewWriter(8 + len(p.ToSlotPlayerIDs) + len(p.Message))
	w.WriteUint8(uint8(len(p.ToSlotPlayerIDs)))
	for _, id := range p.ToSlotPlayerIDs {
		w.WriteUint8(id)
	}
	w.WriteUint8(p.FromSlotPlayerID)
	w.WriteUint8(uint8(p.Flag))
	if p.Flag == ChatFlagInGame {
		w.WriteUint32(p.ChatMode)
	}
	w.WriteCString(p.Message)
	return w.Bytes()
}

// DecodeChatToHost decodes a ChatToHost payload.
func DecodeChatToHost(payload []byte) (ChatToHost, error) {
	r := NewReader(payload)
	n, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, err
	}
	to := make([]uint8, n)
	for i := range to {
		b, err := r.ReadUint8()
		if err != nil {
			return ChatToHost{}, err
		}
		to[i] = b
	}
	from, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, err
	}
	flagByte, err := r.ReadUint8()
	if err != nil {
		return ChatToHost{}, err
	}
	flag := ChatFlag(flagByte)
	var mode uint32
	if flag == ChatFlagInGame {
		mode, err = r.ReadUint32()
		if err != nil {
			return ChatToHost{}, err
		}
	}
	msg, err := r.ReadCString()
	if err != nil {
		return ChatToHost{}, err
	}
	return ChatToHost{
		ToSlotPlayerIDs:  to,
		FromSlotPlayerID: from,
		Flag:             flag,
		ChatMode:         mode,
		Message:          msg,
	}, nil
}

// IsInGame reports whether this chat message was sent during the InGame
// phase, as opposed to the lobby.
func (p ChatToHost) IsInGame() bool { return p.Flag == ChatFlagInGame }

// ChatFromHost is the host-relayed form of a chat message, broadcast to the
// resolved set of recipients.
type ChatFromHost struct {
	ToSlotPlayerIDs  []uint8
	FromSlotPlayerID uint8
	Flag             ChatFlag
	ChatMode         uint32
	Message          string
}

func (ChatFromHost) TypeID() TypeID { return TypeChatFromHost }

func (p ChatFromHost) Encode() []byte {
	w := NewWriter(8 + len(p.ToSlotPlayerIDs) + len(p.Message))
	w.WriteUint8(uint8(len(p.ToSlotPlayerIDs)))
	for _, id := range p.ToSlotPlayerIDs {
		w.WriteUint8(id)
	}
	w.WriteUint8(p.FromSlotPlayerID)
	w.WriteUint8(uint8(p.Flag))
	if p.Flag == ChatFlagInGame {
		w.WriteUint32(p.ChatMode)
	}
	w.WriteCString(p.Message)
	return w.Bytes()
}

// FromChatToHost builds a ChatFromHost with a resolved recipient list,
// preserving everything else about the original message.
func FromChatToHost(src ChatToHost, resolvedRecipients []uint8) ChatFromHost {
	return ChatFromHost{
		ToSlotPlayerIDs:  resolvedRecipients,
		FromSlotPlayerID: src.FromSlotPlayerID,
		Flag:             src.Flag,
		ChatMode:         src.ChatMode,
		Message:          src.Message,
	}
}

func (f ChatFlag) String() string {
	switch f {
	case ChatFlagLobby:
		return "Lobby"
	case ChatFlagInGame:
		return "InGame"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", uint8(f))
	}
}
