package dispatch

import "github.com/gDollaZ/flo/internal/w3gs"

// privateHostMessage builds a ChatFromHost addressed only to toSlotPlayerID,
// used for host-originated notices like the mute-list banner.
func privateHostMessage(toSlotPlayerID uint8, message string) w3gs.Packet {
	return w3gs.EncodePacket(w3gs.ChatFromHost{
		ToSlotPlayerIDs:  []uint8{toSlotPlayerID},
		FromSlotPlayerID: toSlotPlayerID,
		Flag:             w3gs.ChatFlagLobby,
		Message:          message,
	})
}
