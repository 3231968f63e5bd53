// Package game holds the immutable game description shared by the LAN proxy
// and the node dispatcher: slots, map identity, and the lookups derived from
// the slot list (slot-player-id translation, per-player ban flags, FLO_OB
// guard).
package game

import (
	"fmt"

	"github.com/gDollaZ/flo/internal/types"
)

// SlotCount is the fixed number of slots in a game session.
const SlotCount = 24

// ObserverSlotIndex is the FLO_OB slot reserved for downstream observer
// injection. The core never assigns a human player to it.
const ObserverSlotIndex = 23

// MapInfo identifies the map being played.
type MapInfo struct {
	Path string
	SHA1 [20]byte
}

// SlotPlayer is the player occupying a slot, if any.
type SlotPlayer struct {
	ID       int32
	Name     string
	BanFlags []BanFlag
}

// HasBan reports whether the player carries the given ban flag.
func (p *SlotPlayer) HasBan(flag BanFlag) bool {
	if p == nil {
		return false
	}
	for _, f := range p.BanFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// BanFlag is a player-carried restriction. dispatch checks BanFlagChat when
// filtering in-game chat; nothing consults BanFlagVote. Kept distinct from
// types.PlayerBanType
// since SlotPlayer.BanFlags is a set the node never needs to stringify.
type BanFlag int

const (
	BanFlagChat BanFlag = iota
	BanFlagVote
)

// SlotSettings carries the per-slot game options that aren't part of the
// core's routing logic but round-trip through W3GS packets.
type SlotSettings struct {
	Race         int
	Color        int
	Team         int
	Handicap     int
	ComputerKind int
}

// Slot is one of the (always 24) ordered slots in a game.
type Slot struct {
	Index        int
	Player       *SlotPlayer
	Settings     SlotSettings
	ClientStatus types.SlotClientStatus
}

// SlotPlayerID is the 1-based id visible on the wire: slot_index + 1.
func (s Slot) SlotPlayerID() int {
	return s.Index + 1
}

// Info is the immutable game description.
type Info struct {
	GameID        int32
	Map           MapInfo
	LocalPlayerID int32
	Slots         []Slot
}

// NewInfo validates and constructs an Info. It returns an error if slots is
// not exactly SlotCount entries, if a human player occupies the reserved
// FLO_OB slot, or if any player id appears twice.
func NewInfo(gameID int32, m MapInfo, localPlayerID int32, slots []Slot) (Info, error) {
	if len(slots) != SlotCount {
		return Info{}, fmt.Errorf("game: expected %d slots, got %d", SlotCount, len(slots))
	}
	if slots[ObserverSlotIndex].Player != nil {
		return Info{}, fmt.Errorf("game: FLO_OB slot %d may not hold a human player", ObserverSlotIndex)
	}
	seen := make(map[int32]struct{}, SlotCount)
	for _, s := range slots {
		if s.Player == nil {
			continue
		}
		if _, dup := seen[s.Player.ID]; dup {
			return Info{}, fmt.Errorf("game: duplicate player id %d across slots", s.Player.ID)
		}
		seen[s.Player.ID] = struct{}{}
	}
	cp := make([]Slot, len(slots))
	copy(cp, slots)
	return Info{GameID: gameID, Map: m, LocalPlayerID: localPlayerID, Slots: cp}, nil
}

// SlotOf returns the slot assigned to the given player id.
func (i Info) SlotOf(playerID int32) (Slot, bool) {
	for _, s := range i.Slots {
		if s.Player != nil && s.Player.ID == playerID {
			return s, true
		}
	}
	return Slot{}, false
}

// LocalSlot returns the slot assigned to the local player.
func (i Info) LocalSlot() (Slot, bool) {
	return i.SlotOf(i.LocalPlayerID)
}

// LocalSlotPlayerID returns the 1-based slot id of the local player, or 0
// if the local player has no slot (should not happen for a valid Info).
func (i Info) LocalSlotPlayerID() int {
	if s, ok := i.LocalSlot(); ok {
		return s.SlotPlayerID()
	}
	return 0
}
