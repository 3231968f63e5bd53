// Package dispatch is the node-side authority for a single game: it holds
// the only state that decides who can hear whom, relays the Action Tick
// Stream, and turns client-status transitions into events the rest of the
// node reacts to.
package dispatch

import (
	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/types"
)

// Message is sent to a Dispatcher's state task. The concrete types below
// are the only implementations.
type Message interface {
	isMessage()
}

// Incoming is a frame a player's node-link connection received.
type Incoming struct {
	PlayerID     int32
	SlotPlayerID uint8
	Frame        frame.Frame
}

// PlayerConnect attaches (or re-attaches, on GProxy-style reconnect) a
// send sink for PlayerID. Tx is owned by the caller; the dispatcher only
// ever sends on it, never closes it.
type PlayerConnect struct {
	PlayerID     int32
	SlotPlayerID uint8
	Tx           chan<- frame.Frame
}

// PlayerDisconnect reports that a player's node-link connection dropped.
type PlayerDisconnect struct {
	PlayerID     int32
	SlotPlayerID uint8
}

func (Incoming) isMessage()         {}
func (PlayerConnect) isMessage()    {}
func (PlayerDisconnect) isMessage() {}

// Event is emitted by a Dispatcher for the rest of the node to observe.
type Event interface {
	isEvent()
}

// PlayerStatusChange reports a slot's client status transition and who
// observed it.
type PlayerStatusChange struct {
	PlayerID int32
	Status   types.SlotClientStatus
	Source   types.StatusSource
}

func (PlayerStatusChange) isEvent() {}
