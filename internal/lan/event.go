// Package lan holds the types shared across the LAN proxy's phase
// handlers: the events it emits to its owner and the pre-game status
// events the background collector buffers between client connections.
package lan

import "github.com/gDollaZ/flo/internal/types"

// Event is emitted by the proxy supervisor to whatever owns the session
// (the demo harness in this repo; a real node-client process elsewhere).
type Event interface {
	isEvent()
}

// GameDisconnected is emitted exactly once, on every exit path out of the
// supervisor's run loop.
type GameDisconnected struct {
	GameID int32
}

func (GameDisconnected) isEvent() {}

// PreGameEvent is fed into the supervisor from outside (e.g. the node
// dispatcher's own PlayerStatusChange events, relayed down to this proxy)
// while no client connection is attached yet, or once Load has started.
type PreGameEvent interface {
	isPreGameEvent()
}

// PlayerStatusChange is the only PreGameEvent: a slot's client status
// changed, as observed by the node or another client.
type PlayerStatusChange struct {
	PlayerID int32
	Status   types.SlotClientStatus
}

func (PlayerStatusChange) isPreGameEvent() {}
