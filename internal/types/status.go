// Package types holds the small enumerations shared across the LAN proxy and
// the node dispatcher: slot-client status, node game status, and the
// bookkeeping enums that travel alongside them.
package types

// SlotClientStatus is the per-player load/connect state tracked for a slot.
// Transitions are monotonic except Loaded->Connected (aborted load) and
// any state -> Disconnected|Left, which are terminal.
type SlotClientStatus int

const (
	SlotClientStatusPending SlotClientStatus = iota
	SlotClientStatusConnected
	SlotClientStatusJoined
	SlotClientStatusLoading
	SlotClientStatusLoaded
	SlotClientStatusDisconnected
	SlotClientStatusLeft
)

func (s SlotClientStatus) String() string {
	switch s {
	case SlotClientStatusPending:
		return "PENDING"
	case SlotClientStatusConnected:
		return "CONNECTED"
	case SlotClientStatusJoined:
		return "JOINED"
	case SlotClientStatusLoading:
		return "LOADING"
	case SlotClientStatusLoaded:
		return "LOADED"
	case SlotClientStatusDisconnected:
		return "DISCONNECTED"
	case SlotClientStatusLeft:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is a terminal state for the slot.
func (s SlotClientStatus) Terminal() bool {
	return s == SlotClientStatusDisconnected || s == SlotClientStatusLeft
}

// NodeGameStatus is the overall, node-reported status of a game. Monotonic.
type NodeGameStatus int

const (
	NodeGameStatusCreated NodeGameStatus = iota
	NodeGameStatusWaiting
	NodeGameStatusLoading
	NodeGameStatusRunning
	NodeGameStatusEnded
)

func (s NodeGameStatus) String() string {
	switch s {
	case NodeGameStatusCreated:
		return "CREATED"
	case NodeGameStatusWaiting:
		return "WAITING"
	case NodeGameStatusLoading:
		return "LOADING"
	case NodeGameStatusRunning:
		return "RUNNING"
	case NodeGameStatusEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// StatusSource records who reported a PlayerStatusChange event: the node
// itself (connect/disconnect bookkeeping) or the client (via a control frame).
type StatusSource int

const (
	StatusSourceNode StatusSource = iota
	StatusSourceClient
)

func (s StatusSource) String() string {
	switch s {
	case StatusSourceNode:
		return "NODE"
	case StatusSourceClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// PlayerBanType names the ban kinds as strings. Slot players carry
// game.BanFlag values instead, and the core's in-game chat mute checks
// game.BanFlagChat; nothing in the core consults PlayerBanType.
type PlayerBanType int

const (
	PlayerBanTypeChat PlayerBanType = iota
	PlayerBanTypeVote
)

func (b PlayerBanType) String() string {
	switch b {
	case PlayerBanTypeChat:
		return "CHAT"
	case PlayerBanTypeVote:
		return "VOTE"
	default:
		return "UNKNOWN"
	}
}

// LeaveReason is carried on LeaveReq/PlayerLeft W3GS packets.
type LeaveReason uint32

const (
	LeaveDisconnect      LeaveReason = 0x0001
	LeaveLost            LeaveReason = 0x0007
	LeaveLostBuildings   LeaveReason = 0x0008
	LeaveWon             LeaveReason = 0x0009
	LeaveDraw            LeaveReason = 0x000A
	LeaveObserver        LeaveReason = 0x000B
	LeaveGProxyReconnect LeaveReason = 0x000D
)
