package dispatch

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/metrics"
)

// playerInfo is one player's dispatch bookkeeping: its current send sink,
// nil when disconnected. Chat-ban state lives in state.go instead, since
// only the state task's chat filtering needs it.
type playerInfo struct {
	slotPlayerID uint8
	tx           chan<- frame.Frame
}

func (p *playerInfo) connected() bool { return p.tx != nil }

// sendResult classifies why a send didn't happen, for the broadcast-drop
// metric's reason label.
type sendResult int

const (
	sendOK sendResult = iota
	sendFull
	sendClosed
)

// send attempts a non-blocking delivery. The sink's owner may close tx
// out from under the dispatcher (connection teardown racing a
// PlayerDisconnect message); try-sending on a closed channel panics, so
// that case is recovered and reported as sendClosed rather than crashing
// the state/tick task.
func (p *playerInfo) send(f frame.Frame) (result sendResult) {
	if p.tx == nil {
		return sendClosed
	}
	defer func() {
		if recover() != nil {
			result = sendClosed
		}
	}()
	select {
	case p.tx <- f:
		return sendOK
	default:
		return sendFull
	}
}

// shared is the state every broadcast and direct send touches: the player
// map, keyed by player id, plus a fixed ascending player-id order so
// broadcast fan-out is deterministic. Guarded by mu; no blocking call is
// ever made while mu is held — sends are non-blocking try-sends only.
type shared struct {
	mu      sync.Mutex
	gameID  int32
	players map[int32]*playerInfo
	order   []int32
}

func newShared(gameID int32, slots []game.Slot) *shared {
	players := make(map[int32]*playerInfo, len(slots))
	order := make([]int32, 0, len(slots))
	for _, s := range slots {
		if s.Player == nil {
			continue
		}
		players[s.Player.ID] = &playerInfo{
			slotPlayerID: uint8(s.SlotPlayerID()),
		}
		order = append(order, s.Player.ID)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return &shared{gameID: gameID, players: players, order: order}
}

func (s *shared) getPlayer(playerID int32) (*playerInfo, error) {
	p, ok := s.players[playerID]
	if !ok {
		return nil, fmt.Errorf("dispatch: unknown player id %d", playerID)
	}
	return p, nil
}

// broadcast sends f to every player Target selects that currently has a
// send sink attached. Failed sends (full queue) drop that player's sink
// and count against the broadcast-drop metric; they are not retried.
func (s *shared) broadcast(f frame.Frame, target Target) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, playerID := range s.order {
		p := s.players[playerID]
		if !target.Contains(playerID) || !p.connected() {
			continue
		}
		switch p.send(f) {
		case sendFull:
			slog.Info("dispatch: dropping player, send queue full",
				"game_id", s.gameID, "player_id", playerID)
			metrics.DispatchBroadcastDrops.WithLabelValues(fmt.Sprint(s.gameID), "full").Inc()
			p.tx = nil
		case sendClosed:
			slog.Info("dispatch: dropping player, sink closed",
				"game_id", s.gameID, "player_id", playerID)
			metrics.DispatchBroadcastDrops.WithLabelValues(fmt.Sprint(s.gameID), "closed").Inc()
			p.tx = nil
		}
	}
}

// sendTo sends f to exactly one player, reporting whether it was delivered.
func (s *shared) sendTo(playerID int32, f frame.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok || !p.connected() {
		return false
	}
	if p.send(f) != sendOK {
		p.tx = nil
		return false
	}
	return true
}

// attach installs tx as playerID's send sink, replacing any prior one.
func (s *shared) attach(playerID int32, tx chan<- frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.getPlayer(playerID)
	if err != nil {
		return err
	}
	p.tx = tx
	return nil
}

// detach removes playerID's send sink if present, reporting whether one
// was removed.
func (s *shared) detach(playerID int32) (had bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.getPlayer(playerID)
	if err != nil {
		return false
	}
	had = p.tx != nil
	p.tx = nil
	return had
}

// broadcastMessage sends a host-originated chat line to every connected
// player, addressed privately to each one.
func (s *shared) broadcastMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, playerID := range s.order {
		p := s.players[playerID]
		if !p.connected() {
			continue
		}
		p.send(frame.FromW3GS(privateHostMessage(p.slotPlayerID, message)))
	}
}
