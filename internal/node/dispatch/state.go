package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/metrics"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	"github.com/gDollaZ/flo/internal/watch"
)

// state owns everything the dispatcher's state task touches: the shared
// player map, per-player ack bookkeeping, and the slot-player-id lookup
// used to translate wire ids (which the client sends) into the node's own
// player ids.
type state struct {
	gameID               int32
	shared               *shared
	status               *watch.Cell[types.NodeGameStatus]
	sentTicks            atomic.Uint64 // written by the tick task, read here
	playerAckTicks       map[int32]uint64
	slotPlayerIDToPlayer map[uint8]int32
	chatBannedPlayerIDs  map[int32]struct{}
	playerStatus         map[int32]types.SlotClientStatus
	runningTriggered     bool
}

func newState(gameID int32, info game.Info, status *watch.Cell[types.NodeGameStatus]) *state {
	s := &state{
		gameID:               gameID,
		shared:               newShared(gameID, info.Slots),
		status:               status,
		playerAckTicks:       make(map[int32]uint64),
		slotPlayerIDToPlayer: make(map[uint8]int32),
		chatBannedPlayerIDs:  make(map[int32]struct{}),
		playerStatus:         make(map[int32]types.SlotClientStatus),
	}
	for _, slot := range info.Slots {
		if slot.Player == nil {
			continue
		}
		s.playerAckTicks[slot.Player.ID] = 0
		s.slotPlayerIDToPlayer[uint8(slot.SlotPlayerID())] = slot.Player.ID
		s.playerStatus[slot.Player.ID] = slot.ClientStatus
		if slot.Player.HasBan(game.BanFlagChat) {
			s.chatBannedPlayerIDs[slot.Player.ID] = struct{}{}
		}
	}
	return s
}

// noteStatus records a player's latest known slot-client status, broadcasts
// it to every connected player (so each one's lobby/load screen can show
// the others), and, once every non-terminal player has reported Loaded
// while the game is in its Loading status, advances the game to Running and
// broadcasts that transition too.
func (s *state) noteStatus(playerID int32, status types.SlotClientStatus) {
	s.playerStatus[playerID] = status
	s.shared.broadcast(frame.PlayerStatusUpdate{PlayerID: playerID, Status: status}.Encode(), Everyone{})

	if s.runningTriggered || status != types.SlotClientStatusLoaded {
		return
	}
	if s.status.Get() != types.NodeGameStatusLoading || !s.allLoaded() {
		return
	}
	s.runningTriggered = true
	s.status.Set(types.NodeGameStatusRunning)
	s.shared.broadcast(frame.NodeGameStatusUpdate{Status: types.NodeGameStatusRunning}.Encode(), Everyone{})
}

func (s *state) allLoaded() bool {
	for _, st := range s.playerStatus {
		if st.Terminal() {
			continue
		}
		if st != types.SlotClientStatusLoaded {
			return false
		}
	}
	return true
}

func (s *state) ackTick(playerID int32) {
	if _, ok := s.playerAckTicks[playerID]; ok {
		s.playerAckTicks[playerID]++
		lag := s.sentTicks.Load() - s.playerAckTicks[playerID]
		metrics.DispatchPlayerAckLag.WithLabelValues(fmt.Sprint(s.gameID), fmt.Sprint(playerID)).Set(float64(lag))
	}
}

// dispatch handles one Message. actionCh receives decoded PlayerActions for
// the tick task to batch; events receives PlayerStatusChange notices for
// the rest of the node.
func (s *state) dispatch(ctx context.Context, msg Message, actionCh chan<- w3gs.PlayerAction, events chan<- Event) error {
	switch m := msg.(type) {
	case Incoming:
		return s.dispatchIncoming(ctx, m, actionCh, events)
	case PlayerConnect:
		if err := s.shared.attach(m.PlayerID, m.Tx); err != nil {
			return err
		}
		s.noteStatus(m.PlayerID, types.SlotClientStatusConnected)
		return sendEvent(ctx, events, PlayerStatusChange{
			PlayerID: m.PlayerID,
			Status:   types.SlotClientStatusConnected,
			Source:   types.StatusSourceNode,
		})
	case PlayerDisconnect:
		s.noteStatus(m.PlayerID, types.SlotClientStatusDisconnected)
		if err := sendEvent(ctx, events, PlayerStatusChange{
			PlayerID: m.PlayerID,
			Status:   types.SlotClientStatusDisconnected,
			Source:   types.StatusSourceNode,
		}); err != nil {
			return err
		}
		if had := s.shared.detach(m.PlayerID); had {
			pkt := w3gs.EncodePacket(w3gs.PlayerLeft{
				SlotPlayerID: m.SlotPlayerID,
				Reason:       types.LeaveDisconnect,
			})
			s.shared.broadcast(frame.FromW3GS(pkt), Everyone{})
		}
		return nil
	default:
		return fmt.Errorf("dispatch: unknown message type %T", msg)
	}
}

func (s *state) dispatchIncoming(ctx context.Context, m Incoming, actionCh chan<- w3gs.PlayerAction, events chan<- Event) error {
	switch m.Frame.Type {
	case frame.TypeW3GS:
		pkt, err := frame.ToW3GS(m.Frame)
		if err != nil {
			return err
		}
		return s.dispatchIncomingW3GS(ctx, m.PlayerID, m.SlotPlayerID, pkt, actionCh, events)
	case frame.TypeControl:
		return s.dispatchIncomingControl(ctx, m.PlayerID, m.Frame, events)
	default:
		slog.Debug("dispatch: ignoring unknown frame type", "type", m.Frame.Type)
		return nil
	}
}

func (s *state) dispatchIncomingW3GS(ctx context.Context, playerID int32, slotPlayerID uint8, pkt w3gs.Packet, actionCh chan<- w3gs.PlayerAction, events chan<- Event) error {
	switch pkt.Type {
	case w3gs.TypeOutgoingAction:
		oa, err := w3gs.DecodeOutgoingAction(pkt.Payload)
		if err != nil {
			return err
		}
		select {
		case actionCh <- w3gs.PlayerAction{SlotPlayerID: slotPlayerID, Data: oa.Data}:
		case <-ctx.Done():
			return floerr.ErrCancelled
		}
		return nil

	case w3gs.TypeLeaveReq:
		req, err := w3gs.DecodeLeaveReq(pkt.Payload)
		if err != nil {
			return err
		}
		slog.Info("dispatch: leave", "game_id", s.gameID, "player_id", playerID, "reason", req.Reason)

		leftPkt := frame.FromW3GS(w3gs.EncodePacket(w3gs.PlayerLeft{
			SlotPlayerID: slotPlayerID,
			Reason:       req.Reason,
		}))
		s.shared.sendTo(playerID, frame.FromW3GS(w3gs.EncodePacket(w3gs.LeaveAck{})))
		s.shared.detach(playerID)
		s.shared.broadcast(leftPkt, DenyList{playerID})
		s.noteStatus(playerID, types.SlotClientStatusLeft)

		return sendEvent(ctx, events, PlayerStatusChange{
			PlayerID: playerID,
			Status:   types.SlotClientStatusLeft,
			Source:   types.StatusSourceNode,
		})

	case w3gs.TypeChatToHost:
		return s.dispatchChat(playerID, pkt)

	case w3gs.TypeOutgoingKeepAlive:
		s.ackTick(playerID)
		return nil

	default:
		slog.Debug("dispatch: unhandled w3gs packet", "type", pkt.Type)
		return nil
	}
}

func (s *state) dispatchIncomingControl(ctx context.Context, playerID int32, f frame.Frame, events chan<- Event) error {
	msg, err := frame.DecodeControl(f)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case frame.ClientUpdateSlotClientStatusRequest:
		s.noteStatus(playerID, m.Status)
		return sendEvent(ctx, events, PlayerStatusChange{
			PlayerID: playerID,
			Status:   m.Status,
			Source:   types.StatusSourceClient,
		})
	default:
		slog.Debug("dispatch: unhandled control message", "type", fmt.Sprintf("%T", msg))
		return nil
	}
}

func (s *state) dispatchChat(playerID int32, pkt w3gs.Packet) error {
	chat, err := w3gs.DecodeChatToHost(pkt.Payload)
	if err != nil {
		return err
	}
	if _, banned := s.chatBannedPlayerIDs[playerID]; banned && chat.IsInGame() {
		return nil
	}

	var recipients []int32
	for _, slotID := range chat.ToSlotPlayerIDs {
		id, ok := s.slotPlayerIDToPlayer[slotID]
		if !ok || id == playerID {
			continue
		}
		recipients = append(recipients, id)
	}

	out := w3gs.EncodePacket(w3gs.FromChatToHost(chat, chat.ToSlotPlayerIDs))
	s.shared.broadcast(frame.FromW3GS(out), AllowList(recipients))
	return nil
}

func sendEvent(ctx context.Context, events chan<- Event, e Event) error {
	select {
	case events <- e:
		return nil
	case <-ctx.Done():
		return floerr.ErrCancelled
	}
}
