// Package loadscreen implements the Load phase: replaying already-loaded
// players to the local client, forwarding its own load progress to the
// node, and watching for the node transitioning to Running.
package loadscreen

import (
	"context"
	"log/slog"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
	"github.com/gDollaZ/flo/internal/watch"
)

// Action is the disposition a Handler run returns.
type Action int

const (
	// ActionRunning means the node transitioned to Running: proceed to the
	// in-game phase.
	ActionRunning Action = iota
	// ActionLeave means the client sent a LeaveReq mid-load: per the node's
	// own semantics this returns control to the Lobby, it does not end the
	// session.
	ActionLeave
)

func (a Action) String() string {
	if a == ActionLeave {
		return "Leave"
	}
	return "Running"
}

// Handler drives the Load phase for one client connection.
type Handler struct {
	info   game.Info
	stream *wnet.Stream
	node   *stream.Handle
	status *watch.Receiver[types.NodeGameStatus]
	events <-chan lan.PreGameEvent
}

// New constructs a Handler for one client connection.
func New(info game.Info, clientStream *wnet.Stream, node *stream.Handle, status *watch.Receiver[types.NodeGameStatus], events <-chan lan.PreGameEvent) *Handler {
	return &Handler{info: info, stream: clientStream, node: node, status: status, events: events}
}

// Run drives the Load phase. statuses is the current best-known status per
// player id (seeded by the proxy's pre-game collector, or by a prior run on
// an earlier client connection); Run mutates it in place as further events
// arrive, so the caller's copy stays current across Lobby/Load
// round-trips. Run replays every already-Loaded player to the client once on
// entry, then keeps it current from both node statuses and inbound
// PreGameEvents until the node reports Running (ActionRunning) or the
// client leaves (ActionLeave). A node status of Waiting or Ended while in
// this phase is a protocol violation and returned as a fatal error.
func (h *Handler) Run(ctx context.Context, statuses map[int32]types.SlotClientStatus) (Action, error) {
	loadedSent := make(map[int32]struct{}, len(statuses))
	for playerID, st := range statuses {
		if st == types.SlotClientStatusLoaded {
			if err := h.sendPlayerLoaded(playerID); err != nil {
				return ActionLeave, err
			}
			loadedSent[playerID] = struct{}{}
		}
	}

	statusCh, statusErrCh := watchNodeStatus(ctx, h.status)
	pktCh, pktErrCh := recvLoop(h.stream)

	for {
		select {
		case <-ctx.Done():
			return ActionLeave, ctx.Err()

		case s := <-statusCh:
			switch s {
			case types.NodeGameStatusRunning:
				return ActionRunning, nil
			case types.NodeGameStatusLoading:
				// already known, nothing to do
			default:
				return ActionLeave, floerr.NewUnexpectedNodeGameStatus(s)
			}

		case err := <-statusErrCh:
			if err != nil {
				return ActionLeave, err
			}
			return ActionLeave, floerr.ErrStreamClosed

		case evt, ok := <-h.events:
			if !ok {
				return ActionLeave, floerr.ErrStreamClosed
			}
			chg, ok := evt.(lan.PlayerStatusChange)
			if !ok {
				continue
			}
			statuses[chg.PlayerID] = chg.Status
			if chg.Status != types.SlotClientStatusLoaded {
				continue
			}
			if _, sent := loadedSent[chg.PlayerID]; sent {
				continue
			}
			if err := h.sendPlayerLoaded(chg.PlayerID); err != nil {
				return ActionLeave, err
			}
			loadedSent[chg.PlayerID] = struct{}{}

		case pkt := <-pktCh:
			action, leave, err := h.handlePacket(pkt)
			if err != nil {
				return ActionLeave, nil
			}
			if leave {
				return action, nil
			}
			pktCh, pktErrCh = recvLoop(h.stream)

		case <-pktErrCh:
			return ActionLeave, nil
		}
	}
}

func (h *Handler) handlePacket(pkt w3gs.Packet) (action Action, leave bool, err error) {
	switch pkt.Type {
	case w3gs.TypeLeaveReq:
		req, err := w3gs.DecodeLeaveReq(pkt.Payload)
		if err != nil {
			return ActionLeave, true, err
		}
		slog.Info("loadscreen: leave", "reason", req.Reason)
		_ = h.stream.Send(w3gs.EncodePacket(w3gs.LeaveAck{}))
		return ActionLeave, true, nil

	case w3gs.TypeGameLoadedSelf:
		local, _ := h.info.LocalSlot()
		if err := h.node.ReportSlotStatus(uint8(local.SlotPlayerID()), types.SlotClientStatusLoaded); err != nil {
			return ActionLeave, true, err
		}
		return 0, false, nil

	default:
		if err := h.node.SendW3GS(pkt); err != nil {
			return ActionLeave, true, err
		}
		return 0, false, nil
	}
}

func (h *Handler) sendPlayerLoaded(playerID int32) error {
	slot, ok := h.info.SlotOf(playerID)
	if !ok {
		return nil
	}
	pkt := w3gs.EncodePacket(w3gs.PlayerLoaded{SlotPlayerID: uint8(slot.SlotPlayerID())})
	return h.stream.Send(pkt)
}

func watchNodeStatus(ctx context.Context, r *watch.Receiver[types.NodeGameStatus]) (<-chan types.NodeGameStatus, <-chan error) {
	out := make(chan types.NodeGameStatus, 1)
	errCh := make(chan error, 1)
	go func() {
		// Latest() first: the node may already have reached Running before
		// this receiver was created, which a bare Next() loop would miss.
		select {
		case out <- r.Latest():
		case <-ctx.Done():
			return
		}
		for {
			s, ok := r.Next(ctx)
			if !ok {
				errCh <- ctx.Err()
				return
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errCh
}

func recvLoop(s *wnet.Stream) (<-chan w3gs.Packet, <-chan error) {
	out := make(chan w3gs.Packet, 1)
	errCh := make(chan error, 1)
	go func() {
		p, err := s.Recv()
		if err != nil {
			errCh <- err
			return
		}
		out <- p
	}()
	return out, errCh
}
