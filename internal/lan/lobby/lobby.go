// Package lobby implements the W3GS lobby exchange with the local game
// client: answering its join request with slot/player/map data, forwarding
// further slot actions to the node, and watching the node's own
// game-status transition into Loading to drive the countdown and hand off
// to the Load phase.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
	"github.com/gDollaZ/flo/internal/watch"
)

// Action is the disposition a Lobby handler run returns.
type Action int

const (
	ActionLeave Action = iota
	ActionStart
)

func (a Action) String() string {
	if a == ActionStart {
		return "Start"
	}
	return "Leave"
}

// Handler drives one accepted client connection through the lobby
// exchange until it leaves or the game starts loading.
type Handler struct {
	info   game.Info
	stream *wnet.Stream
	node   *stream.Handle
	status *watch.Receiver[types.NodeGameStatus]
}

// New constructs a Handler for one accepted client connection.
func New(info game.Info, clientStream *wnet.Stream, node *stream.Handle, status *watch.Receiver[types.NodeGameStatus]) *Handler {
	return &Handler{info: info, stream: clientStream, node: node, status: status}
}

// Run drives the lobby exchange. Any I/O or decode error on the client
// stream is treated as ActionLeave (the supervisor will reopen); a node
// stream error is returned as a fatal error, ending the session.
func (h *Handler) Run(ctx context.Context) (Action, error) {
	statusCh := make(chan types.NodeGameStatus, 1)
	statusErrCh := make(chan error, 1)
	go func() {
		// Latest() first: the node may already have reached Loading before
		// this receiver was created (e.g. a slow client), and Next() alone
		// would only ever fire on a change after that point.
		select {
		case statusCh <- h.status.Latest():
		case <-ctx.Done():
			return
		}
		for {
			s, ok := h.status.Next(ctx)
			if !ok {
				statusErrCh <- ctx.Err()
				return
			}
			select {
			case statusCh <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	pktCh, pktErrCh := recvLoop(h.stream)

	for {
		select {
		case <-ctx.Done():
			return ActionLeave, ctx.Err()

		case s := <-statusCh:
			switch s {
			case types.NodeGameStatusLoading:
				if err := h.driveCountdown(); err != nil {
					return ActionLeave, nil
				}
				return ActionStart, nil
			default:
				slog.Debug("lobby: node status update", "status", s)
			}

		case err := <-statusErrCh:
			if err != nil {
				return ActionLeave, fmt.Errorf("lobby: node status stream: %w", err)
			}
			return ActionLeave, nil

		case pkt := <-pktCh:
			action, leave, err := h.handlePacket(pkt)
			if err != nil {
				// Only the node stream wraps floerr.ErrTransport.
				if errors.Is(err, floerr.ErrTransport) {
					return ActionLeave, fmt.Errorf("lobby: node stream: %w", err)
				}
				return ActionLeave, nil // client-side errors degrade to Leave
			}
			if leave {
				return action, nil
			}
			pktCh, pktErrCh = recvLoop(h.stream)

		case <-pktErrCh:
			return ActionLeave, nil

		case pkt, ok := <-h.node.Packets():
			if !ok {
				return ActionLeave, fmt.Errorf("lobby: node stream closed")
			}
			if err := h.stream.Send(pkt); err != nil {
				return ActionLeave, nil
			}
		}
	}
}

// handlePacket answers or forwards a relevant client action and reports
// whether the lobby phase should end (and with which disposition).
func (h *Handler) handlePacket(pkt w3gs.Packet) (action Action, leave bool, err error) {
	switch pkt.Type {
	case w3gs.TypeLeaveReq:
		req, err := w3gs.DecodeLeaveReq(pkt.Payload)
		if err != nil {
			return ActionLeave, true, err
		}
		slog.Info("lobby: leave", "reason", req.Reason)
		_ = h.stream.Send(w3gs.EncodePacket(w3gs.LeaveAck{}))
		return ActionLeave, true, nil

	case w3gs.TypeJoinReq:
		if _, err := w3gs.DecodeJoinReq(pkt.Payload); err != nil {
			return ActionLeave, true, err
		}
		if err := h.sendJoinReply(); err != nil {
			return ActionLeave, true, err
		}
		return 0, false, nil

	default:
		// Every other client action (ready/not-ready, race/team/color
		// selection) is opaque to the proxy: forward it to the node
		// unexamined, the same way in-game packets are forwarded once
		// loading starts.
		if err := h.node.SendW3GS(pkt); err != nil {
			return ActionLeave, true, err
		}
		return 0, false, nil
	}
}

// sendJoinReply answers a JoinReq with the assigned slot, the full slot
// table, a PlayerInfo for every other occupied slot, and the map check the
// client needs before it can ready up. The local player always has a
// pre-assigned slot (the session only exists for an already-admitted
// player), so there is no reject path to drive here.
func (h *Handler) sendJoinReply() error {
	local, ok := h.info.LocalSlot()
	if !ok {
		return fmt.Errorf("lobby: local player %d has no assigned slot", h.info.LocalPlayerID)
	}

	join := w3gs.SlotInfoJoin{Slots: slotEntries(h.info), SlotPlayerID: uint8(local.SlotPlayerID())}
	if err := h.stream.Send(w3gs.EncodePacket(join)); err != nil {
		return err
	}

	for _, slot := range h.info.Slots {
		if slot.Player == nil || slot.Player.ID == h.info.LocalPlayerID {
			continue
		}
		info := w3gs.PlayerInfo{SlotPlayerID: uint8(slot.SlotPlayerID()), PlayerName: slot.Player.Name}
		if err := h.stream.Send(w3gs.EncodePacket(info)); err != nil {
			return err
		}
	}

	check := w3gs.MapCheck{Path: h.info.Map.Path, SHA1: h.info.Map.SHA1}
	return h.stream.Send(w3gs.EncodePacket(check))
}

// driveCountdown runs the lobby countdown once the node reports Loading.
// The wire format here stands in for the real, timed W3GS countdown; this
// proxy only needs to bracket it so the client proceeds to load the map.
func (h *Handler) driveCountdown() error {
	if err := h.stream.Send(w3gs.EncodePacket(w3gs.CountDownStart{})); err != nil {
		return err
	}
	return h.stream.Send(w3gs.EncodePacket(w3gs.CountDownEnd{}))
}

// slotEntries builds the wire slot table from the game's slot list.
func slotEntries(info game.Info) []w3gs.SlotEntry {
	entries := make([]w3gs.SlotEntry, len(info.Slots))
	for i, slot := range info.Slots {
		var id uint8
		if slot.Player != nil {
			id = uint8(slot.SlotPlayerID())
		}
		entries[i] = w3gs.SlotEntry{
			SlotPlayerID: id,
			Race:         uint8(slot.Settings.Race),
			Color:        uint8(slot.Settings.Color),
			Team:         uint8(slot.Settings.Team),
			Handicap:     uint8(slot.Settings.Handicap),
			ComputerKind: uint8(slot.Settings.ComputerKind),
		}
	}
	return entries
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
