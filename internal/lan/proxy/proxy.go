// Package proxy implements the LAN-facing half of a game session: it binds
// a loopback port for the local W3GS client, dials the node, and sequences
// the Lobby, Load, and InGame phase handlers. Grounded on flo's original
// LanProxy/State::serve three-phase loop.
package proxy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/lan/ingame"
	"github.com/gDollaZ/flo/internal/lan/lobby"
	"github.com/gDollaZ/flo/internal/lan/loadscreen"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/token"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/watch"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
)

// Supervisor owns one game session's LAN-facing port and its link to the
// node. Run drives the Lobby -> Load -> InGame sequence until the session
// ends, emitting exactly one GameDisconnected on every exit path.
type Supervisor struct {
	info   game.Info
	ln     *wnet.Listener
	node   *stream.Handle
	status *watch.Cell[types.NodeGameStatus]

	preGameEvents chan lan.PreGameEvent
	// Events is emitted to by the supervisor; owners should drain it.
	Events chan lan.Event
}

// Start binds an ephemeral loopback port, connects to the node with tok,
// and returns a Supervisor ready to Run. Callers read Port() to advertise
// the bound address to the local game client.
func Start(ctx context.Context, info game.Info, dialer stream.Dialer, tok token.NodeConnectToken) (*Supervisor, error) {
	ln, err := wnet.Listen()
	if err != nil {
		return nil, err
	}
	node, err := stream.Connect(ctx, dialer, tok)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return &Supervisor{
		info:          info,
		ln:            ln,
		node:          node,
		status:        watch.NewCell(types.NodeGameStatusCreated),
		preGameEvents: make(chan lan.PreGameEvent, 10),
		Events:        make(chan lan.Event, 8),
	}, nil
}

// Port returns the bound TCP port the local client should connect to.
func (s *Supervisor) Port() int {
	return s.ln.Port()
}

// DispatchGameStatusChange hot-patches the watched node-status value, for
// an owner that learns of node status transitions out of band (e.g. a
// dispatcher running in the same process). Always succeeds; once the
// session has ended the update is silently dropped.
func (s *Supervisor) DispatchGameStatusChange(status types.NodeGameStatus) {
	s.status.Set(status)
}

// DispatchPreGameEvent forwards a PlayerStatusChange (or other
// PreGameEvent) into the session. The channel is bounded at 10; a full
// channel means the session is backed up and the error propagates to the
// caller rather than blocking it indefinitely.
func (s *Supervisor) DispatchPreGameEvent(evt lan.PreGameEvent) error {
	select {
	case s.preGameEvents <- evt:
		return nil
	default:
		return floerr.ErrBackpressure
	}
}

// Run drives the session to completion. It returns only once the session
// has ended (node link lost, context cancelled, or a fatal protocol error),
// having already emitted a GameDisconnected event.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.forwardWireStatus(ctx)
	go s.forwardPlayerStatus(ctx)

	defer func() {
		_ = s.ln.Close()
		_ = s.node.Close()
		s.status.Close()
		s.Events <- lan.GameDisconnected{GameID: s.info.GameID}
	}()
	return s.serve(ctx)
}

// forwardWireStatus mirrors NodeGameStatus pushes received over the node
// wire into the session's own watched cell, so DispatchGameStatusChange and
// the wire both feed the same value the phase handlers observe.
func (s *Supervisor) forwardWireStatus(ctx context.Context) {
	for {
		select {
		case st, ok := <-s.node.StatusUpdates():
			if !ok {
				return
			}
			s.status.Set(st)
		case <-ctx.Done():
			return
		}
	}
}

// forwardPlayerStatus relays per-player status pushes from the node wire
// into preGameEvents, the same channel the Lobby/Load handlers and the
// pre-game collector read from, so a status reported by one client reaches
// every other proxy's phase handlers.
func (s *Supervisor) forwardPlayerStatus(ctx context.Context) {
	for {
		select {
		case chg, ok := <-s.node.PlayerStatusUpdates():
			if !ok {
				return
			}
			if err := s.DispatchPreGameEvent(chg); err != nil {
				slog.Warn("proxy: dropped player status update", "game_id", s.info.GameID, "player_id", chg.PlayerID, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// serve is the three-phase loop: Lobby accepts a client and watches for the
// node starting to load; Load replays status and watches for Running, with
// a mid-load client Leave handed back to Lobby rather than ending the
// session; InGame relays traffic until either side closes.
func (s *Supervisor) serve(ctx context.Context) error {
	statuses := make(map[int32]types.SlotClientStatus, len(s.info.Slots))
	for _, slot := range s.info.Slots {
		if slot.Player != nil {
			statuses[slot.Player.ID] = slot.ClientStatus
		}
	}

	for {
		clientStream, err := s.ln.Accept(ctx)
		if err != nil {
			return err
		}

		lobbyAction, collected, clean, lobbyErr := s.runLobby(ctx, clientStream)
		for id, st := range collected {
			statuses[id] = st
		}
		if lobbyErr != nil {
			_ = clientStream.Close()
			return lobbyErr
		}
		if !clean {
			_ = clientStream.Close()
			return floerr.ErrCancelled
		}
		if lobbyAction == lobby.ActionLeave {
			_ = clientStream.Close()
			continue
		}

		loadAction, loadErr := s.runLoad(ctx, clientStream, statuses)
		if loadErr != nil {
			_ = clientStream.Close()
			return loadErr
		}
		if loadAction == loadscreen.ActionLeave {
			_ = clientStream.Close()
			continue
		}

		err = ingame.New(clientStream, s.node).Run(ctx)
		_ = clientStream.Close()
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Info("proxy: ingame phase ended", "game_id", s.info.GameID, "error", err)
		}
		return err
	}
}

// collectResult is the outcome of racing collectPreGameEvents against the
// Lobby handler: the status map it accumulated, and whether the handoff
// was clean (the Lobby phase ended on its own) versus a teardown.
type collectResult struct {
	statuses map[int32]types.SlotClientStatus
	clean    bool
}

// runLobby races the Lobby handler against a background collector that
// buffers PlayerStatusChange notices arriving on preGameEvents while the
// handler isn't itself reading that channel, so nothing observed during
// the Lobby phase is lost before Load needs it.
func (s *Supervisor) runLobby(ctx context.Context, clientStream *wnet.Stream) (action lobby.Action, collected map[int32]types.SlotClientStatus, clean bool, err error) {
	stop := make(chan struct{})
	done := make(chan collectResult, 1)
	go func() {
		m, ok := collectPreGameEvents(ctx, s.preGameEvents, stop, s.info)
		done <- collectResult{m, ok}
	}()

	h := lobby.New(s.info, clientStream, s.node, s.status.NewReceiver())
	action, err = h.Run(ctx)
	close(stop)
	result := <-done
	return action, result.statuses, result.clean, err
}

func (s *Supervisor) runLoad(ctx context.Context, clientStream *wnet.Stream, statuses map[int32]types.SlotClientStatus) (loadscreen.Action, error) {
	h := loadscreen.New(s.info, clientStream, s.node, s.status.NewReceiver(), s.preGameEvents)
	return h.Run(ctx, statuses)
}
