package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/metrics"
	"github.com/gDollaZ/flo/internal/node/clock"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	"github.com/gDollaZ/flo/internal/watch"
)

// Dispatcher is the authoritative router for one game: it owns the player
// map, relays chat and leave/status transitions, and feeds the Action Tick
// Stream. Run blocks until ctx is cancelled or the Messages channel closes.
type Dispatcher struct {
	gameID int32
	tick   *clock.ActionTickStream
	status *watch.Cell[types.NodeGameStatus]

	startOnce sync.Once
	startCh   chan struct{}

	Messages chan Message
	Events   chan Event
}

// New constructs a Dispatcher for gameID with the given Action Tick Stream
// cadence. A step of 0 uses the default 30ms cadence.
func New(gameID int32, step time.Duration) *Dispatcher {
	return &Dispatcher{
		gameID:   gameID,
		tick:     clock.NewActionTickStream(step),
		status:   watch.NewCell(types.NodeGameStatusCreated),
		startCh:  make(chan struct{}),
		Messages: make(chan Message, 64),
		Events:   make(chan Event, 64),
	}
}

// Status returns a Receiver for this game's node-reported status. Used by
// an in-process proxy to drive its own watched cell without a real wire
// round-trip. Connected players instead receive NodeGameStatusUpdate
// control frames: setStatus broadcasts one for Waiting, Loading and
// Ended, and state.go does the same when the game reaches Running.
func (d *Dispatcher) Status() *watch.Receiver[types.NodeGameStatus] {
	return d.status.NewReceiver()
}

// Start releases the tick task to begin dispatching Action Tick Stream
// output and advances the game status to Loading. Idempotent: calling it
// more than once has no further effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		close(d.startCh)
	})
}

// Run drives both the state task and the tick task until ctx is done or
// Messages is closed. info describes the fixed slot layout for the game
// this Dispatcher was constructed for.
func (d *Dispatcher) Run(ctx context.Context, info game.Info) error {
	st := newState(d.gameID, info, d.status)
	d.setStatus(st, types.NodeGameStatusWaiting)

	var startMessages []string
	if len(st.chatBannedPlayerIDs) > 0 {
		startMessages = append(startMessages, "One or more players in this game have been muted.")
	}

	actionCh := make(chan w3gs.PlayerAction, 10)

	g, ctx := errgroup.WithContext(ctx)
	tickCtx, stopTick := context.WithCancel(ctx)
	defer stopTick()

	g.Go(func() error {
		// The state task ending (Messages closed) also ends the tick task.
		defer stopTick()
		return d.serveState(ctx, st, actionCh)
	})

	g.Go(func() error {
		err := d.serveTick(tickCtx, st, actionCh, startMessages)
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return err
	})

	err := g.Wait()
	d.setStatus(st, types.NodeGameStatusEnded)
	d.status.Close()
	if err != nil {
		slog.Error("dispatch: run exited with error", "game_id", d.gameID, "error", err)
		return err
	}
	return nil
}

// setStatus hot-patches the watched status and broadcasts it to every
// connected player as a control frame, mirroring what a real node process
// would push over the wire.
func (d *Dispatcher) setStatus(st *state, status types.NodeGameStatus) {
	d.status.Set(status)
	f := frame.NodeGameStatusUpdate{Status: status}.Encode()
	st.shared.broadcast(f, Everyone{})
}

func (d *Dispatcher) serveState(ctx context.Context, st *state, actionCh chan<- w3gs.PlayerAction) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-d.Messages:
			if !ok {
				return nil
			}
			if err := st.dispatch(ctx, msg, actionCh, d.Events); err != nil {
				slog.Error("dispatch: state error", "game_id", d.gameID, "error", err)
			}
		}
	}
}

func (d *Dispatcher) serveTick(ctx context.Context, st *state, actionCh <-chan w3gs.PlayerAction, startMessages []string) error {
	select {
	case <-d.startCh:
	case <-ctx.Done():
		return nil
	}

	d.setStatus(st, types.NodeGameStatusLoading)

	for _, msg := range startMessages {
		st.shared.broadcastMessage(msg)
	}

	return d.tick.Run(ctx, actionCh, func(ia w3gs.IncomingAction) {
		pkt := frame.FromW3GS(w3gs.EncodePacket(ia))
		st.shared.broadcast(pkt, Everyone{})
		st.sentTicks.Add(1)
		metrics.DispatchSentTicks.WithLabelValues(fmt.Sprint(d.gameID)).Inc()
	})
}
