// Package clock implements the Action Tick Stream: a fixed-cadence ticker
// that batches each tick interval's queued player actions into a single
// IncomingAction packet, the way the game simulation expects to receive
// them regardless of how often or unevenly clients actually send.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/gDollaZ/flo/internal/w3gs"
)

// ActionTickStream batches PlayerActions arriving on its input channel into
// one IncomingAction per tick step.
type ActionTickStream struct {
	step   time.Duration
	stopCh chan struct{}
	once   sync.Once
}

// NewActionTickStream creates a stream with the given tick step. A step of
// 0 falls back to 30ms, the game's native simulation step.
func NewActionTickStream(step time.Duration) *ActionTickStream {
	if step <= 0 {
		step = 30 * time.Millisecond
	}
	return &ActionTickStream{step: step, stopCh: make(chan struct{})}
}

// Run reads from actions and the internal ticker in the same select loop:
// every received action joins the batch for the tick in progress, and
// every tick flushes that batch to emit, even when it's empty — an empty
// tick still advances game time. Run returns when ctx is cancelled, Stop
// is called, or actions is closed.
func (s *ActionTickStream) Run(ctx context.Context, actions <-chan w3gs.PlayerAction, emit func(w3gs.IncomingAction)) error {
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()

	stepMS := uint16(s.step.Milliseconds())
	var pending []w3gs.PlayerAction

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case a, ok := <-actions:
			if !ok {
				return nil
			}
			pending = append(pending, a)
		case <-ticker.C:
			emit(w3gs.IncomingAction{Actions: pending, TimeSlot: stepMS})
			pending = nil
		}
	}
}

// Stop ends a running Run loop. Idempotent.
func (s *ActionTickStream) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}
