package proxy

import (
	"context"

	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/types"
)

// collectPreGameEvents buffers every inbound PlayerStatusChange into a map
// keyed by player id until stop fires, then returns the accumulated map;
// the events channel is left open so the Load handler can keep consuming
// it. Returns ok=false if ctx is done or events closed first, meaning the
// session is tearing down.
func collectPreGameEvents(ctx context.Context, events <-chan lan.PreGameEvent, stop <-chan struct{}, initial game.Info) (map[int32]types.SlotClientStatus, bool) {
	statusMap := make(map[int32]types.SlotClientStatus, len(initial.Slots))
	for _, slot := range initial.Slots {
		if slot.Player != nil {
			statusMap[slot.Player.ID] = slot.ClientStatus
		}
	}

	for {
		select {
		case <-ctx.Done():
			return statusMap, false
		case <-stop:
			return statusMap, true
		case evt, ok := <-events:
			if !ok {
				return statusMap, false
			}
			if chg, ok := evt.(lan.PlayerStatusChange); ok {
				statusMap[chg.PlayerID] = chg.Status
			}
		}
	}
}
