// Package ingame implements the in-game phase: a bidirectional, unexamined
// W3GS relay between the local client and the node, except for the client
// LeaveReq/LeaveAck exchange which the proxy always terminates locally.
package ingame

import (
	"context"
	"log/slog"

	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
)

// Handler relays W3GS traffic between one client connection and the node
// for the duration of the game.
type Handler struct {
	stream *wnet.Stream
	node   *stream.Handle
}

// New constructs a Handler.
func New(clientStream *wnet.Stream, node *stream.Handle) *Handler {
	return &Handler{stream: clientStream, node: node}
}

// Run relays packets until ctx is cancelled, either stream ends, or the
// client sends a LeaveReq (acked locally, then Run returns nil).
func (h *Handler) Run(ctx context.Context) error {
	pktCh, pktErrCh := recvLoop(h.stream)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case pkt := <-pktCh:
			if pkt.Type == w3gs.TypeLeaveReq {
				req, err := w3gs.DecodeLeaveReq(pkt.Payload)
				if err == nil {
					slog.Info("ingame: leave", "reason", req.Reason)
				}
				_ = h.stream.Send(w3gs.EncodePacket(w3gs.LeaveAck{}))
				return nil
			}
			if err := h.node.SendW3GS(pkt); err != nil {
				return err
			}
			pktCh, pktErrCh = recvLoop(h.stream)

		case err := <-pktErrCh:
			return err

		case pkt, ok := <-h.node.Packets():
			if !ok {
				return nil
			}
			if err := h.stream.Send(pkt); err != nil {
				return err
			}
		}
	}
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
