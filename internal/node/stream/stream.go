// Package stream is the LAN proxy's side of the node link: it dials the
// node, presents a connect token, and exposes received W3GS packets and
// node game-status updates to the proxy's phase handlers.
package stream

import (
	"context"
	"fmt"
	"net"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/token"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
)

// Dialer opens the underlying transport to a node. In production this
// dials a TCP address; tests substitute an in-process net.Pipe dialer.
type Dialer interface {
	DialContext(ctx context.Context) (net.Conn, error)
}

// TCPDialer dials a fixed node address over TCP.
type TCPDialer struct {
	Addr string
}

// DialContext implements Dialer.
func (d TCPDialer) DialContext(ctx context.Context) (net.Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial node %s: %v", floerr.ErrTransport, d.Addr, err)
	}
	return conn, nil
}

// Handle is the proxy's live connection to a node: it receives W3GS
// packets and node-reported game-status pushes, while letting the proxy
// push W3GS packets and control messages the other way. The proxy owns the
// watched status cell (it's a property of the session, not the wire); this
// Handle only surfaces raw updates as they arrive.
type Handle struct {
	conn           net.Conn
	w3gsCh         chan w3gs.Packet
	statusCh       chan types.NodeGameStatus
	playerStatusCh chan lan.PlayerStatusChange
	closeCh        chan struct{}
}

// Connect dials the node via d, presents tok, and starts the background
// receive loop. The connect token is single-use: callers must not reuse it
// across calls.
func Connect(ctx context.Context, d Dialer, tok token.NodeConnectToken) (*Handle, error) {
	conn, err := d.DialContext(ctx)
	if err != nil {
		return nil, err
	}

	hello := frame.Frame{Type: frame.TypeControl, Payload: []byte(tok.String())}
	if err := frame.Write(conn, hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: send connect token: %v", floerr.ErrTransport, err)
	}

	h := &Handle{
		conn:           conn,
		w3gsCh:         make(chan w3gs.Packet, 3),
		statusCh:       make(chan types.NodeGameStatus, 3),
		playerStatusCh: make(chan lan.PlayerStatusChange, 8),
		closeCh:        make(chan struct{}),
	}
	go h.recvLoop()
	return h, nil
}

func (h *Handle) recvLoop() {
	defer close(h.w3gsCh)
	defer close(h.statusCh)
	defer close(h.playerStatusCh)
	for {
		f, err := frame.Read(h.conn)
		if err != nil {
			return
		}
		switch f.Type {
		case frame.TypeW3GS:
			pkt, err := frame.ToW3GS(f)
			if err != nil {
				continue
			}
			select {
			case h.w3gsCh <- pkt:
			case <-h.closeCh:
				return
			}
		case frame.TypeControl:
			msg, err := frame.DecodeControl(f)
			if err != nil {
				continue
			}
			switch m := msg.(type) {
			case frame.NodeGameStatusUpdate:
				select {
				case h.statusCh <- m.Status:
				case <-h.closeCh:
					return
				}
			case frame.PlayerStatusUpdate:
				select {
				case h.playerStatusCh <- lan.PlayerStatusChange{PlayerID: m.PlayerID, Status: m.Status}:
				case <-h.closeCh:
					return
				}
			}
		}
	}
}

// Packets returns the channel of W3GS packets forwarded from the node.
// Closed when the stream ends.
func (h *Handle) Packets() <-chan w3gs.Packet {
	return h.w3gsCh
}

// StatusUpdates returns the channel of raw NodeGameStatus pushes received
// from the node. Closed when the stream ends.
func (h *Handle) StatusUpdates() <-chan types.NodeGameStatus {
	return h.statusCh
}

// PlayerStatusUpdates returns the channel of per-player status changes
// broadcast by the node, including ones reported by other clients. Closed
// when the stream ends.
func (h *Handle) PlayerStatusUpdates() <-chan lan.PlayerStatusChange {
	return h.playerStatusCh
}

// SendW3GS forwards a W3GS packet to the node.
func (h *Handle) SendW3GS(p w3gs.Packet) error {
	if err := frame.Write(h.conn, frame.FromW3GS(p)); err != nil {
		return fmt.Errorf("%w: send w3gs: %v", floerr.ErrTransport, err)
	}
	return nil
}

// ReportSlotStatus sends a ClientUpdateSlotClientStatusRequest control
// message for slotPlayerID.
func (h *Handle) ReportSlotStatus(slotPlayerID uint8, status types.SlotClientStatus) error {
	req := frame.ClientUpdateSlotClientStatusRequest{SlotPlayerID: slotPlayerID, Status: status}
	if err := frame.Write(h.conn, req.Encode()); err != nil {
		return fmt.Errorf("%w: report slot status: %v", floerr.ErrTransport, err)
	}
	return nil
}

// Close tears down the connection and wakes any blocked receive/watch.
// A second call returns nil without doing anything.
func (h *Handle) Close() error {
	select {
	case <-h.closeCh:
		return nil
	default:
	}
	close(h.closeCh)
	return h.conn.Close()
}
