package ingame

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/token"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
)

type pipeDialer struct{ conn net.Conn }

func (d pipeDialer) DialContext(ctx context.Context) (net.Conn, error) { return d.conn, nil }

func newHarness(t *testing.T) (*Handler, *wnet.Stream, net.Conn) {
	t.Helper()
	clientSrv, clientCli := net.Pipe()
	t.Cleanup(func() { _ = clientSrv.Close(); _ = clientCli.Close() })

	nodeCli, nodeSrv := net.Pipe()
	t.Cleanup(func() { _ = nodeCli.Close(); _ = nodeSrv.Close() })

	type connectResult struct {
		h   *stream.Handle
		err error
	}
	resultCh := make(chan connectResult, 1)
	go func() {
		h, err := stream.Connect(context.Background(), pipeDialer{conn: nodeCli}, token.NewNodeConnectToken())
		resultCh <- connectResult{h, err}
	}()
	_, err := frame.Read(nodeSrv)
	require.NoError(t, err)
	r := <-resultCh
	require.NoError(t, r.err)
	t.Cleanup(func() { _ = r.h.Close() })

	h := New(wnet.NewStream(clientSrv), r.h)
	return h, wnet.NewStream(clientCli), nodeSrv
}

func TestIngame_ClientPacketRelayedToNode(t *testing.T) {
	h, clientSide, nodeSide := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.Run(ctx) }()

	pkt := w3gs.EncodePacket(w3gs.OutgoingAction{Data: []byte{1, 2}, CRC: 9})
	require.NoError(t, clientSide.Send(pkt))

	f, err := frame.Read(nodeSide)
	require.NoError(t, err)
	decoded, err := frame.ToW3GS(f)
	require.NoError(t, err)
	assert.Equal(t, pkt, decoded)
}

func TestIngame_NodePacketRelayedToClient(t *testing.T) {
	h, clientSide, nodeSide := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.Run(ctx) }()

	pkt := w3gs.EncodePacket(w3gs.IncomingAction{TimeSlot: 100})
	require.NoError(t, frame.Write(nodeSide, frame.FromW3GS(pkt)))

	got, err := clientSide.Recv()
	require.NoError(t, err)
	assert.Equal(t, pkt, got)
}

func TestIngame_ClientLeaveReqAcksLocallyAndEndsRun(t *testing.T) {
	h, clientSide, _ := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.NoError(t, clientSide.Send(w3gs.EncodePacket(w3gs.LeaveReq{Reason: types.LeaveDisconnect})))

	ack, err := clientSide.Recv()
	require.NoError(t, err)
	assert.Equal(t, w3gs.TypeLeaveAck, ack.Type)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after client Leave")
	}
}

func TestIngame_NodeStreamClosedEndsRunCleanly(t *testing.T) {
	h, _, nodeSide := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.NoError(t, nodeSide.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after node link closed")
	}
}
