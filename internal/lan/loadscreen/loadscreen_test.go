package loadscreen

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/testutil"
	"github.com/gDollaZ/flo/internal/token"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
	"github.com/gDollaZ/flo/internal/watch"
)

type pipeDialer struct{ conn net.Conn }

func (d pipeDialer) DialContext(ctx context.Context) (net.Conn, error) { return d.conn, nil }

func newHarness(t *testing.T, info game.Info, status *watch.Cell[types.NodeGameStatus], events chan lan.PreGameEvent) (*Handler, *wnet.Stream, net.Conn) {
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

	h := New(info, wnet.NewStream(clientSrv), r.h, status.NewReceiver(), events)
	return h, wnet.NewStream(clientCli), nodeSrv
}

func TestLoadscreen_ReplaysAlreadyLoadedPlayersOnEntry(t *testing.T) {
	info := testutil.NewGameInfo(1, 2)
	status := watch.NewCell(types.NodeGameStatusLoading)
	events := make(chan lan.PreGameEvent, 4)
	h, clientSide, _ := newHarness(t, info, status, events)

	other, ok := info.SlotOf(2)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _, _ = h.Run(ctx, map[int32]types.SlotClientStatus{2: types.SlotClientStatusLoaded}) }()

	pkt, err := clientSide.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypePlayerLoaded, pkt.Type)
	decoded, err := w3gs.DecodePlayerLoaded(pkt.Payload)
	require.NoError(t, err)
	assert.Equal(t, uint8(other.SlotPlayerID()), decoded.SlotPlayerID)
}

func TestLoadscreen_GameLoadedSelfReportsToNode(t *testing.T) {
	info := testutil.NewGameInfo(1, 1)
	status := watch.NewCell(types.NodeGameStatusLoading)
	events := make(chan lan.PreGameEvent, 4)
	h, clientSide, nodeSide := newHarness(t, info, status, events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _, _ = h.Run(ctx, map[int32]types.SlotClientStatus{}) }()

	require.NoError(t, clientSide.Send(w3gs.EncodePacket(w3gs.GameLoadedSelf{})))

	f, err := frame.Read(nodeSide)
	require.NoError(t, err)
	msg, err := frame.DecodeControl(f)
	require.NoError(t, err)
	req, ok := msg.(frame.ClientUpdateSlotClientStatusRequest)
	require.True(t, ok)
	assert.Equal(t, types.SlotClientStatusLoaded, req.Status)
}

func TestLoadscreen_PreGameEventReplaysOtherPlayerLoaded(t *testing.T) {
	info := testutil.NewGameInfo(1, 2)
	status := watch.NewCell(types.NodeGameStatusLoading)
	events := make(chan lan.PreGameEvent, 4)
	h, clientSide, _ := newHarness(t, info, status, events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go func() { _, _ = h.Run(ctx, map[int32]types.SlotClientStatus{}) }()

	events <- lan.PlayerStatusChange{PlayerID: 2, Status: types.SlotClientStatusLoaded}

	pkt, err := clientSide.Recv()
	require.NoError(t, err)
	assert.Equal(t, w3gs.TypePlayerLoaded, pkt.Type)
}

func TestLoadscreen_NodeRunningEndsRunWithActionRunning(t *testing.T) {
	info := testutil.NewGameInfo(1, 1)
	status := watch.NewCell(types.NodeGameStatusLoading)
	events := make(chan lan.PreGameEvent, 4)
	h, _, _ := newHarness(t, info, status, events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan Action, 1)
	go func() {
		a, _ := h.Run(ctx, map[int32]types.SlotClientStatus{})
		done <- a
	}()

	time.Sleep(20 * time.Millisecond)
	status.Set(types.NodeGameStatusRunning)

	select {
	case a := <-done:
		assert.Equal(t, ActionRunning, a)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after node reached Running")
	}
}

func TestLoadscreen_ClientLeaveAcksAndReturnsLeave(t *testing.T) {
	info := testutil.NewGameInfo(1, 1)
	status := watch.NewCell(types.NodeGameStatusLoading)
	events := make(chan lan.PreGameEvent, 4)
	h, clientSide, _ := newHarness(t, info, status, events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan Action, 1)
	go func() {
		a, _ := h.Run(ctx, map[int32]types.SlotClientStatus{})
		done <- a
	}()

	require.NoError(t, clientSide.Send(w3gs.EncodePacket(w3gs.LeaveReq{Reason: types.LeaveDisconnect})))
	ack, err := clientSide.Recv()
	require.NoError(t, err)
	assert.Equal(t, w3gs.TypeLeaveAck, ack.Type)

	select {
	case a := <-done:
		assert.Equal(t, ActionLeave, a)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after client Leave")
	}
}
