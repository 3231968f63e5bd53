package stream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/token"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
)

// pipeDialer hands back one end of a net.Pipe; the test keeps the other end
// to play the node.
type pipeDialer struct {
	conn net.Conn
}

func (d pipeDialer) DialContext(ctx context.Context) (net.Conn, error) {
	return d.conn, nil
}

func newConnectedHandle(t *testing.T) (*Handle, net.Conn) {
	t.Helper()
	client, node := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = node.Close() })

	type connectResult struct {
		h   *Handle
		err error
	}
	resultCh := make(chan connectResult, 1)
	go func() {
		h, err := Connect(context.Background(), pipeDialer{conn: client}, token.NewNodeConnectToken())
		resultCh <- connectResult{h, err}
	}()

	hello, err := frame.Read(node)
	require.NoError(t, err)
	assert.Equal(t, frame.TypeControl, hello.Type)

	r := <-resultCh
	require.NoError(t, r.err)
	t.Cleanup(func() { _ = r.h.Close() })

	return r.h, node
}

func TestConnect_SendsTokenAsHelloFrame(t *testing.T) {
	_, _ = newConnectedHandle(t)
}

func TestHandle_PacketsForwardsW3GSFrames(t *testing.T) {
	h, node := newConnectedHandle(t)

	pkt := w3gs.EncodePacket(w3gs.PlayerLoaded{SlotPlayerID: 2})
	require.NoError(t, frame.Write(node, frame.FromW3GS(pkt)))

	select {
	case got := <-h.Packets():
		assert.Equal(t, pkt, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for packet")
	}
}

func TestHandle_StatusUpdatesForwardsNodeGameStatus(t *testing.T) {
	h, node := newConnectedHandle(t)

	require.NoError(t, frame.Write(node, frame.NodeGameStatusUpdate{Status: types.NodeGameStatusLoading}.Encode()))

	select {
	case got := <-h.StatusUpdates():
		assert.Equal(t, types.NodeGameStatusLoading, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status update")
	}
}

func TestHandle_PlayerStatusUpdatesForwardsPerPlayerChanges(t *testing.T) {
	h, node := newConnectedHandle(t)

	require.NoError(t, frame.Write(node, frame.PlayerStatusUpdate{PlayerID: 7, Status: types.SlotClientStatusLoaded}.Encode()))

	select {
	case got := <-h.PlayerStatusUpdates():
		assert.Equal(t, lan.PlayerStatusChange{PlayerID: 7, Status: types.SlotClientStatusLoaded}, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for player status update")
	}
}

func TestHandle_SendW3GSWritesFramedPacket(t *testing.T) {
	h, node := newConnectedHandle(t)

	pkt := w3gs.EncodePacket(w3gs.LeaveAck{})
	sendErr := make(chan error, 1)
	go func() { sendErr <- h.SendW3GS(pkt) }()

	got, err := frame.Read(node)
	require.NoError(t, err)
	require.NoError(t, <-sendErr)
	decoded, err := frame.ToW3GS(got)
	require.NoError(t, err)
	assert.Equal(t, pkt, decoded)
}

func TestHandle_ReportSlotStatusWritesControlFrame(t *testing.T) {
	h, node := newConnectedHandle(t)

	sendErr := make(chan error, 1)
	go func() { sendErr <- h.ReportSlotStatus(3, types.SlotClientStatusLoaded) }()

	got, err := frame.Read(node)
	require.NoError(t, err)
	require.NoError(t, <-sendErr)
	msg, err := frame.DecodeControl(got)
	require.NoError(t, err)
	req, ok := msg.(frame.ClientUpdateSlotClientStatusRequest)
	require.True(t, ok)
	assert.Equal(t, uint8(3), req.SlotPlayerID)
	assert.Equal(t, types.SlotClientStatusLoaded, req.Status)
}

func TestHandle_CloseClosesChannels(t *testing.T) {
	h, _ := newConnectedHandle(t)
	require.NoError(t, h.Close())

	_, ok := <-h.Packets()
	assert.False(t, ok)
}
