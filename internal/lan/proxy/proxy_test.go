package proxy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gDollaZ/flo/internal/lan"
	"github.com/gDollaZ/flo/internal/node/dispatch"
	"github.com/gDollaZ/flo/internal/node/server"
	"github.com/gDollaZ/flo/internal/node/stream"
	"github.com/gDollaZ/flo/internal/testutil"
	"github.com/gDollaZ/flo/internal/types"
	"github.com/gDollaZ/flo/internal/w3gs"
	wnet "github.com/gDollaZ/flo/internal/w3gs/net"
)

// TestSupervisor_HappyPath drives one client through Lobby -> Load ->
// InGame -> self-initiated Leave against a real node/server.Server and
// dispatch.Dispatcher, over real loopback TCP on both legs.
func TestSupervisor_HappyPath(t *testing.T) {
	info := testutil.NewGameInfo(1, 1)

	reg := server.NewRegistry()
	nodeSrv, err := server.Listen("127.0.0.1:0", reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nodeSrv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = nodeSrv.Run(ctx) }()

	d := dispatch.New(info.GameID, 10*time.Millisecond)
	go func() { _ = d.Run(ctx, info) }()

	tok := reg.Issue(server.Registration{
		Dispatcher:   d,
		PlayerID:     1,
		SlotPlayerID: uint8(info.LocalSlotPlayerID()),
	})

	sup, err := Start(ctx, info, stream.TCPDialer{Addr: nodeSrv.Addr().String()}, tok)
	require.NoError(t, err)

	runDone := make(chan error, 1)
	go func() { runDone <- sup.Run(ctx) }()

	conn, err := net.DialTimeout("tcp", (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: sup.Port()}).String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := wnet.NewStream(conn)

	require.NoError(t, client.Send(w3gs.EncodePacket(w3gs.JoinReq{HostCounter: 1, PlayerName: "alice"})))

	joinPkt, err := client.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeSlotInfoJoin, joinPkt.Type)
	join, err := w3gs.DecodeSlotInfoJoin(joinPkt.Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(info.LocalSlotPlayerID()), join.SlotPlayerID)

	mapPkt, err := client.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeMapCheck, mapPkt.Type)

	d.Start()

	// Lobby phase ends once the node reaches Loading, at which point the
	// proxy also drives the countdown before handing off to Load.
	require.NoError(t, client.Send(w3gs.EncodePacket(w3gs.GameLoadedSelf{})))

	// Wait for the PlayerLoaded replay that only fires once the dispatcher
	// has processed our load report and the load phase has picked it up.
	deadline := time.Now().Add(3 * time.Second)
	sawRunning := false
	for time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		pkt, err := client.Recv()
		if err != nil {
			continue
		}
		if pkt.Type == w3gs.TypePlayerLoaded {
			sawRunning = true
			break
		}
	}
	require.True(t, sawRunning, "expected a PlayerLoaded replay once the game transitioned to Running")

	require.NoError(t, conn.SetReadDeadline(time.Time{}))
	require.NoError(t, client.Send(w3gs.EncodePacket(w3gs.LeaveReq{Reason: types.LeaveDisconnect})))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	ackPkt, err := client.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeLeaveAck, ackPkt.Type)

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not end the session after client Leave")
	}

	select {
	case evt := <-sup.Events:
		_, ok := evt.(lan.GameDisconnected)
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no GameDisconnected emitted")
	}
}

// TestSupervisor_LobbyLeaveThenRejoinEndsWithSingleDisconnect exercises
// spec scenario S1: a client leaves during Lobby before the node starts
// loading, the supervisor keeps the session alive and accepts a second
// connection, and only that second session's own exit emits the single
// terminal GameDisconnected.
func TestSupervisor_LobbyLeaveThenRejoinEndsWithSingleDisconnect(t *testing.T) {
	info := testutil.NewGameInfo(1, 1)

	reg := server.NewRegistry()
	nodeSrv, err := server.Listen("127.0.0.1:0", reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nodeSrv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = nodeSrv.Run(ctx) }()

	d := dispatch.New(info.GameID, 10*time.Millisecond)
	go func() { _ = d.Run(ctx, info) }()

	tok := reg.Issue(server.Registration{
		Dispatcher:   d,
		PlayerID:     1,
		SlotPlayerID: uint8(info.LocalSlotPlayerID()),
	})

	sup, err := Start(ctx, info, stream.TCPDialer{Addr: nodeSrv.Addr().String()}, tok)
	require.NoError(t, err)

	runDone := make(chan error, 1)
	go func() { runDone <- sup.Run(ctx) }()

	addr := (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: sup.Port()}).String()

	firstConn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = firstConn.Close() })
	firstClient := wnet.NewStream(firstConn)

	require.NoError(t, firstClient.Send(w3gs.EncodePacket(w3gs.JoinReq{HostCounter: 1, PlayerName: "alice"})))
	joinPkt, err := firstClient.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeSlotInfoJoin, joinPkt.Type)
	_, err = firstClient.Recv() // MapCheck
	require.NoError(t, err)

	require.NoError(t, firstClient.Send(w3gs.EncodePacket(w3gs.LeaveReq{Reason: types.LeaveDisconnect})))
	require.NoError(t, firstConn.SetReadDeadline(time.Now().Add(time.Second)))
	ackPkt, err := firstClient.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeLeaveAck, ackPkt.Type)
	_ = firstConn.Close()

	// The supervisor is still running and must not have emitted a
	// disconnect: the Lobby-Leave-Rejoin scenario returns control to
	// accept, it does not end the session.
	select {
	case evt := <-sup.Events:
		t.Fatalf("unexpected event before rejoin: %#v", evt)
	case <-runDone:
		t.Fatal("supervisor exited after a Lobby-phase Leave, expected it to keep accepting")
	case <-time.After(100 * time.Millisecond):
	}

	secondConn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = secondConn.Close() })
	secondClient := wnet.NewStream(secondConn)

	require.NoError(t, secondClient.Send(w3gs.EncodePacket(w3gs.JoinReq{HostCounter: 2, PlayerName: "alice"})))
	joinPkt, err = secondClient.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeSlotInfoJoin, joinPkt.Type)
	_, err = secondClient.Recv() // MapCheck
	require.NoError(t, err)

	d.Start()

	require.NoError(t, secondClient.Send(w3gs.EncodePacket(w3gs.GameLoadedSelf{})))

	deadline := time.Now().Add(3 * time.Second)
	sawRunning := false
	for time.Now().Before(deadline) {
		require.NoError(t, secondConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		pkt, err := secondClient.Recv()
		if err != nil {
			continue
		}
		if pkt.Type == w3gs.TypePlayerLoaded {
			sawRunning = true
			break
		}
	}
	require.True(t, sawRunning, "expected a PlayerLoaded replay once the game transitioned to Running")

	require.NoError(t, secondConn.SetReadDeadline(time.Time{}))
	require.NoError(t, secondClient.Send(w3gs.EncodePacket(w3gs.LeaveReq{Reason: types.LeaveDisconnect})))

	require.NoError(t, secondConn.SetReadDeadline(time.Now().Add(time.Second)))
	ackPkt, err = secondClient.Recv()
	require.NoError(t, err)
	require.Equal(t, w3gs.TypeLeaveAck, ackPkt.Type)

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not end the session after the second client's Leave")
	}

	select {
	case evt := <-sup.Events:
		_, ok := evt.(lan.GameDisconnected)
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("no GameDisconnected emitted")
	}

	select {
	case evt := <-sup.Events:
		t.Fatalf("unexpected extra event: %#v", evt)
	default:
	}
}
