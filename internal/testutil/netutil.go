// Package testutil holds fixtures shared across the module's tests: an
// in-process connection pair, a fake node dialer built on it, and a valid
// minimal game.Info for exercising the proxy/dispatch packages without a
// real Warcraft III client or node process.
package testutil

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gDollaZ/flo/internal/game"
	"github.com/gDollaZ/flo/internal/types"
)

// PipeConn returns a connected client/server net.Conn pair via net.Pipe,
// closed automatically at test cleanup.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// FakeAddr implements net.Addr for tests that need an address without a
// real socket.
type FakeAddr struct {
	NetworkName string
	AddrString  string
}

func (f FakeAddr) Network() string { return f.NetworkName }
func (f FakeAddr) String() string  { return f.AddrString }

// TCPAddr builds a FakeAddr that reports itself as a TCP endpoint.
func TCPAddr(addr string) FakeAddr {
	return FakeAddr{NetworkName: "tcp", AddrString: addr}
}

// ConnWithDeadline wraps a net.Conn and applies a fixed deadline to every
// Read/Write, so a test hangs with a clear timeout instead of forever.
type ConnWithDeadline struct {
	net.Conn
	deadline time.Duration
}

// NewConnWithDeadline wraps conn with a per-call deadline.
func NewConnWithDeadline(conn net.Conn, deadline time.Duration) *ConnWithDeadline {
	return &ConnWithDeadline{Conn: conn, deadline: deadline}
}

func (c *ConnWithDeadline) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *ConnWithDeadline) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.deadline)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// ListenTCP binds an ephemeral loopback TCP port for tests, closed
// automatically at cleanup.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testutil: listen: %v", err)
	}

	t.Cleanup(func() { _ = listener.Close() })

	return listener, listener.Addr().String()
}

// PipeDialer is a stream.Dialer backed by net.Pipe: DialContext returns the
// client half and hands the server half to onAccept so the test can drive
// a fake node on the other end.
type PipeDialer struct {
	onAccept func(server net.Conn)
}

// NewPipeDialer builds a PipeDialer that invokes onAccept with the server
// half of the pipe every time DialContext is called.
func NewPipeDialer(onAccept func(server net.Conn)) *PipeDialer {
	return &PipeDialer{onAccept: onAccept}
}

// DialContext implements stream.Dialer.
func (d *PipeDialer) DialContext(ctx context.Context) (net.Conn, error) {
	client, server := net.Pipe()
	go d.onAccept(server)
	return client, nil
}

// NewGameInfo builds a valid game.Info with SlotCount slots, occupying the
// first n with sequential players (ids 1..n) and leaving the rest empty.
// The FLO_OB slot is always left empty.
func NewGameInfo(gameID int32, n int) game.Info {
	slots := make([]game.Slot, game.SlotCount)
	for i := range slots {
		slots[i] = game.Slot{Index: i}
	}
	for i := 0; i < n && i < game.ObserverSlotIndex; i++ {
		slots[i].Player = &game.SlotPlayer{ID: int32(i + 1), Name: playerName(i + 1)}
		slots[i].ClientStatus = types.SlotClientStatusConnected
	}
	info, err := game.NewInfo(gameID, game.MapInfo{Path: "maps\\test.w3x"}, 1, slots)
	if err != nil {
		panic(err) // fixture bug, never a real test failure
	}
	return info
}

func playerName(id int) string {
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank"}
	if id-1 < len(names) {
		return names[id-1]
	}
	return "player"
}
