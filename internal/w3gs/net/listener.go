package wnet

import (
	"context"
	"fmt"
	"net"

	"github.com/gDollaZ/flo/internal/w3gs"
)

// Listener binds an ephemeral loopback TCP port and accepts exactly the
// single game-client connection a LAN proxy session expects. Grounded on
// the node's original W3GSListener, which likewise bound one port per game
// and handed the first accepted connection off as the session's stream.
type Listener struct {
	ln net.Listener
}

// Listen binds a new ephemeral port on loopback.
func Listen() (*Listener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("w3gs/net: listen: %w", err)
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the bound address, for embedding in the LAN game-list
// broadcast the client uses to find this proxy.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Accept blocks for the next incoming connection and wraps it as a Stream.
// It returns ctx.Err() if ctx is cancelled first.
func (l *Listener) Accept(ctx context.Context) (*Stream, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.ln.Accept()
		ch <- result{conn, err}
	}()
	select {
	case <-ctx.Done():
		_ = l.ln.Close()
		<-ch
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("w3gs/net: accept: %w", r.err)
		}
		return NewStream(r.conn), nil
	}
}

// Close releases the bound port without waiting for a connection.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Stream is a single accepted game-client connection, framed as W3GS
// packets.
type Stream struct {
	conn net.Conn
}

// NewStream wraps an already-established connection.
func NewStream(conn net.Conn) *Stream {
	return &Stream{conn: conn}
}

// Send writes one packet to the client.
func (s *Stream) Send(p w3gs.Packet) error {
	return WritePacket(s.conn, p)
}

// Recv blocks for the next packet from the client.
func (s *Stream) Recv() (w3gs.Packet, error) {
	return ReadPacket(s.conn)
}

// Close closes the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// RemoteAddr returns the client's address.
func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}
