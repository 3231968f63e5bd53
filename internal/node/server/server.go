// Package server is the node-side endpoint proxies dial: it validates a
// connect token, identifies which dispatcher and player the connection
// belongs to, and bridges raw frames between the connection and that
// dispatcher (inbound onto its Messages channel, outbound from the
// player's send channel) for the lifetime of the connection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/gDollaZ/flo/internal/floerr"
	"github.com/gDollaZ/flo/internal/frame"
	"github.com/gDollaZ/flo/internal/node/dispatch"
	"github.com/gDollaZ/flo/internal/token"
)

// Registration describes what a connect token grants: which dispatcher the
// connecting proxy should be wired to, and which player it authenticates.
type Registration struct {
	Dispatcher   *dispatch.Dispatcher
	PlayerID     int32
	SlotPlayerID uint8
}

// Registry maps single-use connect tokens to a Registration. The server
// consumes (deletes) a token the first time it is presented.
type Registry struct {
	mu  sync.Mutex
	reg map[token.NodeConnectToken]Registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{reg: make(map[token.NodeConnectToken]Registration)}
}

// Issue records a new single-use token for r, returning it for the caller
// to hand to a proxy supervisor out of band.
func (r *Registry) Issue(reg Registration) token.NodeConnectToken {
	tok := token.NewNodeConnectToken()
	r.mu.Lock()
	r.reg[tok] = reg
	r.mu.Unlock()
	return tok
}

// take consumes tok, returning its Registration if present and unused.
func (r *Registry) take(tok token.NodeConnectToken) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.reg[tok]
	if ok {
		delete(r.reg, tok)
	}
	return reg, ok
}

// Server accepts TCP connections from proxies and bridges each to the
// dispatcher its connect token names.
type Server struct {
	ln  net.Listener
	reg *Registry
}

// Listen binds addr and returns a Server backed by reg.
func Listen(addr string, reg *Registry) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: node server listen: %v", floerr.ErrTransport, err)
	}
	return &Server{ln: ln, reg: reg}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ln.Close() }

// Run accepts connections until ctx is cancelled or the listener closes.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("%w: node server accept: %v", floerr.ErrTransport, err)
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	hello, err := frame.Read(conn)
	if err != nil || hello.Type != frame.TypeControl {
		slog.Warn("node server: bad connect hello", "error", err)
		return
	}
	reg, ok := s.reg.take(token.NodeConnectToken(hello.Payload))
	if !ok {
		slog.Warn("node server: unknown or reused connect token")
		return
	}

	tx := make(chan frame.Frame, 16)
	reg.Dispatcher.Messages <- dispatch.PlayerConnect{
		PlayerID:     reg.PlayerID,
		SlotPlayerID: reg.SlotPlayerID,
		Tx:           tx,
	}
	defer func() {
		reg.Dispatcher.Messages <- dispatch.PlayerDisconnect{
			PlayerID:     reg.PlayerID,
			SlotPlayerID: reg.SlotPlayerID,
		}
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case f, ok := <-tx:
				if !ok {
					return
				}
				if err := frame.Write(conn, f); err != nil {
					cancel()
					return
				}
			case <-connCtx.Done():
				return
			}
		}
	}()

	for {
		f, err := frame.Read(conn)
		if err != nil {
			return
		}
		select {
		case reg.Dispatcher.Messages <- dispatch.Incoming{
			PlayerID:     reg.PlayerID,
			SlotPlayerID: reg.SlotPlayerID,
			Frame:        f,
		}:
		case <-connCtx.Done():
			return
		}
	}
}
