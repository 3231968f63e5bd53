// Package floerr defines the sentinel error kinds the core can return, per
// the error-handling design: Transport, Protocol, Backpressure, NotFound,
// Cancelled, StreamClosed. Call sites wrap a sentinel with fmt.Errorf("%w")
// for context; callers branch with errors.Is.
package floerr

import "errors"

var (
	// ErrTransport covers TCP/codec I/O failures on either stream.
	ErrTransport = errors.New("transport error")

	// ErrProtocol covers a malformed or unexpected packet, or an unexpected
	// node game status observed where only a subset of statuses is valid.
	ErrProtocol = errors.New("protocol error")

	// ErrBackpressure covers a bounded channel that is closed or full where
	// full implies a dead consumer.
	ErrBackpressure = errors.New("backpressure error")

	// ErrNotFound covers a slot or player id lookup failure.
	ErrNotFound = errors.New("not found")

	// ErrCancelled covers a downstream task being gone or its scope dropped.
	ErrCancelled = errors.New("cancelled")

	// ErrStreamClosed covers a peer closing cleanly while a phase required
	// more input.
	ErrStreamClosed = errors.New("stream closed")
)

// stringer avoids importing the types package here just for a String()
// contract; any type satisfying it (types.NodeGameStatus does) can be
// reported by UnexpectedNodeGameStatus.
type stringer interface {
	String() string
}

// UnexpectedNodeGameStatus wraps ErrProtocol with the offending status for
// the Load-screen handler's fatal-status path.
type UnexpectedNodeGameStatus struct {
	Status stringer
}

func (e *UnexpectedNodeGameStatus) Error() string {
	return "unexpected node game status: " + e.Status.String()
}

func (e *UnexpectedNodeGameStatus) Unwrap() error {
	return ErrProtocol
}

// NewUnexpectedNodeGameStatus constructs the error for a given status value.
func NewUnexpectedNodeGameStatus(s stringer) error {
	return &UnexpectedNodeGameStatus{Status: s}
}
