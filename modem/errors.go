package modem

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without both a
	// data and a control Dialer.
	//
	// This indicates a configuration error. Two dialers are required in
	// order to establish the data and control channels to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrProberStarted is returned by Prober.Start when the prober is
	// already running. Stop it first.
	ErrProberStarted = errors.New("prober already started")

	// ErrProberNotStarted is returned by Prober.Stop when the prober was
	// never started or has already been stopped.
	ErrProberNotStarted = errors.New("prober not started")

	// ErrAlreadyConnected is returned by Connect when a network daemon is
	// already being tracked for this session.
	ErrAlreadyConnected = errors.New("modem already connected")

	// ErrNotConnected is returned by Disconnect when no network daemon is
	// being tracked.
	ErrNotConnected = errors.New("modem not connected")
)

// TransportError wraps a failure of the underlying channel I/O itself
// (device gone, port closed). It is distinct from a command failure,
// which is reported as *at.CommandError.
type TransportError struct {
	// Op names the operation that failed ("read", "write").
	Op string
	// Err is the underlying I/O error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response whose shape was not one the protocol
// allows, for example a dial status line that is neither CONNECT nor a
// classified error token.
type ProtocolError struct {
	// Line is the offending response line.
	Line string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response %q", e.Line)
}

// SpawnError wraps a failure to start the external network daemon.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn network daemon: %v", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
