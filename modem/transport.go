package modem

import (
	"context"
	"errors"
	"io"
	"time"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -destination=mock.go -package=modem github.com/telemux/modemctl/modem Transport,Dialer,ProcessManager

// Transport represents an established, bidirectional byte stream to a modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// Typical implementations include serial ports, TCP connections to emulators,
// or in-memory fakes used for testing.
//
// A Read is allowed to return (0, nil) when the transport has a read
// timeout configured and no data arrived in time. Port treats that as an
// empty bounded read, not an error.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a modem endpoint.
//
// Dialer abstracts how the connection is created (serial port, TCP-based
// emulator, or test double) and is used during modem construction only.
// Once a Transport is obtained, the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It may perform
	// blocking operations and should respect cancellation and deadlines
	// provided by the context.
	Dial(ctx context.Context) (Transport, error)
}

// SerialDialer opens a modem endpoint over a serial port.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// Mode holds the serial parameters. Nil selects the library defaults
	// (9600 8N1).
	Mode *serial.Mode
	// ReadTimeout bounds each Read on the opened port. Zero leaves reads
	// blocking, which is what the data channel wants; the control channel
	// must set it so the feeder's reads stay bounded.
	ReadTimeout time.Duration
}

// Dial opens the serial port and applies the configured read timeout.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, &TransportError{Op: "open " + d.PortName, Err: err}
	}

	if d.ReadTimeout > 0 {
		if err := port.SetReadTimeout(d.ReadTimeout); err != nil {
			port.Close()
			return nil, &TransportError{Op: "set read timeout", Err: err}
		}
	}

	return port, nil
}
