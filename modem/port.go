package modem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/telemux/modemctl/at"
)

// Port is one line-oriented channel to the modem. Two independent ports
// exist per session: the data channel used for dialing and the control
// channel shared between synchronous transactions and the prober's
// feeder.
//
// The port's mutex is the exclusion lock over the underlying channel.
// ReadLine holds it for a single bounded read; Send and Transact hold it
// for a full transaction, so a feeder read can never interleave with a
// command's reply stream.
type Port struct {
	mu        sync.Mutex
	transport Transport
	rbuf      []byte

	// pending carries the result of an in-flight transport read. A read
	// abandoned on context cancellation keeps running and delivers here,
	// so the next readLine picks its data up instead of losing it.
	pending chan readResult

	// cmdTimeout bounds Send and Transact when the caller's context
	// carries no deadline. Zero waits forever.
	cmdTimeout time.Duration
}

type readResult struct {
	data []byte
	err  error
}

// NewPort wraps a connected transport. cmdTimeout bounds each
// transaction when the caller's context has no deadline of its own;
// zero means transactions wait for the terminator indefinitely.
func NewPort(transport Transport, cmdTimeout time.Duration) *Port {
	return &Port{
		transport:  transport,
		cmdTimeout: cmdTimeout,
	}
}

// ReadLine performs one bounded line read under the channel lock.
//
// It returns the next complete line with its terminator stripped. When
// the transport's read timeout expires before a full line arrived it
// returns ("", nil); partial data stays buffered for the next call.
// Cancelling ctx abandons the wait even on a transport that blocks
// without a read timeout.
func (p *Port) ReadLine(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readLine(ctx)
}

// readLine is ReadLine without the lock. Callers must hold p.mu.
//
// The transport read runs in its own goroutine so the wait stays
// cancellable even when the transport blocks without a read timeout.
// On cancellation the read is left in flight; its result is consumed
// by a later call.
func (p *Port) readLine(ctx context.Context) (string, error) {
	for {
		if advance, token, _ := at.Splitter(p.rbuf, false); token != nil {
			line := string(token)
			p.rbuf = p.rbuf[:copy(p.rbuf, p.rbuf[advance:])]
			return line, nil
		}

		if p.pending == nil {
			p.pending = make(chan readResult, 1)
			go func(transport Transport, ch chan<- readResult) {
				buf := make([]byte, 256)
				n, err := transport.Read(buf)
				ch <- readResult{data: buf[:n], err: err}
			}(p.transport, p.pending)
		}

		select {
		case res := <-p.pending:
			p.pending = nil
			if len(res.data) > 0 {
				p.rbuf = append(p.rbuf, res.data...)
				continue
			}
			if res.err != nil {
				return "", &TransportError{Op: "read", Err: res.err}
			}
			// Zero-byte read without an error: the transport's read
			// timeout expired.
			return "", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Send writes payload and reads back the echoed line, scanning it
// against the classified error vocabulary. No reply is collected; use
// Transact for commands that produce one. The echo wait is bounded by
// the context deadline, or by the port's command timeout when the
// context has none.
func (p *Port) Send(ctx context.Context, payload string) error {
	ctx, cancel := p.commandContext(ctx)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeString(payload); err != nil {
		return err
	}
	echo, err := p.readLine(ctx)
	if err != nil {
		return err
	}
	return at.CheckLine(echo)
}

// Transact executes one synchronous command/response transaction: write
// payload, read the echo, then collect reply lines until the OK
// terminator.
//
// Every line read back is scanned against the classified error
// vocabulary first; a match aborts the transaction immediately and
// nothing collected so far is returned. When prefix is non-empty only
// lines beginning with "<prefix>: " are retained, stripped of that
// marker; unrelated lines leaking onto the channel are discarded. With
// an empty prefix every non-empty line is retained verbatim. The
// terminator itself is not part of the result.
//
// The transaction is bounded by the context deadline, or by the port's
// command timeout when the context has none, regardless of whether the
// transport itself times reads out. A port configured with a zero
// command timeout waits for the terminator indefinitely.
func (p *Port) Transact(ctx context.Context, payload, prefix string) ([]string, error) {
	ctx, cancel := p.commandContext(ctx)
	defer cancel()

	// The whole transaction runs under the channel lock so a feeder
	// read cannot steal reply lines.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeString(payload); err != nil {
		return nil, err
	}

	echo, err := p.readLine(ctx)
	if err != nil {
		return nil, err
	}
	if err := at.CheckLine(echo); err != nil {
		return nil, err
	}

	var data []string
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("await terminator: %w", err)
			}
			return nil, err
		}
		if err := at.CheckLine(line); err != nil {
			return nil, err
		}
		if line == at.OK {
			return data, nil
		}

		if prefix != "" {
			if rest, ok := strings.CutPrefix(line, prefix+": "); ok {
				data = append(data, rest)
			}
			continue
		}
		if line != "" {
			data = append(data, line)
		}
	}
}

// commandContext applies the port's command timeout when the caller's
// context has no deadline of its own.
func (p *Port) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok && p.cmdTimeout > 0 {
		return context.WithTimeout(ctx, p.cmdTimeout)
	}
	return ctx, func() {}
}

// writeString writes s to the transport. Callers must hold p.mu.
func (p *Port) writeString(s string) error {
	if _, err := p.transport.Write([]byte(s)); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Close closes the underlying transport. A blocked read observes the
// close according to the transport's own semantics.
func (p *Port) Close() error {
	if err := p.transport.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// poke writes a bare line terminator directly to the transport, without
// the channel lock. It is a best-effort unblock for a reader stuck in a
// bounded read during shutdown; feeder exit does not depend on it.
func (p *Port) poke() {
	p.transport.Write([]byte(at.CRLF))
}
