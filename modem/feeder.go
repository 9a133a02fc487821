package modem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Feeder continuously harvests whatever the modem emits unprompted on
// the control channel and enqueues it for the interpreter.
//
// Each iteration takes the channel lock for exactly one bounded read,
// enqueues the result (an empty read on timeout is enqueued as-is, not
// filtered), releases the lock, and idles outside it. The idle interval
// deliberately yields the channel to any waiting transaction, trading
// notification latency for command-channel fairness.
type Feeder struct {
	queue  *Queue
	port   *Port
	idle   time.Duration
	logger *slog.Logger
	done   chan struct{}
}

func newFeeder(queue *Queue, port *Port, idle time.Duration, logger *slog.Logger) *Feeder {
	return &Feeder{
		queue:  queue,
		port:   port,
		idle:   idle,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// run loops until ctx is cancelled. The read itself observes
// cancellation, so the feeder exits promptly even when the transport
// blocks without a read timeout.
func (f *Feeder) run(ctx context.Context) {
	defer close(f.done)
	for {
		line, err := f.port.ReadLine(ctx)
		switch {
		case err == nil:
			f.queue.Put(line)
		case errors.Is(err, io.EOF):
			f.logger.Debug("control channel closed, feeder exiting")
			return
		default:
			if ctx.Err() == nil {
				f.logger.Warn("control channel read failed", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.idle):
		}
	}
}
