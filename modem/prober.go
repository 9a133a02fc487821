package modem

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober owns the background pair that turns unsolicited modem output
// into dispatched actions: one feeder reading the control channel and
// one interpreter draining the shared queue. It enforces
// single-start/single-stop; a prober is either fully stopped or fully
// running, never in between.
type Prober struct {
	mu sync.Mutex

	queue  *Queue
	port   *Port
	table  *DispatchTable
	modem  *Modem
	idle   time.Duration
	logger *slog.Logger

	feeder       *Feeder
	interp       *Interpreter
	cancelFeeder context.CancelFunc
	cancelInterp context.CancelFunc
}

func newProber(m *Modem, port *Port, table *DispatchTable, idle time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		queue:  NewQueue(),
		port:   port,
		table:  table,
		modem:  m,
		idle:   idle,
		logger: logger,
	}
}

// Start launches the feeder and the interpreter. It returns
// ErrProberStarted if the prober is already running.
func (p *Prober) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.feeder != nil {
		return ErrProberStarted
	}

	feederCtx, cancelFeeder := context.WithCancel(context.Background())
	interpCtx, cancelInterp := context.WithCancel(context.Background())

	p.feeder = newFeeder(p.queue, p.port, p.idle, p.logger)
	p.interp = newInterpreter(p.queue, p.table, p.modem)
	p.cancelFeeder = cancelFeeder
	p.cancelInterp = cancelInterp

	go p.feeder.run(feederCtx)
	go p.interp.run(interpCtx)

	p.logger.Debug("prober started")
	return nil
}

// Stop shuts the pair down and returns once both have exited. It
// returns ErrProberNotStarted if the prober is not running. A stopped
// prober may be started again.
//
// The interpreter goes first: its context is cancelled and one empty
// sentinel line is enqueued to wake a blocked Get. The sentinel is
// dispatched through the table (normally falling to the default action)
// before the loop observes cancellation; after that, nothing further is
// dispatched. Then the feeder's context is cancelled and a line
// terminator is poked at the control channel to hurry along a pending
// bounded read.
func (p *Prober) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.feeder == nil {
		return ErrProberNotStarted
	}

	p.cancelInterp()
	p.queue.Put("")
	<-p.interp.done

	p.cancelFeeder()
	p.port.poke()
	<-p.feeder.done

	p.feeder = nil
	p.interp = nil
	p.cancelFeeder = nil
	p.cancelInterp = nil

	p.logger.Debug("prober stopped")
	return nil
}

// Running reports whether the pair is live.
func (p *Prober) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feeder != nil
}
