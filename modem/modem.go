// Package modem arbitrates a physical AT command channel shared by two
// competing access patterns: synchronous command/response transactions
// and asynchronous unsolicited notifications that can arrive at any
// time.
//
// A session owns two line-oriented ports. The data port carries dialing
// and the network daemon handoff; the control port is the contested
// resource: transactions issued through Command and the Prober's feeder
// both read it, serialized by the port's channel lock. Unsolicited
// lines harvested by the feeder travel through an ordered FIFO into the
// interpreter, which applies a first-match-wins pattern-to-action table.
package modem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/telemux/modemctl/at"
)

// Modem is one session against a physical modem. It owns both channels,
// the prober and the connection status record for the session's
// lifetime.
type Modem struct {
	config Config
	data   *Port
	ctrl   *Port
	status *ConnectionStatus
	prober *Prober
	procs  ProcessManager
	logger *slog.Logger

	mu        sync.Mutex
	closed    bool
	daemonPID int
}

// New dials both channels and assembles a session. The prober is not
// started; call Prober().Start() to begin draining unsolicited lines.
func New(ctx context.Context, config Config) (*Modem, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	dataTransport, err := config.DataDialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial data channel: %w", err)
	}
	ctrlTransport, err := config.CtrlDialer.Dial(ctx)
	if err != nil {
		dataTransport.Close()
		return nil, fmt.Errorf("dial control channel: %w", err)
	}

	m := &Modem{
		config: config,
		data:   NewPort(dataTransport, config.CommandTimeout),
		ctrl:   NewPort(ctrlTransport, config.CommandTimeout),
		status: NewConnectionStatus(),
		procs:  config.ProcessManager,
		logger: config.Logger,
	}

	table := NewDispatchTable(config.Rules, config.DefaultAction, m.logger)
	m.prober = newProber(m, m.ctrl, table, config.FeederIdle, m.logger)

	return m, nil
}

// Prober returns the lifecycle controller for the feeder/interpreter
// pair bound to this session's control channel.
func (m *Modem) Prober() *Prober {
	return m.prober
}

// Status returns the session's mutable connection status record.
// Actions write it; use Snapshot for a consistent read-only copy.
func (m *Modem) Status() *ConnectionStatus {
	return m.status
}

// Snapshot returns a read-only copy of the connection status.
func (m *Modem) Snapshot() StatusSnapshot {
	return m.status.Snapshot()
}

// Command executes one AT command transaction on the control channel
// and returns the collected reply lines. cmd is framed with the AT
// prefix and a carriage return. A non-empty prefix retains only reply
// lines framed "<prefix>: ", stripped of that marker; see Port.Transact
// for the full filtering and abort rules.
func (m *Modem) Command(ctx context.Context, cmd, prefix string) ([]string, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrAlreadyClosed
	}

	wire := "AT" + strings.TrimSpace(cmd) + "\r"
	return m.ctrl.Transact(ctx, wire, prefix)
}

// SignalQuality issues AT+CSQ and returns the reported RSSI value.
func (m *Modem) SignalQuality(ctx context.Context) (int, error) {
	data, err := m.Command(ctx, "+CSQ", "+CSQ")
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, &ProtocolError{Line: ""}
	}
	value, _, _ := strings.Cut(data[0], ",")
	rssi, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, &ProtocolError{Line: data[0]}
	}
	m.status.SetRSSI(rssi)
	return rssi, nil
}

// Connect dials the network over the data channel and hands the link
// off to the external network daemon. It fails with ErrAlreadyConnected
// when a daemon is already tracked for this session.
func (m *Modem) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	if m.daemonPID != 0 {
		return ErrAlreadyConnected
	}

	if _, err := m.data.Transact(ctx, "ATZ\r", ""); err != nil {
		return fmt.Errorf("reset data channel: %w", err)
	}
	if err := m.data.Send(ctx, "ATDT"+m.config.DialNumber+"\r"); err != nil {
		return fmt.Errorf("dial %s: %w", m.config.DialNumber, err)
	}

	status, err := m.dialStatus(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(status, at.Connect) {
		if cmdErr := at.CheckLine(status); cmdErr != nil {
			return cmdErr
		}
		return &ProtocolError{Line: status}
	}

	args := append([]string{m.config.PppdPath, m.config.PppdBaud, m.config.DataEndpoint},
		m.config.PppdOptions...)
	pid, err := m.procs.Spawn(args)
	if err != nil {
		return err
	}

	m.daemonPID = pid
	m.status.markConnected(time.Now())
	m.logger.Info("network daemon started", "pid", pid, "number", m.config.DialNumber)
	return nil
}

// dialStatus reads the dial result line, skipping blank lines the modem
// emits around it. The wait is bounded the same way a transaction is:
// by the caller's deadline, or the data port's command timeout.
func (m *Modem) dialStatus(ctx context.Context) (string, error) {
	ctx, cancel := m.data.commandContext(ctx)
	defer cancel()
	for {
		line, err := m.data.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("await dial status: %w", err)
			}
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// Disconnect signals the tracked network daemon to terminate. It fails
// with ErrNotConnected when no daemon is tracked.
func (m *Modem) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.daemonPID == 0 {
		return ErrNotConnected
	}
	if err := m.procs.Terminate(m.daemonPID); err != nil {
		return fmt.Errorf("terminate network daemon %d: %w", m.daemonPID, err)
	}

	m.logger.Info("network daemon terminated", "pid", m.daemonPID)
	m.daemonPID = 0
	m.status.markDisconnected()
	return nil
}

// Connected reports whether a network daemon is currently tracked.
func (m *Modem) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.daemonPID != 0
}

// Close stops the prober if it is running and closes both channels.
// After Close the session cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrAlreadyClosed
	}
	m.closed = true
	m.mu.Unlock()

	// Stop outside the session lock: the stop waits for in-flight
	// dispatches to drain, and actions may call session-lock methods
	// such as Connected or Disconnect.
	if err := m.prober.Stop(); err != nil && !errors.Is(err, ErrProberNotStarted) {
		m.logger.Warn("stop prober on close", "error", err)
	}

	return errors.Join(m.data.Close(), m.ctrl.Close())
}
