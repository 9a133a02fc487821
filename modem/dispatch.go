package modem

import (
	"context"
	"log/slog"
	"regexp"
)

// ActionFunc reacts to one unsolicited line. Actions typically update
// the session's connection status or trigger higher-level reactions.
type ActionFunc func(m *Modem, line string)

// Rule pairs a pattern with the action to run when a line matches it.
// Rules are immutable once handed to a DispatchTable.
type Rule struct {
	Pattern *regexp.Regexp
	Action  ActionFunc
}

// DispatchTable is an ordered rule list plus one default action. Rules
// are evaluated linearly in the order supplied by the caller and the
// first match wins; order is semantically significant, so the table
// never reorders them. Exactly one action fires per line: the first
// matching rule's, or the default when nothing matches.
//
// The table is read-only after construction and safe to share.
type DispatchTable struct {
	rules    []Rule
	fallback ActionFunc
	logger   *slog.Logger
}

// NewDispatchTable builds a table from rules, in that order, with
// fallback as the default action. A nil fallback is replaced with a
// no-op.
func NewDispatchTable(rules []Rule, fallback ActionFunc, logger *slog.Logger) *DispatchTable {
	if fallback == nil {
		fallback = func(*Modem, string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchTable{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
		logger:   logger,
	}
}

// Dispatch runs line through the table. A panicking action is recovered
// and logged; it never takes the dispatch loop down with it.
func (t *DispatchTable) Dispatch(m *Modem, line string) {
	for _, rule := range t.rules {
		if rule.Pattern.MatchString(line) {
			t.invoke(rule.Action, m, line)
			return
		}
	}
	t.invoke(t.fallback, m, line)
}

func (t *DispatchTable) invoke(action ActionFunc, m *Modem, line string) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("dispatch action failed", "line", line, "panic", r)
		}
	}()
	action(m, line)
}

// Interpreter drains the queue one line at a time and applies the
// dispatch table. It runs as a goroutine owned by the Prober.
type Interpreter struct {
	queue *Queue
	table *DispatchTable
	modem *Modem
	done  chan struct{}
}

func newInterpreter(queue *Queue, table *DispatchTable, m *Modem) *Interpreter {
	return &Interpreter{
		queue: queue,
		table: table,
		modem: m,
		done:  make(chan struct{}),
	}
}

// run keeps dispatching lines until ctx is cancelled. Cancellation is
// observed after a dispatch, so the empty sentinel line the prober
// enqueues on stop still travels through the table (normally landing on
// the default action) before the loop exits.
func (i *Interpreter) run(ctx context.Context) {
	defer close(i.done)
	for {
		line := i.queue.Get()
		i.table.Dispatch(i.modem, line)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
