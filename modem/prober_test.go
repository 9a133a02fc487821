package modem_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/telemux/modemctl/modem"
)

// newTestModem builds a session over two TestTransports. The control
// transport simulates a serial port with a short read timeout so the
// feeder's reads stay bounded.
func newTestModem(t *testing.T, opts ...func(*modem.ConfigBuilder)) (*modem.Modem, *modem.TestTransport, *modem.TestTransport) {
	t.Helper()

	ctrl := gomock.NewController(t)

	dataTransport := modem.NewTestTransport()
	ctrlTransport := modem.NewTestTransport()
	ctrlTransport.ReadTimeout = 10 * time.Millisecond

	dataDialer := modem.NewMockDialer(ctrl)
	ctrlDialer := modem.NewMockDialer(ctrl)
	dataDialer.EXPECT().Dial(gomock.Any()).Return(dataTransport, nil)
	ctrlDialer.EXPECT().Dial(gomock.Any()).Return(ctrlTransport, nil)

	builder := modem.NewConfigBuilder().
		WithDataDialer(dataDialer).
		WithCtrlDialer(ctrlDialer).
		WithFeederIdle(5 * time.Millisecond).
		WithCommandTimeout(time.Second)
	for _, opt := range opts {
		opt(builder)
	}

	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("unexpected error from New(): %v", err)
	}
	t.Cleanup(func() { m.Close() })

	return m, dataTransport, ctrlTransport
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestProberUsageGuards(t *testing.T) {
	m, _, _ := newTestModem(t)
	prober := m.Prober()

	if err := prober.Stop(); !errors.Is(err, modem.ErrProberNotStarted) {
		t.Errorf("expected ErrProberNotStarted, got: %v", err)
	}

	if err := prober.Start(); err != nil {
		t.Fatalf("unexpected error from Start(): %v", err)
	}
	if err := prober.Start(); !errors.Is(err, modem.ErrProberStarted) {
		t.Errorf("expected ErrProberStarted, got: %v", err)
	}

	if err := prober.Stop(); err != nil {
		t.Fatalf("unexpected error from Stop(): %v", err)
	}
	if err := prober.Stop(); !errors.Is(err, modem.ErrProberNotStarted) {
		t.Errorf("expected ErrProberNotStarted on second stop, got: %v", err)
	}

	// A stopped prober can be started again.
	if err := prober.Start(); err != nil {
		t.Errorf("restart after stop should succeed, got: %v", err)
	}
	if err := prober.Stop(); err != nil {
		t.Errorf("unexpected error from final Stop(): %v", err)
	}
}

func TestProberDispatchesUnsolicitedLines(t *testing.T) {
	m, _, ctrlTransport := newTestModem(t)

	if err := m.Prober().Start(); err != nil {
		t.Fatalf("unexpected error from Start(): %v", err)
	}

	ctrlTransport.SendData("RSSI: 21\r\n")
	waitFor(t, time.Second, func() bool { return m.Snapshot().RSSI == 21 })

	ctrlTransport.SendData("MODE: 5,4\r\n")
	waitFor(t, time.Second, func() bool { return m.Snapshot().Mode == "5,4" })

	if err := m.Prober().Stop(); err != nil {
		t.Fatalf("unexpected error from Stop(): %v", err)
	}
}

func TestProberPreservesLineOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	rules := []modem.Rule{
		{Pattern: regexp.MustCompile(`^SEQ:`), Action: func(m *modem.Modem, line string) {
			mu.Lock()
			seen = append(seen, line)
			mu.Unlock()
		}},
	}

	m, _, ctrlTransport := newTestModem(t, func(b *modem.ConfigBuilder) {
		b.WithRules(rules)
	})

	if err := m.Prober().Start(); err != nil {
		t.Fatalf("unexpected error from Start(): %v", err)
	}

	ctrlTransport.SendData("SEQ: 1\r\nSEQ: 2\r\nSEQ: 3\r\nSEQ: 4\r\n")

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 4
	})

	mu.Lock()
	defer mu.Unlock()
	for i, line := range []string{"SEQ: 1", "SEQ: 2", "SEQ: 3", "SEQ: 4"} {
		if seen[i] != line {
			t.Errorf("message %d: expected %q, got %q", i, line, seen[i])
		}
	}
}

func TestProberStopEndsDispatch(t *testing.T) {
	var mu sync.Mutex
	matched := 0
	rules := []modem.Rule{
		{Pattern: regexp.MustCompile(`^PING`), Action: func(m *modem.Modem, line string) {
			mu.Lock()
			matched++
			mu.Unlock()
		}},
	}

	m, _, ctrlTransport := newTestModem(t, func(b *modem.ConfigBuilder) {
		b.WithRules(rules)
	})

	if err := m.Prober().Start(); err != nil {
		t.Fatalf("unexpected error from Start(): %v", err)
	}

	ctrlTransport.SendData("PING\r\n")
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return matched == 1
	})

	if err := m.Prober().Stop(); err != nil {
		t.Fatalf("unexpected error from Stop(): %v", err)
	}

	// Lines arriving after stop are never dispatched.
	ctrlTransport.SendData("PING\r\n")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if matched != 1 {
		t.Errorf("expected no dispatches after Stop, got %d total", matched)
	}
}

func TestProberStopSentinelReachesDefaultAction(t *testing.T) {
	var mu sync.Mutex
	var fallbackLines []string

	m, _, _ := newTestModem(t, func(b *modem.ConfigBuilder) {
		b.WithRules([]modem.Rule{}).
			WithDefaultAction(func(m *modem.Modem, line string) {
				mu.Lock()
				fallbackLines = append(fallbackLines, line)
				mu.Unlock()
			})
	})

	if err := m.Prober().Start(); err != nil {
		t.Fatalf("unexpected error from Start(): %v", err)
	}
	if err := m.Prober().Stop(); err != nil {
		t.Fatalf("unexpected error from Stop(): %v", err)
	}

	// The stop sentinel is an empty line that still travels through
	// full dispatch before the loop exits.
	mu.Lock()
	defer mu.Unlock()
	if len(fallbackLines) == 0 {
		t.Fatal("expected the stop sentinel to reach the default action")
	}
	for _, line := range fallbackLines {
		if line != "" {
			t.Errorf("only empty lines expected before stop, got %q", line)
		}
	}
}
