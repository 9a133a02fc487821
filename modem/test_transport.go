package modem

import (
	"io"
	"sync"
	"time"
)

// TestTransport is a test helper that simulates a serial endpoint using
// channels. Reads block until data is queued, like a real port would;
// when ReadTimeout is set, a starved Read returns (0, nil) the way a
// serial port with a read timeout does, which is what keeps a feeder's
// reads bounded in tests.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	writes   []string

	// ReadTimeout makes starved reads return empty, simulating a
	// bounded serial read. Zero blocks until data or close.
	ReadTimeout time.Duration
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 32),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	t.writes = append(t.writes, string(p))
	t.mu.Unlock()
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	if t.ReadTimeout > 0 {
		select {
		case data, ok := <-t.readChan:
			if !ok {
				return 0, io.EOF
			}
			return copy(p, data), nil
		case <-time.After(t.ReadTimeout):
			return 0, nil
		}
	}
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns everything written to the transport so far.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}
