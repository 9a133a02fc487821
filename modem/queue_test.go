package modem_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/telemux/modemctl/modem"
)

func TestQueueFIFO(t *testing.T) {
	q := modem.NewQueue()

	var want []string
	for i := 0; i < 100; i++ {
		line := fmt.Sprintf("RSSI: %d", i)
		want = append(want, line)
		q.Put(line)
	}

	for i, expected := range want {
		if got := q.Get(); got != expected {
			t.Fatalf("message %d: expected %q, got %q", i, expected, got)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d messages", q.Len())
	}
}

func TestQueueGetBlocks(t *testing.T) {
	q := modem.NewQueue()

	got := make(chan string, 1)
	go func() {
		got <- q.Get()
	}()

	select {
	case line := <-got:
		t.Fatalf("Get returned %q before anything was queued", line)
	case <-time.After(20 * time.Millisecond):
	}

	q.Put("MODE: 5,4")

	select {
	case line := <-got:
		if line != "MODE: 5,4" {
			t.Errorf("expected %q, got %q", "MODE: 5,4", line)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up after Put")
	}
}

func TestQueueConcurrentProducer(t *testing.T) {
	q := modem.NewQueue()
	const count = 1000

	go func() {
		for i := 0; i < count; i++ {
			q.Put(fmt.Sprintf("line %d", i))
		}
	}()

	for i := 0; i < count; i++ {
		expected := fmt.Sprintf("line %d", i)
		if got := q.Get(); got != expected {
			t.Fatalf("message %d: expected %q, got %q", i, expected, got)
		}
	}
}
