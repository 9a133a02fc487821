package modem_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/telemux/modemctl/modem"
)

func TestConnectionStatusSnapshot(t *testing.T) {
	status := modem.NewConnectionStatus()
	status.SetRSSI(21)
	status.SetMode("5,4")
	status.SetRates(1200, 56000)
	status.AddTraffic(100, 2000)
	status.AddTraffic(50, 500)

	snap := status.Snapshot()
	if snap.RSSI != 21 {
		t.Errorf("unexpected rssi: %d", snap.RSSI)
	}
	if snap.Mode != "5,4" {
		t.Errorf("unexpected mode: %q", snap.Mode)
	}
	if snap.BytesTx != 150 || snap.BytesRx != 2500 {
		t.Errorf("unexpected traffic counters: tx=%d rx=%d", snap.BytesTx, snap.BytesRx)
	}
	if snap.Uplink != 1200 || snap.Downlink != 56000 {
		t.Errorf("unexpected rates: up=%d down=%d", snap.Uplink, snap.Downlink)
	}
	if snap.LinkUptime != 0 {
		t.Errorf("uptime should be zero while disconnected, got %v", snap.LinkUptime)
	}
}

func TestConnectionStatusConcurrentAccess(t *testing.T) {
	status := modem.NewConnectionStatus()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				status.SetRSSI(n)
				status.AddTraffic(1, 1)
				_ = status.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if snap := status.Snapshot(); snap.BytesTx != 800 || snap.BytesRx != 800 {
		t.Errorf("lost traffic updates: tx=%d rx=%d", snap.BytesTx, snap.BytesRx)
	}
}

func TestStatusSnapshotReport(t *testing.T) {
	status := modem.NewConnectionStatus()
	status.SetRSSI(17)
	status.SetMode("3,2")

	report := status.Snapshot().Report()
	for _, want := range []string{"Signal Strength : 17", "Mode : 3,2", "Bytes rx : 0"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}
