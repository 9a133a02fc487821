package modem

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ConnectionStatus is the mutable shared record of the session's link
// state. Dispatch actions write it while status reporting reads it, so
// every access goes through the lock.
type ConnectionStatus struct {
	mu          sync.RWMutex
	rssi        int
	mode        string
	uplink      int64
	downlink    int64
	bytesTx     uint64
	bytesRx     uint64
	connectedAt time.Time
}

// NewConnectionStatus returns a zeroed status record.
func NewConnectionStatus() *ConnectionStatus {
	return &ConnectionStatus{}
}

// SetRSSI records a new received signal strength indication.
func (s *ConnectionStatus) SetRSSI(rssi int) {
	s.mu.Lock()
	s.rssi = rssi
	s.mu.Unlock()
}

// SetMode records the reported network mode.
func (s *ConnectionStatus) SetMode(mode string) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// SetRates records the reported uplink/downlink rates in bytes per second.
func (s *ConnectionStatus) SetRates(uplink, downlink int64) {
	s.mu.Lock()
	s.uplink = uplink
	s.downlink = downlink
	s.mu.Unlock()
}

// AddTraffic accumulates transferred byte counters.
func (s *ConnectionStatus) AddTraffic(tx, rx uint64) {
	s.mu.Lock()
	s.bytesTx += tx
	s.bytesRx += rx
	s.mu.Unlock()
}

func (s *ConnectionStatus) markConnected(now time.Time) {
	s.mu.Lock()
	s.connectedAt = now
	s.mu.Unlock()
}

func (s *ConnectionStatus) markDisconnected() {
	s.mu.Lock()
	s.connectedAt = time.Time{}
	s.mu.Unlock()
}

// StatusSnapshot is a consistent, read-only copy of the connection
// status, consumed by presentation layers.
type StatusSnapshot struct {
	RSSI       int           `json:"rssi"`
	Mode       string        `json:"mode"`
	Uplink     int64         `json:"uplink_bps"`
	Downlink   int64         `json:"downlink_bps"`
	BytesTx    uint64        `json:"bytes_tx"`
	BytesRx    uint64        `json:"bytes_rx"`
	LinkUptime time.Duration `json:"link_uptime"`
}

// Snapshot returns a copy of the current state.
func (s *ConnectionStatus) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var uptime time.Duration
	if !s.connectedAt.IsZero() {
		uptime = time.Since(s.connectedAt)
	}
	return StatusSnapshot{
		RSSI:       s.rssi,
		Mode:       s.mode,
		Uplink:     s.uplink,
		Downlink:   s.downlink,
		BytesTx:    s.bytesTx,
		BytesRx:    s.bytesRx,
		LinkUptime: uptime,
	}
}

// Report renders the snapshot as an aligned human-readable table.
func (s StatusSnapshot) Report() string {
	var b strings.Builder
	rows := []struct {
		label string
		value any
	}{
		{"Signal Strength", s.RSSI},
		{"Mode", s.Mode},
		{"Bytes rx", s.BytesRx},
		{"Bytes tx", s.BytesTx},
		{"Uplink (B/s)", s.Uplink},
		{"Downlink (B/s)", s.Downlink},
		{"Seconds uptime", int(s.LinkUptime.Seconds())},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%20s : %v\n", row.label, row.value)
	}
	return b.String()
}
