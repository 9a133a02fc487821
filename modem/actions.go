package modem

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/telemux/modemctl/at"
)

// Patterns for the unsolicited reports the standard rules recognize.
var (
	rssiPattern    = regexp.MustCompile(`^RSSI:\s*(\d+)`)
	modePattern    = regexp.MustCompile(`^MODE:\s*(\d+),(\d+)`)
	ringPattern    = regexp.MustCompile(`^RING`)
	carrierPattern = regexp.MustCompile(`^NO CARRIER`)
)

// UpdateRSSI records a signal strength report in the session status.
func UpdateRSSI(m *Modem, line string) {
	match := rssiPattern.FindStringSubmatch(line)
	if match == nil {
		return
	}
	rssi, err := strconv.Atoi(match[1])
	if err != nil {
		return
	}
	m.Status().SetRSSI(rssi)
	m.logger.Debug("signal strength report", "rssi", rssi)
}

// UpdateMode records a network mode change report in the session status.
func UpdateMode(m *Modem, line string) {
	if !modePattern.MatchString(line) {
		return
	}
	mode := strings.TrimSpace(strings.TrimPrefix(line, "MODE:"))
	m.Status().SetMode(mode)
	m.logger.Info("network mode change", "mode", mode)
}

// LogRing reports an incoming call indication.
func LogRing(m *Modem, _ string) {
	m.logger.Info("incoming call")
}

// CarrierLost reports a dropped carrier and clears the link uptime.
func CarrierLost(m *Modem, _ string) {
	m.logger.Warn("carrier lost")
	m.Status().markDisconnected()
}

// NoMatch is the default action: non-empty lines that matched no rule
// are logged with their classification and dropped. Empty lines,
// including the feeder's timeout reads and the prober's stop sentinel,
// are dropped silently.
func NoMatch(m *Modem, line string) {
	if line == "" {
		return
	}
	m.logger.Debug("unhandled modem output", "line", line, "type", at.Classify(line))
}

// StandardRules is the default pattern-to-action table. Embedders that
// need to recognize more unsolicited message types supply their own
// ordered rule list; evaluation is first match wins.
func StandardRules() []Rule {
	return []Rule{
		{Pattern: rssiPattern, Action: UpdateRSSI},
		{Pattern: modePattern, Action: UpdateMode},
		{Pattern: ringPattern, Action: LogRing},
		{Pattern: carrierPattern, Action: CarrierLost},
	}
}
