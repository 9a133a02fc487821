package modem

import (
	"errors"
	"log/slog"
	"time"
)

// Config carries everything a Modem session needs. Build one with
// NewConfigBuilder; zero values are filled with defaults at
// construction time.
type Config struct {
	// DataDialer and CtrlDialer open the two independent channels to
	// the modem. Both are required.
	DataDialer Dialer
	CtrlDialer Dialer

	// ProcessManager spawns and terminates the network daemon on
	// connect/disconnect. Defaults to ExecManager.
	ProcessManager ProcessManager

	// Logger receives session, feeder and dispatch logging. Defaults
	// to slog.Default().
	Logger *slog.Logger

	// Rules is the ordered pattern-to-action table for unsolicited
	// lines; first match wins. Defaults to StandardRules().
	Rules []Rule
	// DefaultAction runs for lines no rule matches. Defaults to NoMatch.
	DefaultAction ActionFunc

	// CommandTimeout bounds each transaction's wait for the OK
	// terminator. Defaults to 5s. A zero value is only honored
	// together with UnboundedCommands; waiting forever has to be asked
	// for explicitly.
	CommandTimeout time.Duration
	// UnboundedCommands lets transactions wait for the terminator
	// indefinitely.
	UnboundedCommands bool

	// FeederIdle is how long the feeder idles off the channel lock
	// between reads. Defaults to 100ms.
	FeederIdle time.Duration

	// DialNumber is the number ATDT dials. Defaults to "*99#".
	DialNumber string
	// DataEndpoint is the data channel's device path, handed to the
	// network daemon's argument vector.
	DataEndpoint string
	// PppdPath is the network daemon executable. Defaults to
	// "/usr/sbin/pppd".
	PppdPath string
	// PppdBaud is the line speed argument for the daemon. Defaults to
	// "7200000".
	PppdBaud string
	// PppdOptions is the fixed option set appended to the daemon's
	// argument vector.
	PppdOptions []string
}

func (c *Config) setDefaults() {
	if c.ProcessManager == nil {
		c.ProcessManager = ExecManager{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Rules == nil {
		c.Rules = StandardRules()
	}
	if c.DefaultAction == nil {
		c.DefaultAction = NoMatch
	}
	if c.CommandTimeout == 0 && !c.UnboundedCommands {
		c.CommandTimeout = 5 * time.Second
	}
	if c.FeederIdle == 0 {
		c.FeederIdle = 100 * time.Millisecond
	}
	if c.DialNumber == "" {
		c.DialNumber = "*99#"
	}
	if c.PppdPath == "" {
		c.PppdPath = "/usr/sbin/pppd"
	}
	if c.PppdBaud == "" {
		c.PppdBaud = "7200000"
	}
	if c.PppdOptions == nil {
		c.PppdOptions = []string{
			"modem", "crtscts", "defaultroute", "noipdefault",
			"usepeerdns", "-detach", "idle", "0",
		}
	}
}

func (c *Config) validate() error {
	if c.DataDialer == nil || c.CtrlDialer == nil {
		return ErrNoDialer
	}
	return nil
}

// ConfigBuilder assembles a Config fluently.
type ConfigBuilder struct {
	config Config
	err    error
}

// NewConfigBuilder returns an empty builder.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDataDialer(d Dialer) *ConfigBuilder {
	b.config.DataDialer = d
	return b
}

func (b *ConfigBuilder) WithCtrlDialer(d Dialer) *ConfigBuilder {
	b.config.CtrlDialer = d
	return b
}

func (b *ConfigBuilder) WithProcessManager(p ProcessManager) *ConfigBuilder {
	b.config.ProcessManager = p
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// WithRules replaces the standard rule table. Order is preserved and
// semantically significant.
func (b *ConfigBuilder) WithRules(rules []Rule) *ConfigBuilder {
	b.config.Rules = rules
	return b
}

func (b *ConfigBuilder) WithDefaultAction(a ActionFunc) *ConfigBuilder {
	b.config.DefaultAction = a
	return b
}

func (b *ConfigBuilder) WithCommandTimeout(d time.Duration) *ConfigBuilder {
	if d == 0 {
		b.err = errors.New("zero command timeout: use WithUnboundedCommands instead")
		return b
	}
	b.config.CommandTimeout = d
	return b
}

// WithUnboundedCommands opts in to transactions that wait for the OK
// terminator forever. This is the legacy behavior and an availability
// risk; prefer a timeout.
func (b *ConfigBuilder) WithUnboundedCommands() *ConfigBuilder {
	b.config.UnboundedCommands = true
	b.config.CommandTimeout = 0
	return b
}

func (b *ConfigBuilder) WithFeederIdle(d time.Duration) *ConfigBuilder {
	b.config.FeederIdle = d
	return b
}

func (b *ConfigBuilder) WithDialNumber(number string) *ConfigBuilder {
	b.config.DialNumber = number
	return b
}

func (b *ConfigBuilder) WithDataEndpoint(path string) *ConfigBuilder {
	b.config.DataEndpoint = path
	return b
}

func (b *ConfigBuilder) WithPppd(path, baud string, options ...string) *ConfigBuilder {
	b.config.PppdPath = path
	b.config.PppdBaud = baud
	if options != nil {
		b.config.PppdOptions = options
	}
	return b
}

// Build validates and returns the config.
func (b *ConfigBuilder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	return b.config, nil
}
