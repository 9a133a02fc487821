package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config holds the daemon configuration
type Config struct {
	// BindAddress is the address the status server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bindAddress"`
	// DataPort is the path to the modem's data serial port (e.g. "/dev/ttyUSB0")
	DataPort string `yaml:"dataPort"`
	// CtrlPort is the path to the modem's control serial port (e.g. "/dev/ttyUSB1")
	CtrlPort string `yaml:"ctrlPort"`
	// BaudRate is the baud rate for serial communication with the modem
	BaudRate int `yaml:"baudRate"`
	// DialNumber is the number dialed to bring the link up
	DialNumber string `yaml:"dialNumber"`
	// PppdPath is the pppd executable spawned after a successful dial
	PppdPath string `yaml:"pppdPath"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"logLevel"`
	// LogFile is an optional rotating log file; empty logs to stderr
	LogFile string `yaml:"logFile"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.DataPort = "/dev/ttyUSB0"
		c.CtrlPort = "/dev/ttyUSB1"
		c.BaudRate = 9600
		c.DialNumber = "*99#"
		c.PppdPath = "/usr/sbin/pppd"
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is a
// no-op so the flag can stay optional.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if port := os.Getenv("DATA_PORT"); port != "" {
			c.DataPort = port
		}

		if port := os.Getenv("CTRL_PORT"); port != "" {
			c.CtrlPort = port
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if number := os.Getenv("DIAL_NUMBER"); number != "" {
			c.DialNumber = number
		}

		if path := os.Getenv("PPPD_PATH"); path != "" {
			c.PppdPath = path
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if file := os.Getenv("LOG_FILE"); file != "" {
			c.LogFile = file
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "data-port":
				c.DataPort = f.Value.String()
			case "ctrl-port":
				c.CtrlPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "dial-number":
				c.DialNumber = f.Value.String()
			case "pppd-path":
				c.PppdPath = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "log-file":
				c.LogFile = f.Value.String()
			}

		})
		return nil
	}

}
