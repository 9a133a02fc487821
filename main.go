package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/telemux/modemctl/modem"
)

const ctrlReadTimeout = 500 * time.Millisecond

func main() {
	configFile := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("data-port", "/dev/ttyUSB0", "Serial port for the modem data channel")
	flag.String("ctrl-port", "/dev/ttyUSB1", "Serial port for the modem control channel")
	flag.Int("baud-rate", 9600, "Baud rate for serial communication")
	flag.String("dial-number", "*99#", "Number to dial when bringing the link up")
	flag.String("pppd-path", "/usr/sbin/pppd", "Path to the pppd executable")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the status server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-file", "", "Rotating log file (defaults to stderr)")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var logOut io.Writer = os.Stderr
	if config.LogFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	mode := &serial.Mode{BaudRate: config.BaudRate}
	modemConfig, err := modem.NewConfigBuilder().
		WithDataDialer(modem.SerialDialer{
			PortName: config.DataPort,
			Mode:     mode,
		}).
		WithCtrlDialer(modem.SerialDialer{
			PortName:    config.CtrlPort,
			Mode:        mode,
			ReadTimeout: ctrlReadTimeout,
		}).
		WithDataEndpoint(config.DataPort).
		WithDialNumber(config.DialNumber).
		WithPppd(config.PppdPath, "7200000").
		WithCommandTimeout(5 * time.Second).
		WithLogger(logger.With("component", "modem")).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(context.Background(), modemConfig)
	if err != nil {
		logger.Error("Failed to open modem", "error", err)
		os.Exit(1)
	}

	if err := m.Prober().Start(); err != nil {
		logger.Error("Failed to start prober", "error", err)
		os.Exit(1)
	}

	logger.Info("Modem session started", "data", config.DataPort, "ctrl", config.CtrlPort)

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Modem:  m,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start status server in a goroutine
	go func() {
		logger.Info("Starting status server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Status server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	logger.Info("Closing modem session")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing status server")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
		os.Exit(1)
	}
}
