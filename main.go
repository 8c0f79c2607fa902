// ABOUTME: Entry point for the low-latency player
// ABOUTME: Parses CLI flags, loads config and runs the output stream with a TUI or streaming logs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/lowlat/internal/app"
	"github.com/Resonate-Protocol/lowlat/internal/config"
	"github.com/Resonate-Protocol/lowlat/internal/logging"
	"github.com/Resonate-Protocol/lowlat/internal/ui"
	"github.com/Resonate-Protocol/lowlat/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configPath  = flag.String("config", "", "Path to YAML config file")
	backend     = flag.String("backend", "", "Audio backend: oto, malgo, portaudio, headless")
	sourcePath  = flag.String("source", "", "Audio file to play (MP3, FLAC, WAV); empty plays a test tone")
	logFile     = flag.String("log-file", "", "Log file path")
	logLevel    = flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	metricsBind = flag.String("metrics-bind", "", "Address for the Prometheus /metrics endpoint")
	paused      = flag.Bool("paused", false, "Open the stream paused")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var logOut io.Writer = f
	if !useTUI {
		// Streaming logs mode: log to both stdout and file
		logOut = io.MultiWriter(os.Stdout, f)
	}
	if err := logging.Setup(logOut, strings.ToLower(cfg.LogLevel), false); err != nil {
		return err
	}
	logger := logging.Component("main")
	logger.Info().Str("version", version.Version).Str("backend", cfg.Backend).Msg("starting " + version.Product)

	// A nil Registerer disables metrics in the player
	var reg *prometheus.Registry
	var registerer prometheus.Registerer
	if cfg.MetricsBind != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registerer = reg
	}

	player, err := app.New(cfg, registerer)
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing player")
		}
	}()

	if reg != nil {
		srv := serveMetrics(cfg.MetricsBind, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if err := player.Open(); err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !useTUI {
		player.Run(ctx, nil, nil)
		logger.Info().Msg("shutdown signal received")
		return nil
	}

	controls := ui.NewControls()
	tui := ui.New(controls)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		player.Run(ctx, controls, tui.Update)
	}()

	tuiErr := make(chan error, 1)
	go func() {
		tuiErr <- tui.Run()
	}()

	select {
	case <-runDone:
		// quit key or signal; wait for the terminal to be restored
		tui.Stop()
		err = <-tuiErr
	case err = <-tuiErr:
		stop()
		<-runDone
		tui.Stop()
	}
	if err != nil {
		logger.Error().Err(err).Msg("TUI failed")
	}
	return err
}

// applyFlags lets explicit flags win over the config file and environment
func applyFlags(cfg *config.Config) {
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *sourcePath != "" {
		cfg.Source.Path = *sourcePath
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsBind != "" {
		cfg.MetricsBind = *metricsBind
	}
	if *paused {
		cfg.StartPlaying = false
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger := logging.Component("metrics")
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}
