// dynv6sync keeps a dynv6.com zone, or one A/AAAA record inside it, in
// sync with the host's current public addresses. It runs once (for cron or
// systemd timers) or repeatedly with -interval.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"gitlab.bluewillows.net/root/dynv6sync/internal/config"
	"gitlab.bluewillows.net/root/dynv6sync/internal/health"
	"gitlab.bluewillows.net/root/dynv6sync/internal/metrics"
	"gitlab.bluewillows.net/root/dynv6sync/internal/reconciler"
	"gitlab.bluewillows.net/root/dynv6sync/internal/state"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/address"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/dynv6"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/httputil"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/provider"
	"gitlab.bluewillows.net/root/dynv6sync/pkg/sshutil"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		attrs := []any{slog.String("error", err.Error())}
		if hint := errorHint(err); hint != "" {
			attrs = append(attrs, slog.String("hint", hint))
		}
		slog.Error("fatal error", attrs...)
		os.Exit(1)
	}
}

func run(args []string, output io.Writer) error {
	cfg, err := config.Load(args, output)
	if errors.Is(err, config.ErrVersion) {
		fmt.Fprintf(output, "dynv6sync %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("dynv6sync starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.String("config", cfg.Summary()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources, err := buildSources(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuring address sources: %w", err)
	}

	client := dynv6.NewClient(cfg.Token,
		dynv6.WithAPIEndpoint(cfg.APIEndpoint),
		dynv6.WithLogger(logger),
		dynv6.WithHTTPClient(httputil.NewClient(&httputil.ClientConfig{
			Timeout: cfg.HTTPTimeout,
			Logger:  logger,
		})),
	)

	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("configuring state store: %w", err)
	}
	defer closeStore()

	rec := reconciler.New(client, store, sources,
		reconciler.WithConfig(reconciler.Config{
			ZoneName:   cfg.ZoneName,
			ZoneID:     cfg.ZoneID,
			Prefix:     cfg.Prefix,
			Apex:       cfg.Apex,
			CreateZone: cfg.CreateZone,
			DryRun:     cfg.DryRun,
		}),
		reconciler.WithLogger(logger),
	)

	runOnce := func() (*reconciler.Result, error) {
		result, err := rec.Reconcile(ctx)
		if cfg.RemoteState() {
			// Reconnect each run so a dropped session does not stick.
			closeStore()
		}
		if cfg.MetricsFile != "" {
			if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Warn("failed to write metrics file", slog.String("error", werr.Error()))
			}
		}
		return result, err
	}

	if cfg.Interval <= 0 {
		result, err := runOnce()
		if err != nil {
			return err
		}
		if result.HasErrors() {
			return fmt.Errorf("%d action(s) failed: %s", result.FailedCount(), result.ShortSummary())
		}
		return nil
	}

	return runDaemon(ctx, cfg, logger, runOnce)
}

func runDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger, runOnce func() (*reconciler.Result, error)) error {
	tracker := health.NewTracker(3 * cfg.Interval)

	var healthServer *health.Server
	if cfg.HealthPort > 0 {
		healthServer = health.New(cfg.HealthPort, tracker, health.WithLogger(logger))
		if err := healthServer.Start(); err != nil {
			return fmt.Errorf("starting health server: %w", err)
		}
	}

	trigger := func() {
		result, err := runOnce()
		summary := ""
		failed := 0
		if result != nil {
			summary = result.ShortSummary()
			failed = result.FailedCount()
		}
		if hint := errorHint(err); hint != "" {
			logger.Warn("reconciliation aborted",
				slog.String("error", err.Error()),
				slog.String("hint", hint),
			)
		}
		tracker.Observe(summary, failed, err)
	}

	logger.Info("periodic reconciliation enabled", slog.Duration("interval", cfg.Interval))
	trigger()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			logger.Debug("periodic reconciliation triggered", slog.Duration("interval", cfg.Interval))
			trigger()
		}
	}

	logger.Info("shutting down...")

	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("dynv6sync shutdown complete")
	return nil
}

// buildSources creates one address source per enabled family.
func buildSources(cfg *config.Config, logger *slog.Logger) ([]address.Source, error) {
	var sources []address.Source

	for _, f := range provider.Families {
		ac := cfg.Family(f.String())

		network := "tcp6"
		if f == provider.FamilyIPv4 {
			network = "tcp4"
		}

		src, err := address.New(ac.Method, f, address.Options{
			ProbeAddress: ac.Probe,
			URL:          ac.URL,
			DNSServer:    ac.DNSServer,
			DNSName:      cfg.DNSName,
			Interface:    ac.Interface,
			HTTPClient: httputil.NewClient(&httputil.ClientConfig{
				Timeout: cfg.HTTPTimeout,
				Network: network,
				Logger:  logger,
			}),
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if src == nil {
			logger.Debug("address family disabled", slog.String("family", f.String()))
			continue
		}

		logger.Debug("address source configured",
			slog.String("family", f.String()),
			slog.String("method", ac.Method),
		)
		sources = append(sources, src)
	}

	return sources, nil
}

// buildStore creates the snapshot store and a function releasing any
// remote session it holds.
func buildStore(cfg *config.Config, logger *slog.Logger) (*state.Store, func(), error) {
	if !cfg.RemoteState() {
		store := state.NewStore(cfg.StatePath, state.WithLogger(logger))
		logger.Debug("snapshot stored locally", slog.String("path", store.Path()))
		return store, func() {}, nil
	}

	sshClient, err := sshutil.NewClient(cfg.SSHConfig, sshutil.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	remote := state.NewSFTPFS(sshutil.NewSFTPFileSystem(sshClient, sshutil.WithSFTPLogger(logger)))

	closeFn := func() {
		if err := remote.Close(); err != nil {
			logger.Debug("closing sftp session", slog.String("error", err.Error()))
		}
	}

	store := state.NewStore(cfg.StatePath,
		state.WithFileSystem(remote),
		state.WithLogger(logger),
	)
	logger.Debug("snapshot stored remotely",
		slog.String("host", cfg.SSHConfig.Address()),
		slog.String("path", store.Path()),
	)
	return store, closeFn, nil
}

// errorHint suggests a fix for provider errors that abort a run.
func errorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case provider.IsUnauthorized(err):
		return "check the dynv6 token"
	case provider.IsProviderUnavailable(err):
		return "the dynv6 API is unavailable, try again later"
	default:
		return ""
	}
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
