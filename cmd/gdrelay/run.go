package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gdrelay/gdrelay/internal/config"
	"github.com/gdrelay/gdrelay/internal/dispatch"
	"github.com/gdrelay/gdrelay/internal/driveapi"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/logging"
	"github.com/gdrelay/gdrelay/internal/pathresolver"
	"github.com/gdrelay/gdrelay/internal/poller"
	"github.com/gdrelay/gdrelay/internal/supervisor"
)

// shutdownGrace bounds how long Shutdown waits for in-flight dispatches
// to drain once a signal is received.
const shutdownGrace = 15 * time.Second

func runRoot(cmd *cobra.Command, args []string) error {
	dirs := settingsDirs(args)

	settings, err := config.Load(dirs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitConfigError)
	}

	if dryRun {
		return printSettings(settings)
	}

	logger := logging.New(settings.Logging, devMode)

	sup, err := bootstrap(settings, logger)
	if err != nil {
		logger.Error("bootstrap failed", "err", err)
		os.Exit(exitBootstrapFail)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sup.Run(ctx); err != nil {
		logger.Error("supervisor run failed", "err", err)
		os.Exit(exitBootstrapFail)
	}

	logger.Info("signal received, stopping pollers")
	if err := sup.Shutdown(shutdownGrace); err != nil {
		logger.Warn("one or more pollers reported an error on shutdown", "err", err)
	}

	os.Exit(exitOK)
	return nil
}

// bootstrap wires every dependency a running supervisor needs: the
// shared Drive client, one Path Resolver, and one Poller per configured
// poller block, each with its own freshly built dispatcher set.
func bootstrap(settings config.Settings, logger *slog.Logger) (*supervisor.Supervisor, error) {
	ctx := context.Background()

	drive, err := driveapi.New(ctx, settings.GoogleDrive)
	if err != nil {
		return nil, fmt.Errorf("build drive client: %w", err)
	}

	var resolverOpts []pathresolver.Option
	if settings.GoogleDrive.CacheEnable {
		resolverOpts = append(resolverOpts, pathresolver.WithCache(
			settings.GoogleDrive.CacheMaxSize,
			time.Duration(settings.GoogleDrive.CacheTTL)*time.Second,
		))
	}
	resolver := pathresolver.New(drive, resolverOpts...)

	session := httpsession.NewSession(nil)

	pollers := make([]*poller.Poller, 0, len(settings.Pollers))
	for _, pc := range settings.Pollers {
		targets := make([]config.Target, 0, len(pc.Targets))
		for _, ts := range pc.Targets {
			t, err := config.ParseTarget(ts)
			if err != nil {
				return nil, fmt.Errorf("poller %s: %w", pc.Name, err)
			}
			targets = append(targets, t)
		}

		dispatchers := make([]dispatch.Dispatcher, 0, len(pc.Dispatchers))
		for _, dc := range pc.Dispatchers {
			d, err := dispatch.Build(session, pc.Name, dc, pc.Effective.BufferInterval, logger)
			if err != nil {
				return nil, fmt.Errorf("poller %s: dispatcher %s: %w", pc.Name, dc.Class, err)
			}
			dispatchers = append(dispatchers, d)
		}

		pollers = append(pollers, poller.New(pc.Name, targets, drive, resolver, dispatchers, pc.Effective, logger))
	}

	watchdog := time.Duration(settings.TaskCheckInterval) * time.Second
	return supervisor.New(pollers, watchdog, logger), nil
}

func settingsDirs(args []string) []string {
	if len(args) > 0 {
		return []string{args[0]}
	}
	return []string{".", "/etc/gdrelay"}
}
