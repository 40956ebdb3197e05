// Package supervisor owns the top-level poller lifecycle: starting every
// configured poller as its own set of goroutines, optionally running a
// watchdog heartbeat, and bringing everything down cleanly on
// cancellation.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gdrelay/gdrelay/internal/poller"
)

// Supervisor starts and stops a fixed set of pollers together.
type Supervisor struct {
	pollers          []*poller.Poller
	watchdogInterval time.Duration
	logger           *slog.Logger
}

// New builds a Supervisor. watchdogInterval <= 0 disables the heartbeat
// watchdog.
func New(pollers []*poller.Poller, watchdogInterval time.Duration, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{pollers: pollers, watchdogInterval: watchdogInterval, logger: logger}
}

// Run starts every poller and blocks until ctx is canceled (by a signal
// or a fatal error upstream). It does not stop the pollers itself — call
// Shutdown afterwards with a fresh, undone context so in-flight
// dispatches get a chance to drain.
func (s *Supervisor) Run(ctx context.Context) error {
	started := make([]*poller.Poller, 0, len(s.pollers))
	for _, p := range s.pollers {
		if err := p.Start(ctx); err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.stopAll(stopCtx, started)
			cancel()
			return err
		}
		started = append(started, p)
	}

	if s.watchdogInterval > 0 {
		go s.watchdog(ctx)
	}

	<-ctx.Done()
	return nil
}

// Shutdown stops every poller (cancellation having already happened via
// Run's ctx), logs each stop error, and returns the first one.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.stopAll(ctx, s.pollers)
}

func (s *Supervisor) stopAll(ctx context.Context, pollers []*poller.Poller) error {
	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	for _, p := range pollers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Stop(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				s.logger.Error("poller stop failed", "err", err)
			}
		}()
	}
	wg.Wait()
	return firstErr
}

// watchdog periodically logs that the supervisor is still alive, the
// process-level analogue of each poller's own per-target heartbeat
// (SPEC_FULL.md §4.8).
func (s *Supervisor) watchdog(ctx context.Context) {
	ticker := time.NewTicker(s.watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.Info("supervisor watchdog", "pollers", len(s.pollers))
		}
	}
}
