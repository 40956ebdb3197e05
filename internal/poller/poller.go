// Package poller implements the Activity Poller (SPEC_FULL.md §4.6): one
// polling loop per watched target feeding a single per-poller priority
// queue, and one dispatch loop draining that queue, enriching each event,
// and fanning it out to every configured Dispatcher in declared order.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"google.golang.org/api/driveactivity/v2"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/config"
	"github.com/gdrelay/gdrelay/internal/dispatch"
	"github.com/gdrelay/gdrelay/internal/driveapi"
	"github.com/gdrelay/gdrelay/internal/pathresolver"
)

// activityQuerier is the slice of *driveapi.Client the polling loop
// needs; tests supply a fake so pollLoop/poll can run without a real
// OAuth2-backed Drive Activity service.
type activityQuerier interface {
	QueryActivity(ctx context.Context, q driveapi.ActivityQuery) (*driveactivity.QueryDriveActivityResponse, error)
}

// maxConcurrentResolutions bounds simultaneous Path Resolver calls during
// enrichment (SPEC_FULL.md DOMAIN STACK row for golang.org/x/sync/semaphore).
const maxConcurrentResolutions = 5

// pageSizeDefault guards against a zero/negative configured page size.
const pageSizeDefault = 100

// Poller owns one or more watched targets, a shared priority queue, and
// the dispatcher fan-out that drains it.
type Poller struct {
	name        string
	targets     []config.Target
	dispatchers []dispatch.Dispatcher

	drive    activityQuerier
	resolver *pathresolver.Resolver
	logger   *slog.Logger

	eff            config.GlobalDefaults
	allowedActions map[activity.Action]bool

	sem *semaphore.Weighted

	queueMu sync.Mutex
	queue   *activity.Queue

	statesMu sync.Mutex
	states   map[string]*targetState

	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// New builds a Poller. eff is the fully-resolved (post-inheritance)
// GlobalDefaults for this poller (config.PollerConfig.Effective).
func New(name string, targets []config.Target, drive *driveapi.Client, resolver *pathresolver.Resolver, dispatchers []dispatch.Dispatcher, eff config.GlobalDefaults, logger *slog.Logger) *Poller {
	return newPoller(name, targets, drive, resolver, dispatchers, eff, logger)
}

// newPoller is the internal constructor, parameterised over the
// activityQuerier interface so tests can substitute a fake drive client.
func newPoller(name string, targets []config.Target, drive activityQuerier, resolver *pathresolver.Resolver, dispatchers []dispatch.Dispatcher, eff config.GlobalDefaults, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := map[activity.Action]bool{}
	actions := eff.Actions
	if len(actions) == 0 {
		for _, a := range activity.DefaultActions() {
			allowed[a] = true
		}
	} else {
		for _, a := range actions {
			allowed[activity.Action(a)] = true
		}
	}
	return &Poller{
		name:           name,
		targets:        targets,
		dispatchers:    dispatchers,
		drive:          drive,
		resolver:       resolver,
		logger:         logger,
		eff:            eff,
		allowedActions: allowed,
		sem:            semaphore.NewWeighted(maxConcurrentResolutions),
		queue:          activity.NewQueue(),
		states:         make(map[string]*targetState),
	}
}

// Start launches one polling loop per target plus the single dispatch
// loop, and starts every buffered dispatcher's own flush loop.
func (p *Poller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	for _, d := range p.dispatchers {
		if err := d.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	now := time.Now()
	pollingDelay := time.Duration(p.eff.PollingDelay) * time.Second
	for _, t := range p.targets {
		p.states[t.ID] = newTargetState(now, pollingDelay)
	}

	for _, t := range p.targets {
		t := t
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.pollLoop(ctx, t)
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatchLoop(ctx)
	}()

	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	return nil
}

// Stop cancels every loop and every dispatcher, waiting for settlement.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	select {
	case <-p.done:
	case <-ctx.Done():
	}

	var firstErr error
	for _, d := range p.dispatchers {
		if err := d.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Poller) pollingInterval() time.Duration {
	if p.eff.PollingInterval <= 0 {
		return time.Second
	}
	return time.Duration(p.eff.PollingInterval) * time.Second
}

func (p *Poller) pageSize() int64 {
	if p.eff.PageSize <= 0 {
		return pageSizeDefault
	}
	return int64(p.eff.PageSize)
}

func (p *Poller) taskCheckInterval() time.Duration {
	if p.eff.TaskCheckInterval <= 0 {
		return 0
	}
	return time.Duration(p.eff.TaskCheckInterval) * time.Second
}

// pollLoop runs target's polling loop until ctx is canceled, sleeping in
// 1-second ticks between iterations so cancellation latency stays bounded
// regardless of polling_interval (§5).
func (p *Poller) pollLoop(ctx context.Context, t config.Target) {
	interval := p.pollingInterval()
	elapsed := interval
	for {
		if elapsed >= interval {
			p.poll(ctx, t)
			elapsed = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
			elapsed += time.Second
		}
	}
}

// poll runs one polling cycle for t: query the activity window, enqueue
// every normalised event, and page through nextPageToken without
// sleeping in between (§4.6 step 5).
func (p *Poller) poll(ctx context.Context, t config.Target) {
	state := p.lookupState(t.ID)

	start := state.lastActivity
	end := time.Now().Add(-time.Duration(p.eff.PollingDelay) * time.Second)
	pageToken := ""

	sawAny := false
	for {
		resp, err := p.drive.QueryActivity(ctx, driveapi.ActivityQuery{
			AncestorID: t.ID,
			PageSize:   p.pageSize(),
			PageToken:  pageToken,
			Since:      start.UTC().Format(time.RFC3339Nano),
			Until:      end.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			p.logger.Warn("activity query failed, watermark preserved", "target", t.ID, "err", err)
			return
		}

		if len(resp.Activities) == 0 && !sawAny {
			now := time.Now()
			if state.dueForSilenceReport(now, p.taskCheckInterval()) {
				p.logger.Info("no activity", "target", t.ID, "poller", p.name)
			}
			if state.ReportHeartbeat(now, p.taskCheckInterval()) {
				p.logger.Debug("poller alive", "target", t.ID, "poller", p.name)
			}
			return
		}

		for _, raw := range resp.Activities {
			e, err := activity.FromRaw(raw)
			if err != nil {
				p.logger.Warn("failed to normalise activity", "target", t.ID, "err", err)
				continue
			}
			e.AncestorID = t.ID
			e.RootLabel = t.Label
			e.Poller = p.name
			p.queueMu.Lock()
			p.queue.Push(e)
			p.queueMu.Unlock()
			sawAny = true
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	state.lastActivity = end
}

func (p *Poller) lookupState(targetID string) *targetState {
	p.statesMu.Lock()
	defer p.statesMu.Unlock()
	return p.states[targetID]
}

// dispatchLoop drains the shared priority queue, enriching and fanning
// out each event to every dispatcher in declared order (§4.6's dispatch
// loop). An empty queue sleeps dispatch_interval*10 ticks of 100ms so
// cancellation latency stays bounded at 100ms regardless of
// dispatch_interval (§4.6).
func (p *Poller) dispatchLoop(ctx context.Context) {
	idleTicks := p.eff.DispatchInterval * 10
	if idleTicks <= 0 {
		idleTicks = 10
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		p.queueMu.Lock()
		e, ok := p.queue.Pop()
		p.queueMu.Unlock()

		if !ok {
			if !sleepTicks(ctx, idleTicks, 100*time.Millisecond) {
				return
			}
			continue
		}

		p.dispatchOne(ctx, e)
	}
}

func (p *Poller) dispatchOne(ctx context.Context, e *activity.ActivityEvent) {
	var ancestorID, rootLabel string
	for _, t := range p.targets {
		if t.ID == e.AncestorID {
			ancestorID, rootLabel = t.ID, t.Label
			break
		}
	}

	result := p.enrich(ctx, e, ancestorID, rootLabel, p.eff)
	if result.skip {
		return
	}

	for _, d := range p.dispatchers {
		if err := d.Dispatch(ctx, result.event); err != nil {
			p.logger.Error("dispatcher failed", "path", result.event.Path, "err", err)
		}
	}
}

// sleepTicks sleeps up to n*tick, checking ctx each tick; returns false
// if canceled mid-sleep.
func sleepTicks(ctx context.Context, n int, tick time.Duration) bool {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(tick):
		}
	}
	return true
}
