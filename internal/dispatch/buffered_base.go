package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// BucketFlusher is implemented by each buffered dispatcher kind to
// consume one coalesced parent bucket (SPEC_FULL.md §4.4's
// buffered_dispatch hook).
type BucketFlusher interface {
	FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry)
}

// BufferedBase implements the Dispatcher interface's queueing half:
// Dispatch enqueues into a FolderBuffer (plus a synthetic "delete" entry
// when the event carries a removed_path, i.e. a move/rename), and Start
// runs a flush loop that, once per buffer interval, drains whatever
// accumulated and hands each parent bucket to a BucketFlusher. The loop
// checks for cancellation every second so Stop's latency is bounded
// regardless of how long BufferInterval is (§5's ≤1s cancellation
// bound), mirroring on_start's `for _ in range(buffer_interval): ...
// asyncio.sleep(1)` tick-chunked sleep.
type BufferedBase struct {
	Base

	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	buffer *activity.FolderBuffer

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBufferedBase builds a BufferedBase with the given flush interval.
func NewBufferedBase(interval time.Duration, logger *slog.Logger) *BufferedBase {
	if logger == nil {
		logger = slog.Default()
	}
	return &BufferedBase{
		interval: interval,
		logger:   logger,
		buffer:   activity.NewFolderBuffer(),
	}
}

// Dispatch enqueues e (and its removed_path, if any) into the buffer.
func (b *BufferedBase) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.RemovedPath != "" {
		b.buffer.Put(e.RemovedPath, activity.ActionDelete, e.IsFolder)
	}
	b.buffer.Put(e.Path, e.Action, e.IsFolder)
	return nil
}

// Run starts the flush loop against flusher, blocking until ctx is
// canceled or Stop is called. Callers normally invoke this from their
// Start method via `go base.Run(ctx, self)`.
func (b *BufferedBase) Run(ctx context.Context, flusher BucketFlusher) {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	defer close(b.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	elapsed := b.interval
	for {
		if elapsed >= b.interval {
			b.drain(ctx, flusher)
			elapsed = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed += time.Second
		}
	}
}

func (b *BufferedBase) drain(ctx context.Context, flusher BucketFlusher) {
	b.mu.Lock()
	n := b.buffer.Len()
	b.mu.Unlock()

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		b.mu.Lock()
		parent, bucket, ok := b.buffer.Pop()
		b.mu.Unlock()
		if !ok {
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("buffered dispatcher panic", "recover", r, "parent", parent)
				}
			}()
			flusher.FlushBucket(ctx, parent, bucket)
		}()
	}
}

// Stop cancels the flush loop and waits for it to exit.
func (b *BufferedBase) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
