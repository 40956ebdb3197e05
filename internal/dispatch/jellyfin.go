package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// jellyfinMinScanGap debounces back-to-back library scans triggered by
// several parent buckets draining in the same flush pass, since
// Jellyfin's refresh API has no path scoping to begin with.
const jellyfinMinScanGap = time.Second

// Jellyfin triggers a library-wide rescan once per flush, coalescing
// whatever accumulated across all buffered parents. This dispatcher has
// no original_source analogue (the halfaider system never targeted
// Jellyfin); it's built in the same buffered-dispatcher idiom as Kavita,
// reusing BufferedBase and receiver.Jellyfin.
type Jellyfin struct {
	*BufferedBase
	client *receiver.Jellyfin
	logger *slog.Logger

	mu       sync.Mutex
	lastScan time.Time
}

// NewJellyfin builds a Jellyfin dispatcher.
func NewJellyfin(session *httpsession.Session, baseURL, apikey string, mappings []string, bufferInterval int, logger *slog.Logger) (*Jellyfin, error) {
	client, err := receiver.NewJellyfin(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	base.Base = Base{Mappings: parseMappings(mappings)}
	return &Jellyfin{BufferedBase: base, client: client, logger: logger}, nil
}

// Start launches the flush loop.
func (j *Jellyfin) Start(ctx context.Context) error {
	go j.Run(ctx, j)
	return nil
}

// FlushBucket implements BucketFlusher. parent and bucket are ignored
// beyond noting that something changed; Jellyfin rescans its whole
// library regardless of which path triggered it.
func (j *Jellyfin) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	j.mu.Lock()
	if time.Since(j.lastScan) < jellyfinMinScanGap {
		j.mu.Unlock()
		return
	}
	j.lastScan = time.Now()
	j.mu.Unlock()

	if _, err := j.client.Scan(ctx); err != nil {
		j.logger.Warn("jellyfin scan failed", "err", err)
	}
}
