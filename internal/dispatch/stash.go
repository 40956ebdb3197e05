package dispatch

import (
	"context"
	"log/slog"
	"path"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// Stash triggers a path-scoped metadata scan once per flush, covering
// every item buffered under one parent. Like Jellyfin, this dispatcher
// supplements the original system (no original_source analogue) but
// follows the same buffered-dispatcher idiom, and unlike Jellyfin it can
// scope the scan to the affected paths since Stash's GraphQL mutation
// takes an explicit path list.
type Stash struct {
	*BufferedBase
	client *receiver.Stash
	logger *slog.Logger
}

// NewStash builds a Stash dispatcher.
func NewStash(session *httpsession.Session, baseURL, apikey string, mappings []string, bufferInterval int, logger *slog.Logger) (*Stash, error) {
	client, err := receiver.NewStash(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	base.Base = Base{Mappings: parseMappings(mappings)}
	return &Stash{BufferedBase: base, client: client, logger: logger}, nil
}

// Start launches the flush loop.
func (s *Stash) Start(ctx context.Context) error {
	go s.Run(ctx, s)
	return nil
}

// FlushBucket implements BucketFlusher.
func (s *Stash) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	seen := make(map[string]struct{})
	var paths []string
	addPath := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for action, entries := range bucket {
		if action == activity.ActionDelete {
			continue
		}
		for _, e := range entries {
			addPath(s.MapPath(path.Join(parent, e.Name)))
		}
	}
	if len(paths) == 0 {
		return
	}

	if _, err := s.client.Scan(ctx, paths); err != nil {
		s.logger.Warn("stash scan failed", "paths", paths, "err", err)
	}
}
