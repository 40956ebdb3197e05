package dispatch

import (
	"context"
	"log/slog"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// GDSTool broadcasts coalesced ADD/REFRESH/REMOVE instructions to
// Flaskfarm's gds_tool plugin (original_source's GDSToolDispatcher).
type GDSTool struct {
	*BufferedBase
	client *receiver.GDSTool
	logger *slog.Logger
}

// NewGDSTool builds a GDSTool dispatcher.
func NewGDSTool(session *httpsession.Session, baseURL, apikey string, mappings []string, bufferInterval int, logger *slog.Logger) (*GDSTool, error) {
	client, err := receiver.NewGDSTool(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	base.Base = Base{Mappings: parseMappings(mappings)}
	return &GDSTool{BufferedBase: base, client: client, logger: logger}, nil
}

// Start launches the flush loop.
func (g *GDSTool) Start(ctx context.Context) error {
	go g.Run(ctx, g)
	return nil
}

// FlushBucket implements BucketFlusher.
func (g *GDSTool) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	for _, t := range computeBroadcastTargets(parent, bucket, g.logger) {
		if _, err := g.client.Broadcast(ctx, g.MapPath(t.Path), t.Mode); err != nil {
			g.logger.Warn("gds_tool broadcast failed", "path", t.Path, "mode", t.Mode, "err", err)
		}
	}
}

// Flaskfarmaider broadcasts the same coalesced instructions to a
// standalone flaskfarmaider bot (original_source's
// FlaskfarmaiderDispatcher).
type Flaskfarmaider struct {
	*BufferedBase
	client *receiver.Flaskfarmaider
	logger *slog.Logger
}

// NewFlaskfarmaider builds a Flaskfarmaider dispatcher.
func NewFlaskfarmaider(session *httpsession.Session, baseURL, apikey string, mappings []string, bufferInterval int, logger *slog.Logger) (*Flaskfarmaider, error) {
	client, err := receiver.NewFlaskfarmaider(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	base.Base = Base{Mappings: parseMappings(mappings)}
	return &Flaskfarmaider{BufferedBase: base, client: client, logger: logger}, nil
}

// Start launches the flush loop.
func (f *Flaskfarmaider) Start(ctx context.Context) error {
	go f.Run(ctx, f)
	return nil
}

// FlushBucket implements BucketFlusher.
func (f *Flaskfarmaider) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	for _, t := range computeBroadcastTargets(parent, bucket, f.logger) {
		if _, err := f.client.Broadcast(ctx, f.MapPath(t.Path), t.Mode); err != nil {
			f.logger.Warn("flaskfarmaider broadcast failed", "path", t.Path, "mode", t.Mode, "err", err)
		}
	}
}
