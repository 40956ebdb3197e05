package dispatch

import (
	"context"
	"log/slog"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// Dummy just logs every event it receives; useful for dry-running a
// poller's configuration (original_source's DummyDispatcher).
type Dummy struct {
	NopLifecycle
	Base
	logger *slog.Logger
}

// NewDummy builds a Dummy dispatcher.
func NewDummy(logger *slog.Logger, mappings []string) *Dummy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dummy{Base: Base{Mappings: parseMappings(mappings)}, logger: logger}
}

// Dispatch logs e at info level.
func (d *Dummy) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	d.logger.Info("dummy dispatch",
		"action", e.Action,
		"path", d.MapPath(e.Path),
		"is_folder", e.IsFolder,
		"poller", e.Poller,
	)
	return nil
}
