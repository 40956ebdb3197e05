// Package dispatch implements the Dispatcher interface and its twelve
// concrete receivers (SPEC_FULL.md §4.3-§4.5), grounded throughout on
// original_source/gd_poller/dispatchers.py.
package dispatch

import (
	"context"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/pathmap"
)

// Dispatcher is the uniform interface every receiver implementation
// satisfies: a lifecycle (Start/Stop) plus per-event delivery.
// Immediate dispatchers deliver synchronously inside Dispatch; buffered
// dispatchers queue into a FolderBuffer and flush on their own loop
// started by Start (§4.3).
type Dispatcher interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Dispatch(ctx context.Context, e *activity.ActivityEvent) error
}

// Base holds the path-mapping rules shared by every dispatcher kind.
type Base struct {
	Mappings []pathmap.Mapping
}

// MapPath rewrites p through the dispatcher's configured source:target
// mapping rules, or returns p unchanged if none are configured (§4.3).
func (b *Base) MapPath(p string) string {
	if len(b.Mappings) == 0 {
		return p
	}
	return pathmap.Apply(p, b.Mappings)
}

// NopLifecycle implements the Start/Stop half of Dispatcher for
// dispatchers with no background loop (everything except the buffered
// ones).
type NopLifecycle struct{}

func (NopLifecycle) Start(ctx context.Context) error { return nil }
func (NopLifecycle) Stop(ctx context.Context) error  { return nil }
