package dispatch

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// Rclone forgets and refreshes an rclone mount's VFS metadata cache for
// the affected path (original_source's RcloneDispatcher/Rclone.refresh).
type Rclone struct {
	NopLifecycle
	Base
	client *receiver.Rclone
	logger *slog.Logger
}

// NewRclone builds an Rclone dispatcher against an RC base URL (may
// carry a "#remote" fragment and basic-auth userinfo, per receiver.Rclone).
func NewRclone(session *httpsession.Session, rcURL string, mappings []string, logger *slog.Logger) (*Rclone, error) {
	client, err := receiver.NewRclone(session, rcURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rclone{Base: Base{Mappings: parseMappings(mappings)}, client: client, logger: logger}, nil
}

// Dispatch forgets the deleted path outright on a delete action;
// otherwise it forgets and walk-up refreshes the affected folder (and,
// for a move/rename, the vacated source folder too).
func (r *Rclone) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	remotePath := r.MapPath(e.Path)
	if e.Action == activity.ActionDelete {
		_, err := r.client.Forget(ctx, remotePath, e.IsFolder)
		return err
	}

	if e.RemovedPath != "" {
		removedRemote := r.MapPath(e.RemovedPath)
		if _, err := r.client.Forget(ctx, removedRemote, e.IsFolder); err != nil {
			r.logger.Warn("rclone forget (removed path) failed", "path", removedRemote, "err", err)
		}
	}

	target := remotePath
	if !e.IsFolder {
		target = path.Dir(remotePath)
	}
	if _, err := r.client.Forget(ctx, target, true); err != nil {
		r.logger.Warn("rclone forget failed", "path", target, "err", err)
	}
	return r.refresh(ctx, target, false)
}

// refresh walks up target's ancestor chain refreshing each one until it
// finds a parent rclone already has metadata for ("ok"), then performs
// the final refresh of target itself. An "error" entry in rclone's result
// ends refresh at once without the final refresh; reaching the filesystem
// root without an "ok" ancestor logs an error and also returns nil
// without the final refresh.
func (r *Rclone) refresh(ctx context.Context, target string, recursive bool) error {
	parent := path.Dir(target)
	for {
		resp, err := r.client.Refresh(ctx, dirArg(parent), false)
		if err != nil {
			return err
		}
		result, _ := resp.JSON["result"].(map[string]any)
		if status, _ := result[parent].(string); strings.EqualFold(status, "ok") {
			break
		}
		if _, hasError := result["error"]; hasError {
			return nil
		}
		if parent == "/" || parent == path.Dir(parent) {
			r.logger.Error("rclone refresh reached filesystem root without an ok ancestor", "target", target)
			return nil
		}
		parent = path.Dir(parent)
	}
	_, err := r.client.Refresh(ctx, target, recursive)
	return err
}

func dirArg(p string) string {
	if p == "/" {
		return ""
	}
	return p
}
