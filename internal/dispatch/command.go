package dispatch

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/shlex"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// Command runs an external program once per event, appending
// action, "directory"|"file", the mapped path, and (for a move/rename)
// the mapped removed_path as positional arguments
// (original_source's CommandDispatcher.dispatch).
type Command struct {
	NopLifecycle
	Base

	argv           []string
	waitForProcess bool
	dropDuringRun  bool
	timeout        time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	watching map[string]struct{}
}

// NewCommand builds a Command dispatcher. command is shlex-split once at
// construction time; the per-event arguments are appended to that fixed
// prefix on every dispatch.
func NewCommand(command string, waitForProcess, dropDuringRun bool, timeoutSeconds int, mappings []string, logger *slog.Logger) (*Command, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 300
	}
	return &Command{
		Base:           Base{Mappings: parseMappings(mappings)},
		argv:           argv,
		waitForProcess: waitForProcess,
		dropDuringRun:  dropDuringRun,
		timeout:        time.Duration(timeoutSeconds) * time.Second,
		logger:         logger,
		watching:       make(map[string]struct{}),
	}, nil
}

// Dispatch spawns the configured command for e.
func (c *Command) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	if c.dropDuringRun {
		c.mu.Lock()
		busy := len(c.watching) > 0
		c.mu.Unlock()
		if busy {
			c.logger.Warn("command: already running, dropping event", "path", e.Path)
			return nil
		}
	}

	args := make([]string, len(c.argv), len(c.argv)+4)
	copy(args, c.argv)
	kind := "file"
	if e.IsFolder {
		kind = "directory"
	}
	args = append(args, string(e.Action), kind, c.MapPath(e.Path))
	if e.RemovedPath != "" {
		args = append(args, c.MapPath(e.RemovedPath))
	}
	c.logger.Info("command: launching", "args", args)

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}

	if c.waitForProcess {
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case err := <-done:
			if err != nil {
				c.logger.Error("command: process failed", "path", e.Path, "err", err)
			}
		case <-time.After(c.timeout):
			c.logger.Warn("command: wait timed out", "path", e.Path)
			_ = cmd.Process.Kill()
		}
		return nil
	}

	c.mu.Lock()
	c.watching[e.Path] = struct{}{}
	c.mu.Unlock()
	go c.watch(cmd, e.Path)
	return nil
}

// watch waits for a detached process to exit or time out, then clears
// its path from the in-flight set (mirrors watch_process +
// process_watchers.discard in the original).
func (c *Command) watch(cmd *exec.Cmd, path string) {
	defer func() {
		c.mu.Lock()
		delete(c.watching, path)
		c.mu.Unlock()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			c.logger.Error("command: detached process failed", "path", path, "err", err)
		}
	case <-time.After(c.timeout):
		c.logger.Warn("command: detached process timed out", "path", path)
		_ = cmd.Process.Kill()
	}
}
