package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

func TestCommand_Dispatch_WaitsAndWritesArgsFile(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "record.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > \""+outFile+"\"\n"), 0o755))

	c, err := NewCommand(script, true, false, 5, nil, nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{Action: activity.ActionCreate, Path: "/movies/Movie.mkv", IsFolder: false}
	require.NoError(t, c.Dispatch(context.Background(), e))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "create file /movies/Movie.mkv")
}

func TestCommand_Dispatch_AppendsRemovedPathOnMove(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "record.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$@\" > \""+outFile+"\"\n"), 0o755))

	c, err := NewCommand(script, true, false, 5, nil, nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{
		Action:      activity.ActionMove,
		Path:        "/movies/new/Movie.mkv",
		RemovedPath: "/movies/old/Movie.mkv",
	}
	require.NoError(t, c.Dispatch(context.Background(), e))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "move file /movies/new/Movie.mkv /movies/old/Movie.mkv")
}

func TestCommand_DropDuringProcess_SkipsWhileBusy(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "sleep.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 0.3\n"), 0o755))

	c, err := NewCommand(script, false, true, 5, nil, nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{Action: activity.ActionCreate, Path: "/a", IsFolder: true}
	require.NoError(t, c.Dispatch(context.Background(), e))

	c.mu.Lock()
	busy := len(c.watching) > 0
	c.mu.Unlock()
	require.True(t, busy)

	require.NoError(t, c.Dispatch(context.Background(), e))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		empty := len(c.watching) == 0
		c.mu.Unlock()
		if empty {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	c.mu.Lock()
	assert.Empty(t, c.watching)
	c.mu.Unlock()
}
