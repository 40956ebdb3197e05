package dispatch

import (
	"context"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// MultiServer fans one buffered flush out to any number of rclone,
// plex, and buffered-folder (kavita/jellyfin/stash) sub-dispatchers in
// parallel (generalizing original_source's MultiPlexRcloneDispatcher,
// which only ever paired one rclone group with one plex group, to the
// full SPEC_FULL.md roster of rclone/plex/kavita/jellyfin/stash
// receivers).
//
// Rclone sub-dispatchers get the delete-collapse treatment (a single
// directory delete when more than one entry was deleted from the same
// parent and at least one of them is a file, otherwise one delete per
// named entry) followed by a refresh of
// the parent itself, exactly as MultiPlexRcloneDispatcher.buffered_dispatch
// does. Plex sub-dispatchers get one synthetic "create" event per
// distinct folder target: the parent itself if any plain file was
// touched, otherwise each touched subfolder individually — Plex scans a
// folder per call, so the bucket has to collapse before it gets there.
// Kavita/jellyfin/stash sub-dispatchers are themselves buffered
// dispatchers with their own per-parent folder synthesis, so they
// receive the bucket's entries as-is, one Dispatch call per original
// entry, and let their own FlushBucket do the collapsing.
type MultiServer struct {
	*BufferedBase
	rclones         []Dispatcher
	plexFolders     []Dispatcher
	bufferedFolders []Dispatcher
	logger          *slog.Logger
}

// NewMultiServer builds a MultiServer dispatcher from already-constructed
// sub-dispatchers. rclones receive the delete+refresh treatment;
// plexFolders receive the collapsed folder-target treatment;
// bufferedFolders receive every bucket entry forwarded as-is.
func NewMultiServer(rclones, plexFolders, bufferedFolders []Dispatcher, bufferInterval int, logger *slog.Logger) *MultiServer {
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	return &MultiServer{BufferedBase: base, rclones: rclones, plexFolders: plexFolders, bufferedFolders: bufferedFolders, logger: logger}
}

func (m *MultiServer) allSubDispatchers() []Dispatcher {
	all := append([]Dispatcher{}, m.rclones...)
	all = append(all, m.plexFolders...)
	all = append(all, m.bufferedFolders...)
	return all
}

// Start launches the flush loop, and the lifecycle of every
// sub-dispatcher that has its own (e.g. Kavita's own buffered loop).
func (m *MultiServer) Start(ctx context.Context) error {
	for _, d := range m.allSubDispatchers() {
		if err := d.Start(ctx); err != nil {
			return err
		}
	}
	go m.Run(ctx, m)
	return nil
}

// Stop stops the flush loop and every sub-dispatcher.
func (m *MultiServer) Stop(ctx context.Context) error {
	err := m.BufferedBase.Stop(ctx)
	for _, d := range m.allSubDispatchers() {
		if stopErr := d.Stop(ctx); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// FlushBucket implements BucketFlusher.
func (m *MultiServer) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	g, gctx := errgroup.WithContext(ctx)

	if len(m.rclones) > 0 {
		deleteTargets := deleteTargetsFor(parent, bucket[activity.ActionDelete])
		for _, d := range m.rclones {
			d := d
			g.Go(func() error {
				for _, target := range deleteTargets {
					if err := d.Dispatch(gctx, &activity.ActivityEvent{Action: activity.ActionDelete, Path: target, IsFolder: true}); err != nil {
						m.logger.Warn("multiserver: rclone delete dispatch failed", "path", target, "err", err)
					}
				}
				if err := d.Dispatch(gctx, &activity.ActivityEvent{Action: activity.ActionCreate, Path: parent, IsFolder: true}); err != nil {
					m.logger.Warn("multiserver: rclone refresh dispatch failed", "path", parent, "err", err)
				}
				return nil
			})
		}
	}

	if len(m.plexFolders) > 0 {
		folderTargets := folderTargetsFor(parent, bucket)
		for _, d := range m.plexFolders {
			d := d
			g.Go(func() error {
				for _, target := range folderTargets {
					if err := d.Dispatch(gctx, &activity.ActivityEvent{Action: activity.ActionCreate, Path: target, IsFolder: true}); err != nil {
						m.logger.Warn("multiserver: plex folder dispatch failed", "path", target, "err", err)
					}
				}
				return nil
			})
		}
	}

	if len(m.bufferedFolders) > 0 {
		for _, d := range m.bufferedFolders {
			d := d
			g.Go(func() error {
				for action, entries := range bucket {
					for _, e := range entries {
						target := path.Join(parent, e.Name)
						if err := d.Dispatch(gctx, &activity.ActivityEvent{Action: action, Path: target, IsFolder: e.IsFolder}); err != nil {
							m.logger.Warn("multiserver: buffered folder dispatch failed", "path", target, "err", err)
						}
					}
				}
				return nil
			})
		}
	}

	_ = g.Wait()
}

// deleteTargetsFor collapses a delete bucket the same way
// MultiPlexRcloneDispatcher does: more than one delete total, with at
// least one of them a file, collapses to a single parent-directory
// delete; otherwise each entry is deleted individually.
func deleteTargetsFor(parent string, deletes []activity.FolderEntry) []string {
	if len(deletes) == 0 {
		return nil
	}
	fileCount := 0
	for _, d := range deletes {
		if !d.IsFolder {
			fileCount++
		}
	}
	if len(deletes) > 1 && fileCount >= 1 {
		return []string{parent}
	}
	targets := make([]string, 0, len(deletes))
	for _, d := range deletes {
		targets = append(targets, path.Join(parent, d.Name))
	}
	return targets
}

// folderTargetsFor computes the set of folders to rescan across every
// non-delete entry in bucket: the parent itself if any plain file is
// present, otherwise each distinct touched subfolder.
func folderTargetsFor(parent string, bucket map[activity.Action][]activity.FolderEntry) []string {
	hasFile := false
	var names []string
	for action, entries := range bucket {
		if action == activity.ActionDelete {
			continue
		}
		for _, e := range entries {
			names = append(names, e.Name)
			if !e.IsFolder {
				hasFile = true
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	if hasFile {
		return []string{parent}
	}
	targets := make([]string, 0, len(names))
	for _, n := range names {
		targets = append(targets, path.Join(parent, n))
	}
	return targets
}
