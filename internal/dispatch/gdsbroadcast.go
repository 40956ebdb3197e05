package dispatch

import (
	"log/slog"
	"path"
	"strings"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// gdsAllowedActions is the set of actions GDS-style broadcast
// dispatchers (GDSTool, Flaskfarmaider) act on; everything else in a
// bucket is logged and skipped (original_source's
// GDSBroadcastDispatcher.ALLOWED_ACTIONS).
var gdsAllowedActions = []activity.Action{
	activity.ActionCreate,
	activity.ActionMove,
	activity.ActionRename,
	activity.ActionRestore,
}

// gdsInfoExtensions are file suffixes broadcast as REFRESH instead of
// ADD (sidecar metadata files that don't need a fresh library entry of
// their own).
var gdsInfoExtensions = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// BroadcastTarget is one (path, mode) instruction to send to a GDS-style
// broadcast receiver.
type BroadcastTarget struct {
	Path string
	Mode string
}

// computeBroadcastTargets collapses one parent bucket into the ordered
// list of broadcast calls to make, mirroring
// GDSBroadcastDispatcher.buffered_dispatch exactly: deletes collapse to
// a single REMOVE_FOLDER when the parent had more than one delete total
// and at least one of them was a file, otherwise each deleted entry gets
// its own REMOVE_FILE/REMOVE_FOLDER; for each other allowed action the
// entries are ordered files first, then folders, then info files, and
// only the first entry of that combined list is broadcast (the rest are
// logged and skipped, since the receiver has no way to represent
// "N new siblings" in one call).
func computeBroadcastTargets(parent string, bucket map[activity.Action][]activity.FolderEntry, logger *slog.Logger) []BroadcastTarget {
	var targets []BroadcastTarget

	if deletes, ok := bucket[activity.ActionDelete]; ok {
		fileCount := 0
		for _, d := range deletes {
			if !d.IsFolder {
				fileCount++
			}
		}
		if len(deletes) > 1 && fileCount >= 1 {
			targets = append(targets, BroadcastTarget{Path: parent, Mode: "REMOVE_FOLDER"})
			for _, d := range deletes {
				logger.Debug("skipped broadcast entry", "path", path.Join(parent, d.Name), "reason", "multiple items")
			}
		} else {
			for _, d := range deletes {
				mode := "REMOVE_FOLDER"
				if !d.IsFolder {
					mode = "REMOVE_FILE"
				}
				targets = append(targets, BroadcastTarget{Path: path.Join(parent, d.Name), Mode: mode})
			}
		}
	}

	for _, action := range gdsAllowedActions {
		entries, ok := bucket[action]
		if !ok {
			continue
		}
		var files, folders, infoFiles []BroadcastTarget
		for _, e := range entries {
			target := path.Join(parent, e.Name)
			mode := "ADD"
			switch {
			case !e.IsFolder && gdsInfoExtensions[strings.ToLower(path.Ext(e.Name))]:
				mode = "REFRESH"
				infoFiles = append(infoFiles, BroadcastTarget{Path: target, Mode: mode})
			case e.IsFolder:
				folders = append(folders, BroadcastTarget{Path: target, Mode: mode})
			default:
				files = append(files, BroadcastTarget{Path: target, Mode: mode})
			}
		}
		combined := append(append(files, folders...), infoFiles...)
		for i, t := range combined {
			if i > 0 {
				logger.Debug("skipped broadcast entry", "path", t.Path, "reason", "multiple items")
				continue
			}
			targets = append(targets, t)
		}
	}

	for action, entries := range bucket {
		if action == activity.ActionDelete || isAllowedAction(action) {
			continue
		}
		for range entries {
			logger.Warn("no applicable action for broadcast", "action", action, "parent", parent)
		}
	}

	return targets
}

func isAllowedAction(a activity.Action) bool {
	for _, allowed := range gdsAllowedActions {
		if a == allowed {
			return true
		}
	}
	return false
}
