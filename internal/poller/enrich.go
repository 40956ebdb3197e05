package poller

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/config"
)

const folderLinkBase = "https://drive.google.com/drive/folders/"

// compiledPatterns turns a poller's case-insensitive glob-like regex
// configuration into ready-to-match expressions, skipping any pattern
// that fails to compile (a malformed settings.yaml entry should not
// crash the poller — it just never matches).
func compiledPatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// passesPatternFilter applies §4.6's keep-only-if-matched-and-not-ignored
// rule to one path value, returning "" when it should be cleared.
func passesPatternFilter(s string, patterns, ignorePatterns []*regexp.Regexp) string {
	if s == "" {
		return s
	}
	if len(patterns) > 0 && !matchesAny(patterns, s) {
		return ""
	}
	if matchesAny(ignorePatterns, s) {
		return ""
	}
	return s
}

func itemIDFromName(name string) string {
	return strings.TrimPrefix(name, "items/")
}

// enrichResult carries the dequeued filtering/skip decision alongside
// the (possibly reconciled) event.
type enrichResult struct {
	event *activity.ActivityEvent
	skip  bool
}

// enrich implements the dispatch loop's per-event pipeline (§4.6): action
// and folder filtering, path resolution under the concurrency gate, link
// synthesis, move/rename removed_path derivation, pattern filtering, and
// the path/removed_path reconciliation truth table.
func (p *Poller) enrich(ctx context.Context, e *activity.ActivityEvent, ancestorID, rootLabel string, eff config.GlobalDefaults) enrichResult {
	if !p.actionAllowed(e.Action) {
		return enrichResult{skip: true}
	}

	e.IsFolder = e.Target.IsFolder()
	if e.IsFolder && eff.IgnoreFolder {
		return enrichResult{skip: true}
	}

	if e.Action == activity.ActionDelete {
		detail, _ := e.ActionDetail.(string)
		if detail != "TRASH" {
			return enrichResult{skip: true}
		}
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return enrichResult{skip: true}
	}
	resolved, err := p.resolver.Resolve(ctx, itemIDFromName(e.Target.ItemName), ancestorID, rootLabel)
	p.sem.Release(1)

	if err != nil {
		e.Path = "/unknown/" + e.Target.Title
		p.logger.Warn("path resolution failed", "item", e.Target.ItemName, "err", err)
	} else {
		e.Path = resolved.Path
		e.Parent = activity.ParentRef{Name: resolved.Parent.Name, ID: resolved.Parent.ID}
		e.Size = resolved.SizeBytes
		e.Link = resolved.WebViewLink
	}

	if e.Link == "" {
		folderID := e.Parent.ID
		if e.IsFolder {
			folderID = itemIDFromName(e.Target.ItemName)
		}
		if folderID != "" {
			e.Link = folderLinkBase + folderID
		}
	}

	switch {
	case e.Action == activity.ActionMove:
		if md, ok := e.ActionDetail.(activity.MoveDetail); ok && md.Target.ItemName != "" {
			srcParent, err := p.resolver.Resolve(ctx, itemIDFromName(md.Target.ItemName), ancestorID, rootLabel)
			if err == nil {
				e.RemovedPath = path.Join(srcParent.Path, e.Target.Title)
			}
		}
	case e.Action == activity.ActionRename:
		if oldTitle, ok := e.ActionDetail.(string); ok && oldTitle != "" && e.Path != "" {
			e.RemovedPath = path.Join(path.Dir(e.Path), oldTitle)
		}
	}

	e.TimestampText = e.Timestamp.Local().Format(time.RFC3339)

	patterns := compiledPatterns(eff.Patterns)
	ignorePatterns := compiledPatterns(eff.IgnorePatterns)
	e.Path = passesPatternFilter(e.Path, patterns, ignorePatterns)
	e.RemovedPath = passesPatternFilter(e.RemovedPath, patterns, ignorePatterns)

	return enrichResult{event: reconcile(e), skip: e.Path == "" && e.RemovedPath == ""}
}

// reconcile applies §4.6's (path, removed_path) truth table: a present
// path always wins as-is; a path-less move/rename with only a
// removed_path coerces into a synthetic delete of that removed path;
// both absent drops the event (the caller checks skip).
func reconcile(e *activity.ActivityEvent) *activity.ActivityEvent {
	if e.Path != "" {
		return e
	}
	if e.RemovedPath == "" {
		return e
	}
	e.Path = e.RemovedPath
	e.RemovedPath = ""
	e.Action = activity.ActionDelete
	e.ActionDetail = fmt.Sprintf("synthesised from %s outside pattern scope", e.Target.Title)
	folderID := e.Parent.ID
	if folderID != "" {
		e.Link = folderLinkBase + folderID
	}
	return e
}

func (p *Poller) actionAllowed(a activity.Action) bool {
	if len(p.allowedActions) == 0 {
		return true
	}
	return p.allowedActions[a]
}
