// Package activity holds the enriched event type that flows from the
// pollers through the dispatch fan-out, along with the priority queue
// that orders events by their provider-reported timestamp.
package activity

import (
	"bytes"
	"encoding/json"
	"time"
)

// Action names a Drive Activity primaryActionDetail kind.
type Action string

const (
	ActionCreate             Action = "create"
	ActionEdit               Action = "edit"
	ActionMove               Action = "move"
	ActionRename             Action = "rename"
	ActionDelete             Action = "delete"
	ActionRestore            Action = "restore"
	ActionPermissionChange   Action = "permissionChange"
	ActionComment            Action = "comment"
	ActionDlpChange          Action = "dlpChange"
	ActionReference          Action = "reference"
	ActionSettingsChange     Action = "settingsChange"
	ActionAppliedLabelChange Action = "appliedLabelChange"
	ActionUnknown            Action = "unknown"
)

// DefaultActions is the full set of recognised actions, used when a poller
// config leaves `actions` empty.
func DefaultActions() []Action {
	return []Action{
		ActionCreate, ActionEdit, ActionMove, ActionRename, ActionDelete,
		ActionRestore, ActionPermissionChange, ActionComment, ActionDlpChange,
		ActionReference, ActionSettingsChange, ActionAppliedLabelChange,
	}
}

const folderMimeType = "application/vnd.google-apps.folder"
const shortcutMimeType = "application/vnd.google-apps.shortcut"

// TargetTuple identifies the item an activity acted on.
type TargetTuple struct {
	Title    string
	ItemName string // e.g. "items/abc123"
	MimeType string
}

// IsFolder reports whether the tuple's mime type marks a folder or shortcut.
func (t TargetTuple) IsFolder() bool {
	return t.MimeType == folderMimeType || t.MimeType == shortcutMimeType
}

// ParentRef is the immediate parent of a resolved path.
type ParentRef struct {
	Name string
	ID   string
}

// MoveDetail is the action_detail payload for a "move" action: the source
// parent the item was moved out of.
type MoveDetail struct {
	Target TargetTuple
}

// ActivityEvent is the enriched unit flowing through the pipeline. See
// SPEC_FULL.md §3 for field semantics.
type ActivityEvent struct {
	Raw json.RawMessage

	Timestamp     time.Time
	TimestampText string

	Target       TargetTuple
	Action       Action
	ActionDetail any // string | MoveDetail | []string | nil, action-dependent

	AncestorID string
	RootLabel  string

	Path        string
	RemovedPath string
	Parent      ParentRef

	IsFolder bool
	Link     string
	Size     int64

	Poller string
}

// Priority is the queue ordering key: Timestamp as fractional Unix seconds.
func (e *ActivityEvent) Priority() float64 {
	return float64(e.Timestamp.UnixNano()) / 1e9
}

// Equal implements the spec's raw-payload equality: two events are equal
// iff their raw provider payloads are byte-equal.
func (e *ActivityEvent) Equal(other *ActivityEvent) bool {
	if e == nil || other == nil {
		return e == other
	}
	return bytes.Equal(e.Raw, other.Raw)
}

// Clone returns a shallow copy whose top-level fields can be mutated
// without affecting e.
func (e *ActivityEvent) Clone() *ActivityEvent {
	cp := *e
	return &cp
}
