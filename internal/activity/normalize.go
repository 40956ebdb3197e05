package activity

import (
	"encoding/json"
	"fmt"
	"time"

	driveactivity "google.golang.org/api/driveactivity/v2"
)

// FromRaw normalises a single Drive Activity API record into an
// ActivityEvent. AncestorID, RootLabel, Path, RemovedPath, IsFolder and
// Link are left zero; they are filled in by the poller's dispatch loop at
// enrichment time (SPEC_FULL.md §9 — is_folder/path are never set by the
// polling stage).
func FromRaw(raw *driveactivity.DriveActivity) (*ActivityEvent, error) {
	ts, err := parseTimestamp(raw)
	if err != nil {
		return nil, fmt.Errorf("parse activity timestamp: %w", err)
	}

	target := TargetTuple{Title: "unknown"}
	if len(raw.Targets) > 0 {
		target = targetFromTarget(raw.Targets[0])
	}

	action, detail := actionInfo(raw.PrimaryActionDetail)

	rawBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal raw activity: %w", err)
	}

	return &ActivityEvent{
		Raw:          rawBytes,
		Timestamp:    ts,
		Target:       target,
		Action:       action,
		ActionDetail: detail,
	}, nil
}

func parseTimestamp(raw *driveactivity.DriveActivity) (time.Time, error) {
	s := raw.Timestamp
	if s == "" && raw.TimeRange != nil {
		s = raw.TimeRange.EndTime
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("activity has neither timestamp nor timeRange.endTime")
	}
	return time.Parse(time.RFC3339Nano, s)
}

// actionInfo mirrors the original get_action_info: exactly one field of
// ActionDetail is populated by the provider; we switch on which.
func actionInfo(ad *driveactivity.ActionDetail) (Action, any) {
	if ad == nil {
		return ActionUnknown, nil
	}
	switch {
	case ad.Create != nil:
		return ActionCreate, createSubtype(ad.Create)
	case ad.Edit != nil:
		return ActionEdit, nil
	case ad.Move != nil && len(ad.Move.RemovedParents) > 0:
		return ActionMove, MoveDetail{Target: targetFromReference(ad.Move.RemovedParents[0])}
	case ad.Move != nil:
		return ActionMove, nil
	case ad.Rename != nil && ad.Rename.OldTitle != "":
		return ActionRename, ad.Rename.OldTitle
	case ad.Delete != nil:
		return ActionDelete, ad.Delete.Type
	case ad.Restore != nil:
		return ActionRestore, ad.Restore.Type
	case ad.PermissionChange != nil:
		return ActionPermissionChange, permissionRoles(ad.PermissionChange.AddedPermissions)
	case ad.Comment != nil:
		return ActionComment, commentSubtype(ad.Comment)
	case ad.DlpChange != nil:
		return ActionDlpChange, ad.DlpChange.Type
	case ad.Reference != nil:
		return ActionReference, ad.Reference.Type
	case ad.SettingsChange != nil && len(ad.SettingsChange.RestrictionChanges) > 0:
		return ActionSettingsChange, ad.SettingsChange.RestrictionChanges[0].NewRestriction
	case ad.AppliedLabelChange != nil:
		return ActionAppliedLabelChange, nil
	default:
		return ActionUnknown, nil
	}
}

func createSubtype(c *driveactivity.Create) string {
	switch {
	case c.New != nil:
		return "new"
	case c.Upload != nil:
		return "upload"
	case c.Copy != nil:
		return "copy"
	default:
		return "unknown"
	}
}

func commentSubtype(c *driveactivity.Comment) string {
	switch {
	case c.Post != nil:
		return c.Post.Subtype
	case c.Assignment != nil:
		return c.Assignment.Subtype
	case c.Suggestion != nil:
		return c.Suggestion.Subtype
	default:
		return ""
	}
}

func permissionRoles(perms []*driveactivity.Permission) []string {
	roles := make([]string, 0, len(perms))
	for _, p := range perms {
		if p == nil {
			continue
		}
		roles = append(roles, p.Role)
	}
	return roles
}

func targetFromTarget(t *driveactivity.Target) TargetTuple {
	switch {
	case t.DriveItem != nil:
		return tupleFromDriveItem(t.DriveItem)
	case t.Drive != nil:
		title := t.Drive.Title
		if title == "" {
			title = "unknown"
		}
		return TargetTuple{Title: title, ItemName: t.Drive.Name}
	case t.FileComment != nil && t.FileComment.Parent != nil:
		return tupleFromDriveItem(t.FileComment.Parent)
	default:
		return TargetTuple{Title: "unknown"}
	}
}

func targetFromReference(t *driveactivity.TargetReference) TargetTuple {
	switch {
	case t.DriveItem != nil:
		return tupleFromDriveItem(t.DriveItem)
	case t.Drive != nil:
		title := t.Drive.Title
		if title == "" {
			title = "unknown"
		}
		return TargetTuple{Title: title, ItemName: t.Drive.Name}
	default:
		return TargetTuple{Title: "unknown"}
	}
}

func tupleFromDriveItem(d *driveactivity.DriveItem) TargetTuple {
	title := d.Title
	if title == "" {
		title = "unknown"
	}
	return TargetTuple{Title: title, ItemName: d.Name, MimeType: d.MimeType}
}
