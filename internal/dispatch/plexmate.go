package dispatch

import (
	"context"
	"path"
	"strings"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// Plexmate triggers a plex_mate scan immediately per event, rather than
// buffering (original_source's PlexmateDispatcher.dispatch): the scan
// mode is REFRESH for info-file sidecars (.json/.yaml/.yml), otherwise
// REMOVE_FILE/REMOVE_FOLDER on delete (by is_folder) or ADD for
// everything else. A move/rename additionally triggers a REMOVE scan of
// the vacated source path.
type Plexmate struct {
	NopLifecycle
	Base
	client *receiver.PlexMate
}

// NewPlexmate builds a Plexmate dispatcher.
func NewPlexmate(session *httpsession.Session, baseURL, apikey string, mappings []string) (*Plexmate, error) {
	client, err := receiver.NewPlexMate(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	return &Plexmate{Base: Base{Mappings: parseMappings(mappings)}, client: client}, nil
}

// Dispatch scans the affected target(s) via plex_mate.
func (p *Plexmate) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	if e.RemovedPath != "" {
		removedMode := "REMOVE_FOLDER"
		if !e.IsFolder {
			removedMode = "REMOVE_FILE"
		}
		if _, err := p.client.DoScan(ctx, p.MapPath(e.RemovedPath), removedMode); err != nil {
			return err
		}
	}

	mode := plexmateMode(e)
	_, err := p.client.DoScan(ctx, p.MapPath(e.Path), mode)
	return err
}

func plexmateMode(e *activity.ActivityEvent) string {
	if !e.IsFolder && gdsInfoExtensions[strings.ToLower(path.Ext(e.Path))] {
		return "REFRESH"
	}
	if e.Action == activity.ActionDelete {
		if e.IsFolder {
			return "REMOVE_FOLDER"
		}
		return "REMOVE_FILE"
	}
	return "ADD"
}
