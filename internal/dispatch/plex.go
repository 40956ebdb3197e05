package dispatch

import (
	"context"
	"fmt"
	"path"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// Plex triggers a Plex library scan scoped to the affected folder,
// resolving the owning section by matching its path against the
// server's configured library locations (original_source's
// PlexDispatcher/Plex.scan/get_section_by_path).
type Plex struct {
	NopLifecycle
	Base
	client *receiver.Plex
}

// NewPlex builds a Plex dispatcher against a server URL/token.
func NewPlex(session *httpsession.Session, baseURL, token string, mappings []string) (*Plex, error) {
	client, err := receiver.NewPlex(session, baseURL, token)
	if err != nil {
		return nil, err
	}
	return &Plex{Base: Base{Mappings: parseMappings(mappings)}, client: client}, nil
}

// Dispatch scans every distinct folder target implied by e (the event's
// own folder, plus the source folder of a move/rename).
func (p *Plex) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	targets := map[string]struct{}{}
	targets[p.folderTarget(e.Path, e.IsFolder)] = struct{}{}
	if e.RemovedPath != "" {
		targets[p.folderTarget(e.RemovedPath, e.IsFolder)] = struct{}{}
	}

	var firstErr error
	for target := range targets {
		if err := p.scan(ctx, target); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Plex) folderTarget(itemPath string, isFolder bool) string {
	mapped := p.MapPath(itemPath)
	if isFolder {
		return mapped
	}
	return path.Dir(mapped)
}

func (p *Plex) scan(ctx context.Context, folder string) error {
	resp, err := p.client.Sections(ctx)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("dispatch: plex sections request failed: status %d", resp.StatusCode)
	}
	sectionID, found := receiver.SectionByPath(resp.JSON, folder)
	if !found {
		sectionID = "-1"
	}
	_, err = p.client.ScanPath(ctx, sectionID, folder, false)
	return err
}
