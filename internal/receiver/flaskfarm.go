package receiver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// gdsRootPrefix is the path prefix Flaskfarm's gds_tool/flaskfarmaider
// plugins require of every scan target (original_source/apis.py).
const gdsRootPrefix = "/ROOT/GDRIVE"

func validateGDSPath(path string) error {
	if !strings.HasPrefix(path, gdsRootPrefix) {
		return fmt.Errorf("receiver: path must start with %q: %s", gdsRootPrefix, path)
	}
	return nil
}

// GDSTool wraps Flaskfarm's gds_tool plugin broadcast endpoint, used by
// the GDSTool dispatcher (SPEC_FULL.md §4.5).
type GDSTool struct {
	client *httpsession.Client
	apikey string
}

// NewGDSTool builds a GDSTool client from a Flaskfarm base URL and apikey.
func NewGDSTool(session *httpsession.Session, baseURL, apikey string) (*GDSTool, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "broadcast", Template: "/gds_tool/api/fp/broadcast", Method: "GET", Interval: 1.5},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new gds_tool client: %w", err)
	}
	return &GDSTool{client: client, apikey: apikey}, nil
}

// Broadcast notifies gds_tool of a path/mode change (mode is one of
// ADD, REFRESH, REMOVE_FILE, REMOVE_FOLDER).
func (g *GDSTool) Broadcast(ctx context.Context, gdsPath, mode string) (httpsession.Response, error) {
	if err := validateGDSPath(gdsPath); err != nil {
		return httpsession.Response{}, err
	}
	req, err := g.client.Expand("broadcast", nil, httpsession.Call{
		Params: url.Values{"gds_path": {gdsPath}, "scan_mode": {mode}, "apikey": {g.apikey}},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return g.client.Session.Do(ctx, "broadcast", req), nil
}

// Flaskfarmaider wraps the standalone flaskfarmaider bot's broadcast
// endpoint, used by the Flaskfarmaider dispatcher.
type Flaskfarmaider struct {
	client *httpsession.Client
	apikey string
}

// NewFlaskfarmaider builds a client from a flaskfarmaider base URL and apikey.
func NewFlaskfarmaider(session *httpsession.Session, baseURL, apikey string) (*Flaskfarmaider, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "broadcast", Template: "/api/broadcast", Method: "POST"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new flaskfarmaider client: %w", err)
	}
	return &Flaskfarmaider{client: client, apikey: apikey}, nil
}

// Broadcast notifies flaskfarmaider of a path/mode change.
func (f *Flaskfarmaider) Broadcast(ctx context.Context, path, mode string) (httpsession.Response, error) {
	if err := validateGDSPath(path); err != nil {
		return httpsession.Response{}, err
	}
	req, err := f.client.Expand("broadcast", nil, httpsession.Call{
		Form: url.Values{"path": {path}, "mode": {mode}, "apikey": {f.apikey}},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return f.client.Session.Do(ctx, "broadcast", req), nil
}

// PlexMate wraps Flaskfarm's plex_mate plugin scan-trigger endpoint,
// used by the Plexmate dispatcher.
type PlexMate struct {
	client *httpsession.Client
	apikey string
}

// NewPlexMate builds a client from a Flaskfarm base URL and apikey.
func NewPlexMate(session *httpsession.Session, baseURL, apikey string) (*PlexMate, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "do_scan", Template: "/plex_mate/api/scan/do_scan", Method: "POST"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new plex_mate client: %w", err)
	}
	return &PlexMate{client: client, apikey: apikey}, nil
}

// DoScan requests a plex_mate scan of target in the given mode.
func (p *PlexMate) DoScan(ctx context.Context, target, mode string) (httpsession.Response, error) {
	req, err := p.client.Expand("do_scan", nil, httpsession.Call{
		Form: url.Values{"target": {target}, "mode": {mode}, "apikey": {p.apikey}},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return p.client.Session.Do(ctx, "do_scan", req), nil
}
