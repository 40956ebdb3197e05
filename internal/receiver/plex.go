package receiver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// Plex wraps a Plex Media Server's library-scan HTTP API.
type Plex struct {
	client *httpsession.Client
	token  string
}

// NewPlex builds a Plex client from a server base URL and X-Plex-Token.
func NewPlex(session *httpsession.Session, baseURL, token string) (*Plex, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "sections", Template: "/library/sections", Method: "GET"},
		{Name: "scan_section", Template: "/library/sections/{section_id}/refresh", Method: "GET"},
		{Name: "scan_path", Template: "/library/sections/{section_id}/refresh", Method: "GET"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new plex client: %w", err)
	}
	return &Plex{client: client, token: token}, nil
}

func (p *Plex) authParams(extra url.Values) url.Values {
	q := url.Values{}
	for k, vs := range extra {
		q[k] = vs
	}
	q.Set("X-Plex-Token", p.token)
	return q
}

func (p *Plex) acceptJSON() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// Sections lists the server's library sections.
func (p *Plex) Sections(ctx context.Context) (httpsession.Response, error) {
	req, err := p.client.Expand("sections", nil, httpsession.Call{
		Params:  p.authParams(nil),
		Headers: p.acceptJSON(),
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return p.client.Session.Do(ctx, "sections", req), nil
}

// ScanPath triggers a partial scan of sectionID scoped to path via the
// "path" refresh parameter; with an empty path it scans the whole section
// like ScanSection. The server version is not checked.
func (p *Plex) ScanPath(ctx context.Context, sectionID, path string, force bool) (httpsession.Response, error) {
	params := url.Values{}
	if path != "" {
		params.Set("path", path)
	}
	if force {
		params.Set("force", "1")
	}
	req, err := p.client.Expand("scan_path", map[string]string{"section_id": sectionID}, httpsession.Call{
		Params:  p.authParams(params),
		Headers: p.acceptJSON(),
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return p.client.Session.Do(ctx, "scan_path", req), nil
}

// ScanSection triggers a full scan of sectionID.
func (p *Plex) ScanSection(ctx context.Context, sectionID string) (httpsession.Response, error) {
	req, err := p.client.Expand("scan_section", map[string]string{"section_id": sectionID}, httpsession.Call{
		Params:  p.authParams(nil),
		Headers: p.acceptJSON(),
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return p.client.Session.Do(ctx, "scan_section", req), nil
}

// SectionByPath returns the library section key whose Location directory
// path is an ancestor or descendant of path (original_source's
// get_section_by_path), given the already-fetched Sections response.
func SectionByPath(sectionsJSON map[string]any, path string) (string, bool) {
	container, _ := sectionsJSON["MediaContainer"].(map[string]any)
	dirs, _ := container["Directory"].([]any)
	for _, rawDir := range dirs {
		dir, ok := rawDir.(map[string]any)
		if !ok {
			continue
		}
		locs, _ := dir["Location"].([]any)
		for _, rawLoc := range locs {
			loc, ok := rawLoc.(map[string]any)
			if !ok {
				continue
			}
			locPath, _ := loc["path"].(string)
			if isPathRelativeEither(path, locPath) {
				key, _ := dir["key"].(string)
				return key, key != ""
			}
		}
	}
	return "", false
}

func isPathRelativeEither(a, b string) bool {
	return hasPathPrefix(a, b) || hasPathPrefix(b, a)
}

func hasPathPrefix(p, prefix string) bool {
	if prefix == "" {
		return false
	}
	if p == prefix {
		return true
	}
	if len(p) > len(prefix) && p[:len(prefix)] == prefix {
		return p[len(prefix)] == '/'
	}
	return false
}
