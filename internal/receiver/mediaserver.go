package receiver

import (
	"context"
	"fmt"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// Jellyfin wraps a Jellyfin server's library-scan API trigger.
type Jellyfin struct {
	client *httpsession.Client
	apikey string
}

// NewJellyfin builds a Jellyfin client from a server base URL and API key.
func NewJellyfin(session *httpsession.Session, baseURL, apikey string) (*Jellyfin, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "scan", Template: "/Library/Refresh", Method: "POST"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new jellyfin client: %w", err)
	}
	return &Jellyfin{client: client, apikey: apikey}, nil
}

// Scan triggers a library scan; Jellyfin's refresh API is library-wide
// (no path scoping), so dispatchers using this client should buffer and
// coalesce before calling it (SPEC_FULL.md §4.5 Jellyfin/Stash dispatcher).
func (j *Jellyfin) Scan(ctx context.Context) (httpsession.Response, error) {
	req, err := j.client.Expand("scan", nil, httpsession.Call{
		Headers: map[string]string{"X-Emby-Token": j.apikey},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return j.client.Session.Do(ctx, "scan", req), nil
}

// Stash wraps a Stash server's GraphQL scan-trigger mutation.
type Stash struct {
	client *httpsession.Client
	apikey string
}

// NewStash builds a Stash client from a server base URL and API key.
func NewStash(session *httpsession.Session, baseURL, apikey string) (*Stash, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "graphql", Template: "/graphql", Method: "POST"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new stash client: %w", err)
	}
	return &Stash{client: client, apikey: apikey}, nil
}

const metadataScanMutation = `mutation($paths: [String!]) { metadataScan(input: { paths: $paths }) }`

// Scan triggers a metadata scan scoped to paths.
func (s *Stash) Scan(ctx context.Context, paths []string) (httpsession.Response, error) {
	req, err := s.client.Expand("graphql", nil, httpsession.Call{
		JSON: map[string]any{
			"query":     metadataScanMutation,
			"variables": map[string]any{"paths": paths},
		},
		Headers: map[string]string{"ApiKey": s.apikey},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return s.client.Session.Do(ctx, "graphql", req), nil
}
