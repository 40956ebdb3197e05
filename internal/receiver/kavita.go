package receiver

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// Kavita wraps the Kavita library-scan plugin API. Kavita issues a
// short-lived bearer token from a plugin-authenticate call keyed by
// apikey; the token expires and a scan call then returns 401, at which
// point the caller must reauthenticate and retry (original_source's
// KavitaDispatcher.buffered_dispatch 5-attempt retry loop).
type Kavita struct {
	client *httpsession.Client
	apikey string

	mu    sync.Mutex
	token string
}

// NewKavita builds a Kavita client from a server base URL and plugin API key.
func NewKavita(session *httpsession.Session, baseURL, apikey string) (*Kavita, error) {
	client, err := httpsession.NewClient(session, baseURL, []httpsession.Endpoint{
		{Name: "authenticate", Template: "/api/Plugin/authenticate", Method: "POST"},
		{Name: "scan_folder", Template: "/api/Library/scan-folder", Method: "POST"},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new kavita client: %w", err)
	}
	return &Kavita{client: client, apikey: apikey}, nil
}

// Authenticate mints a fresh bearer token via the GDPoller plugin identity.
func (k *Kavita) Authenticate(ctx context.Context) error {
	req, err := k.client.Expand("authenticate", nil, httpsession.Call{
		Params: url.Values{"pluginName": {"GDPoller"}, "apiKey": {k.apikey}},
	})
	if err != nil {
		return err
	}
	resp := k.client.Session.Do(ctx, "authenticate", req)
	if !resp.OK() {
		if resp.Exception != nil {
			return fmt.Errorf("kavita authenticate failed: %w", resp.Exception)
		}
		return fmt.Errorf("kavita authenticate failed: status %d", resp.StatusCode)
	}
	token, _ := resp.JSON["token"].(string)
	k.mu.Lock()
	k.token = token
	k.mu.Unlock()
	return nil
}

func (k *Kavita) bearerHeader() map[string]string {
	k.mu.Lock()
	tok := k.token
	k.mu.Unlock()
	if tok == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

// HasToken reports whether a bearer token has been minted yet.
func (k *Kavita) HasToken() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.token != ""
}

// ScanFolder asks Kavita to scan folderPath and returns the raw HTTP
// status for the caller's own 401-retry policy (SPEC_FULL.md §4.5
// Kavita Dispatcher owns the retry loop, not this client).
func (k *Kavita) ScanFolder(ctx context.Context, folderPath string) (httpsession.Response, error) {
	req, err := k.client.Expand("scan_folder", nil, httpsession.Call{
		JSON:    map[string]any{"folderPath": folderPath, "apiKey": k.apikey},
		Headers: k.bearerHeader(),
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return k.client.Session.Do(ctx, "scan_folder", req), nil
}
