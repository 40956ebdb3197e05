// Package receiver holds the thin per-service wrappers (Rclone, Plex,
// Kavita, Discord, Flaskfarm/Flaskfarmaider, Jellyfin, Stash) built on
// internal/httpsession's declarative endpoint pattern (SPEC_FULL.md §4.2).
package receiver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// Rclone wraps an rclone remote-control (RC) HTTP API.
type Rclone struct {
	client *httpsession.Client
	vfs    string
	auth   *httpsession.BasicAuth
}

// NewRclone builds an Rclone client from an RC base URL. A URL fragment
// (e.g. "http://host:5572#remote") selects the `fs` VFS parameter sent
// with every call; userinfo in the URL becomes basic auth.
func NewRclone(session *httpsession.Session, rawURL string) (*Rclone, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("receiver: parse rclone url: %w", err)
	}
	var auth *httpsession.BasicAuth
	if u.User != nil {
		pw, _ := u.User.Password()
		auth = &httpsession.BasicAuth{Username: u.User.Username(), Password: pw}
	}
	vfs := u.Fragment
	if vfs != "" {
		vfs += ":"
	}
	base := *u
	base.Fragment = ""
	base.User = nil

	client, err := httpsession.NewClient(session, base.String(), []httpsession.Endpoint{
		{Name: "vfs_stats", Template: "/vfs/stats", Method: "POST"},
		{Name: "vfs_refresh", Template: "/vfs/refresh", Method: "POST"},
		{Name: "vfs_forget", Template: "/vfs/forget", Method: "POST"},
		{Name: "operations_stat", Template: "/operations/stat", Method: "POST"},
	})
	if err != nil {
		return nil, err
	}
	return &Rclone{client: client, vfs: vfs, auth: auth}, nil
}

func (r *Rclone) withVFS(data map[string]any) map[string]any {
	if r.vfs != "" {
		data["fs"] = r.vfs
	}
	return data
}

// Refresh issues /vfs/refresh for remotePath (non-recursive unless recursive is true).
func (r *Rclone) Refresh(ctx context.Context, remotePath string, recursive bool) (httpsession.Response, error) {
	data := map[string]any{"recursive": recursive}
	if remotePath != "" {
		data["dir"] = remotePath
	}
	req, err := r.client.Expand("vfs_refresh", nil, httpsession.Call{JSON: r.withVFS(data), Auth: r.auth})
	if err != nil {
		return httpsession.Response{}, err
	}
	return r.client.Session.Do(ctx, "vfs_refresh", req), nil
}

// Forget issues /vfs/forget for localPath, marking whether it is a directory.
func (r *Rclone) Forget(ctx context.Context, localPath string, isDirectory bool) (httpsession.Response, error) {
	key := "file"
	if isDirectory {
		key = "dir"
	}
	data := map[string]any{key: localPath}
	req, err := r.client.Expand("vfs_forget", nil, httpsession.Call{JSON: r.withVFS(data), Auth: r.auth})
	if err != nil {
		return httpsession.Response{}, err
	}
	return r.client.Session.Do(ctx, "vfs_forget", req), nil
}

// Stat issues /operations/stat for remotePath.
func (r *Rclone) Stat(ctx context.Context, remotePath string) (httpsession.Response, error) {
	data := map[string]any{"remote": remotePath}
	req, err := r.client.Expand("operations_stat", nil, httpsession.Call{JSON: r.withVFS(data), Auth: r.auth})
	if err != nil {
		return httpsession.Response{}, err
	}
	return r.client.Session.Do(ctx, "operations_stat", req), nil
}
