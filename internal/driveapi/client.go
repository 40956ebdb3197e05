// Package driveapi wraps google.golang.org/api/drive/v3 and
// google.golang.org/api/driveactivity/v2 behind the narrow interfaces
// internal/pathresolver and internal/poller actually need, built from a
// golang.org/x/oauth2/google token source bootstrapped from a refresh
// token (SPEC_FULL.md DOMAIN STACK; grounded on
// original_source/gd_api.py and original_source/gd_poller/apis.py's
// GoogleDrive class).
package driveapi

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/driveactivity/v2"
	"google.golang.org/api/option"

	"github.com/gdrelay/gdrelay/internal/config"
	"github.com/gdrelay/gdrelay/internal/pathresolver"
)

const getFileFields = "id, name, parents, mimeType, webViewLink, size"

// Client wraps the Drive and Drive Activity API services behind a single
// authenticated client, built once at startup and shared by every poller.
type Client struct {
	drive    *drive.Service
	activity *driveactivity.Service
}

// New builds a Client from the google_drive settings section: a refresh
// token (or a user-info-style token blob) is exchanged for an OAuth2
// token source scoped to cfg.ResolveScopes(), shared by both the Drive
// and Drive Activity services.
func New(ctx context.Context, cfg config.GoogleDriveConfig) (*Client, error) {
	tokenSource, err := buildTokenSource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("driveapi: build token source: %w", err)
	}

	httpOpt := option.WithTokenSource(tokenSource)

	driveSvc, err := drive.NewService(ctx, httpOpt)
	if err != nil {
		return nil, fmt.Errorf("driveapi: new drive service: %w", err)
	}
	activitySvc, err := driveactivity.NewService(ctx, httpOpt)
	if err != nil {
		return nil, fmt.Errorf("driveapi: new driveactivity service: %w", err)
	}

	return &Client{drive: driveSvc, activity: activitySvc}, nil
}

func buildTokenSource(ctx context.Context, cfg config.GoogleDriveConfig) (oauth2.TokenSource, error) {
	scopes := cfg.ResolveScopes()
	conf := &oauth2.Config{
		ClientID:     cfg.Token.ClientID,
		ClientSecret: cfg.Token.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
	tok := &oauth2.Token{
		AccessToken:  cfg.Token.Token,
		RefreshToken: cfg.Token.RefreshToken,
		TokenType:    "Bearer",
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("google_drive.token: neither refresh_token nor token is set")
	}
	return conf.TokenSource(ctx, tok), nil
}

// fileRecordOf converts a drive.File into pathresolver's narrow record type.
func fileRecordOf(f *drive.File) pathresolver.FileRecord {
	return pathresolver.FileRecord{
		ID:          f.Id,
		Name:        f.Name,
		Parents:     f.Parents,
		MimeType:    f.MimeType,
		WebViewLink: f.WebViewLink,
		SizeBytes:   f.Size,
	}
}

// GetFile implements pathresolver.FileGetter against the real Drive API,
// requesting just the fields the resolver and enrichment pipeline need,
// and enabling Shared Drive support exactly as original_source's
// GoogleDrive.get_file does.
func (c *Client) GetFile(ctx context.Context, id string) (pathresolver.FileRecord, error) {
	f, err := c.drive.Files.Get(id).
		Fields(getFileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return pathresolver.FileRecord{}, fmt.Errorf("driveapi: get file %s: %w", id, err)
	}
	return fileRecordOf(f), nil
}

var _ pathresolver.FileGetter = (*Client)(nil)
