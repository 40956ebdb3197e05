package driveapi

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/driveactivity/v2"
)

// ActivityQuery describes one page request against the Drive Activity
// API's activity.query call (original_source/gd_poller/pollers.py builds
// this exact {pageSize, ancestorName, pageToken, filter} body per poll).
type ActivityQuery struct {
	AncestorID string
	PageSize   int64
	PageToken  string
	// Actions restricts results server-side to the given action types
	// (e.g. "detail.action_detail_case:(CREATE EDIT MOVE)"); empty means
	// no server-side filter, matching the original's allow-all default.
	Actions []string
	// Since, if set, is an RFC3339 timestamp; only activity strictly
	// after it is requested via a "time > ..." filter clause.
	Since string
	// Until, if set, bounds the window's upper edge inclusively via a
	// "time <= ..." clause (the poller's `end = now - polling_delay`).
	Until string
}

func (q ActivityQuery) filterString() string {
	var clauses []string
	if len(q.Actions) > 0 {
		clauses = append(clauses, fmt.Sprintf("detail.action_detail_case:(%s)", strings.Join(q.Actions, " ")))
	}
	if q.Since != "" {
		clauses = append(clauses, fmt.Sprintf("time > %q", q.Since))
	}
	if q.Until != "" {
		clauses = append(clauses, fmt.Sprintf("time <= %q", q.Until))
	}
	return strings.Join(clauses, " AND ")
}

// QueryActivity issues one page of the Drive Activity API's
// activity.query call against the ancestor (shared drive / folder) named
// by q.AncestorID.
func (c *Client) QueryActivity(ctx context.Context, q ActivityQuery) (*driveactivity.QueryDriveActivityResponse, error) {
	req := &driveactivity.QueryDriveActivityRequest{
		AncestorName: "items/" + q.AncestorID,
		PageSize:     q.PageSize,
		PageToken:    q.PageToken,
	}
	if f := q.filterString(); f != "" {
		req.Filter = f
	}
	resp, err := c.activity.Activity.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("driveapi: query activity: %w", err)
	}
	return resp, nil
}
