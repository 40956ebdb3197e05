package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

func TestPlexmateMode(t *testing.T) {
	assert.Equal(t, "REFRESH", plexmateMode(&activity.ActivityEvent{Action: activity.ActionCreate, Path: "/x/meta.json"}))
	assert.Equal(t, "REMOVE_FILE", plexmateMode(&activity.ActivityEvent{Action: activity.ActionDelete, Path: "/x/a.mkv", IsFolder: false}))
	assert.Equal(t, "REMOVE_FOLDER", plexmateMode(&activity.ActivityEvent{Action: activity.ActionDelete, Path: "/x/folder", IsFolder: true}))
	assert.Equal(t, "ADD", plexmateMode(&activity.ActivityEvent{Action: activity.ActionCreate, Path: "/x/a.mkv"}))
}

func TestPlexmate_Dispatch_ScansRemovedAndNewTargets(t *testing.T) {
	var forms []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		forms = append(forms, r.PostForm)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := NewPlexmate(nopSession(), srv.URL, "key", nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{
		Action:      activity.ActionMove,
		Path:        "/movies/new/Movie.mkv",
		RemovedPath: "/movies/old/Movie.mkv",
		IsFolder:    false,
	}
	require.NoError(t, p.Dispatch(context.Background(), e))

	require.Len(t, forms, 2)
	assert.Equal(t, "/movies/old/Movie.mkv", forms[0].Get("target"))
	assert.Equal(t, "REMOVE_FILE", forms[0].Get("mode"))
	assert.Equal(t, "/movies/new/Movie.mkv", forms[1].Get("target"))
	assert.Equal(t, "ADD", forms[1].Get("mode"))
}
