package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

func TestStash_FlushBucket_ScansDistinctPathsFromBucket(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewStash(nopSession(), srv.URL, "key", nil, 30, nil)
	require.NoError(t, err)

	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {{Name: "a.mkv"}, {Name: "b.mkv"}},
		activity.ActionDelete: {{Name: "c.mkv"}},
	}
	s.FlushBucket(context.Background(), "/movies", bucket)

	vars := body["variables"].(map[string]any)
	paths := vars["paths"].([]any)
	assert.ElementsMatch(t, []any{"/movies/a.mkv", "/movies/b.mkv"}, paths)
}

func TestStash_FlushBucket_SkipsWhenOnlyDeletes(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewStash(nopSession(), srv.URL, "key", nil, 30, nil)
	require.NoError(t, err)

	bucket := map[activity.Action][]activity.FolderEntry{activity.ActionDelete: {{Name: "c.mkv"}}}
	s.FlushBucket(context.Background(), "/movies", bucket)
	assert.False(t, called)
}
