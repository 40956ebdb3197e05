package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

func TestJellyfin_FlushBucket_DebouncesBackToBackScans(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	j, err := NewJellyfin(nopSession(), srv.URL, "key", nil, 30, nil)
	require.NoError(t, err)

	bucket := map[activity.Action][]activity.FolderEntry{activity.ActionCreate: {{Name: "a.mkv"}}}
	j.FlushBucket(context.Background(), "/x", bucket)
	j.FlushBucket(context.Background(), "/y", bucket)

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
