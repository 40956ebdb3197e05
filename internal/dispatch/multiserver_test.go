package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

// recordingFakeDispatcher records every event it's given, for asserting
// what MultiServer hands to each sub-dispatcher kind.
type recordingFakeDispatcher struct {
	NopLifecycle
	mu     sync.Mutex
	events []*activity.ActivityEvent
}

func (f *recordingFakeDispatcher) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *recordingFakeDispatcher) snapshot() []*activity.ActivityEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*activity.ActivityEvent{}, f.events...)
}

func TestDeleteTargetsFor_CollapsesMultiFileDelete(t *testing.T) {
	deletes := []activity.FolderEntry{
		{IsFolder: false, Name: "a.mkv"},
		{IsFolder: false, Name: "b.mkv"},
	}
	assert.Equal(t, []string{"/movies/show"}, deleteTargetsFor("/movies/show", deletes))
}

func TestDeleteTargetsFor_CollapsesMixedFileAndFolderDelete(t *testing.T) {
	deletes := []activity.FolderEntry{
		{IsFolder: false, Name: "a.mkv"},
		{IsFolder: true, Name: "extras"},
	}
	assert.Equal(t, []string{"/movies/show"}, deleteTargetsFor("/movies/show", deletes))
}

func TestDeleteTargetsFor_SingleDeleteKeepsOwnPath(t *testing.T) {
	deletes := []activity.FolderEntry{{IsFolder: false, Name: "a.mkv"}}
	assert.Equal(t, []string{"/movies/show/a.mkv"}, deleteTargetsFor("/movies/show", deletes))
}

func TestFolderTargetsFor_FileTouchedScansParent(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {{IsFolder: false, Name: "a.mkv"}},
	}
	assert.Equal(t, []string{"/movies/show"}, folderTargetsFor("/movies/show", bucket))
}

func TestFolderTargetsFor_OnlyFoldersScansEachDistinctly(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {{IsFolder: true, Name: "season1"}, {IsFolder: true, Name: "season2"}},
	}
	assert.Equal(t, []string{"/tv/show/season1", "/tv/show/season2"}, folderTargetsFor("/tv/show", bucket))
}

func TestFolderTargetsFor_DeletesIgnored(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionDelete: {{IsFolder: false, Name: "a.mkv"}},
	}
	assert.Empty(t, folderTargetsFor("/movies/show", bucket))
}

func TestMultiServer_FlushBucket_PlexGetsCollapsedFolderTargetsBufferedGetsRawEntries(t *testing.T) {
	plex := &recordingFakeDispatcher{}
	buffered := &recordingFakeDispatcher{}
	ms := NewMultiServer(nil, []Dispatcher{plex}, []Dispatcher{buffered}, 30, nil)

	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {
			{IsFolder: true, Name: "season1"},
			{IsFolder: true, Name: "season2"},
		},
	}
	ms.FlushBucket(context.Background(), "/tv/show", bucket)

	plexEvents := plex.snapshot()
	require.Len(t, plexEvents, 2)
	assert.Equal(t, "/tv/show/season1", plexEvents[0].Path)
	assert.Equal(t, "/tv/show/season2", plexEvents[1].Path)

	bufferedEvents := buffered.snapshot()
	require.Len(t, bufferedEvents, 2)
	for _, e := range bufferedEvents {
		assert.Equal(t, activity.ActionCreate, e.Action)
		assert.True(t, e.IsFolder)
	}
	assert.ElementsMatch(t, []string{"/tv/show/season1", "/tv/show/season2"},
		[]string{bufferedEvents[0].Path, bufferedEvents[1].Path})
}
