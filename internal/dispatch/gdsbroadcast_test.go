package dispatch

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
)

func TestComputeBroadcastTargets_CollapsesMultiFileDelete(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionDelete: {
			{IsFolder: false, Name: "a.mkv"},
			{IsFolder: false, Name: "b.mkv"},
		},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	require.Len(t, targets, 1)
	assert.Equal(t, BroadcastTarget{Path: "/movies/show", Mode: "REMOVE_FOLDER"}, targets[0])
}

func TestComputeBroadcastTargets_CollapsesMixedFileAndFolderDelete(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionDelete: {
			{IsFolder: false, Name: "a.mkv"},
			{IsFolder: true, Name: "extras"},
		},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	require.Len(t, targets, 1)
	assert.Equal(t, BroadcastTarget{Path: "/movies/show", Mode: "REMOVE_FOLDER"}, targets[0])
}

func TestComputeBroadcastTargets_SingleFileDeleteKeepsOwnPath(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionDelete: {{IsFolder: false, Name: "a.mkv"}},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	require.Len(t, targets, 1)
	assert.Equal(t, BroadcastTarget{Path: "/movies/show/a.mkv", Mode: "REMOVE_FILE"}, targets[0])
}

func TestComputeBroadcastTargets_InfoFileGetsRefreshMode(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {{IsFolder: false, Name: "meta.json"}},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	require.Len(t, targets, 1)
	assert.Equal(t, BroadcastTarget{Path: "/movies/show/meta.json", Mode: "REFRESH"}, targets[0])
}

func TestComputeBroadcastTargets_OnlyFirstEntryPerActionBroadcasts(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionCreate: {
			{IsFolder: false, Name: "a.mkv"},
			{IsFolder: false, Name: "b.mkv"},
			{IsFolder: true, Name: "extras"},
		},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	require.Len(t, targets, 1)
	assert.Equal(t, "/movies/show/a.mkv", targets[0].Path)
	assert.Equal(t, "ADD", targets[0].Mode)
}

func TestComputeBroadcastTargets_DisallowedActionProducesNoTarget(t *testing.T) {
	bucket := map[activity.Action][]activity.FolderEntry{
		activity.ActionComment: {{IsFolder: false, Name: "a.mkv"}},
	}
	targets := computeBroadcastTargets("/movies/show", bucket, slog.Default())
	assert.Empty(t, targets)
}
