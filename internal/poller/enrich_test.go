package poller

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/config"
	"github.com/gdrelay/gdrelay/internal/pathresolver"
)

type fakeFiles struct {
	records map[string]pathresolver.FileRecord
}

func (f *fakeFiles) GetFile(_ context.Context, id string) (pathresolver.FileRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return pathresolver.FileRecord{}, fmt.Errorf("no such file: %s", id)
	}
	return rec, nil
}

func newTestPoller(files *fakeFiles, eff config.GlobalDefaults) *Poller {
	return newPoller("movies", nil, nil, pathresolver.New(files), nil, eff, nil)
}

func TestEnrich_ResolvesPathAndSetsFolderFlag(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{
		"FID": {ID: "FID", Name: "Movie.mkv", Parents: []string{"AID"}, WebViewLink: "https://view/m"},
		"AID": {ID: "AID", Name: "root-folder"},
	}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}})

	e := &activity.ActivityEvent{
		Action: activity.ActionCreate,
		Target: activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	require.False(t, result.skip)
	assert.Equal(t, "/MOVIES/Movie.mkv", result.event.Path)
	assert.Equal(t, "https://view/m", result.event.Link)
	assert.False(t, result.event.IsFolder)
}

func TestEnrich_DropsFolderEventsWhenIgnoreFolderSet(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{
		"FID": {ID: "FID", Name: "Shows", Parents: []string{"AID"}},
		"AID": {ID: "AID", Name: "root-folder"},
	}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}, IgnoreFolder: true})

	e := &activity.ActivityEvent{
		Action: activity.ActionCreate,
		Target: activity.TargetTuple{Title: "Shows", ItemName: "items/FID", MimeType: "application/vnd.google-apps.folder"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	assert.True(t, result.skip)
}

func TestEnrich_DropsDeleteUnlessTrashed(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}})

	e := &activity.ActivityEvent{
		Action:       activity.ActionDelete,
		ActionDetail: "PERMANENT_DELETE",
		Target:       activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	assert.True(t, result.skip)
}

func TestEnrich_DropsActionNotInAllowList(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}, Actions: []string{"create"}})

	e := &activity.ActivityEvent{
		Action: activity.ActionEdit,
		Target: activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	assert.True(t, result.skip)
}

func TestEnrich_PathResolutionFailureFallsBackToUnknown(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}})

	e := &activity.ActivityEvent{
		Action: activity.ActionCreate,
		Target: activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/MISSING"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	require.False(t, result.skip)
	assert.Equal(t, "/unknown/Movie.mkv", result.event.Path)
}

func TestEnrich_MoveDerivesRemovedPathFromSourceParent(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{
		"FID": {ID: "FID", Name: "Movie.mkv", Parents: []string{"NEWDIR"}},
		"NEWDIR": {ID: "NEWDIR", Name: "new", Parents: []string{"AID"}},
		"OLDDIR": {ID: "OLDDIR", Name: "old", Parents: []string{"AID"}},
		"AID":    {ID: "AID", Name: "root-folder"},
	}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}})

	e := &activity.ActivityEvent{
		Action: activity.ActionMove,
		ActionDetail: activity.MoveDetail{
			Target: activity.TargetTuple{Title: "old", ItemName: "items/OLDDIR"},
		},
		Target: activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	require.False(t, result.skip)
	assert.Equal(t, "/MOVIES/new/Movie.mkv", result.event.Path)
	assert.Equal(t, "/MOVIES/old/Movie.mkv", result.event.RemovedPath)
}

func TestEnrich_PatternFilterClearsNonMatchingPath(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{
		"FID": {ID: "FID", Name: "Movie.mkv", Parents: []string{"AID"}},
		"AID": {ID: "AID", Name: "root-folder"},
	}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{`\.mp4$`}})

	e := &activity.ActivityEvent{
		Action: activity.ActionCreate,
		Target: activity.TargetTuple{Title: "Movie.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	assert.True(t, result.skip)
}

func TestEnrich_PatternFilterIgnoresMatchingIgnorePattern(t *testing.T) {
	files := &fakeFiles{records: map[string]pathresolver.FileRecord{
		"FID": {ID: "FID", Name: "sample.mkv", Parents: []string{"AID"}},
		"AID": {ID: "AID", Name: "root-folder"},
	}}
	p := newTestPoller(files, config.GlobalDefaults{Patterns: []string{".*"}, IgnorePatterns: []string{"sample"}})

	e := &activity.ActivityEvent{
		Action: activity.ActionCreate,
		Target: activity.TargetTuple{Title: "sample.mkv", ItemName: "items/FID"},
	}

	result := p.enrich(context.Background(), e, "AID", "MOVIES", p.eff)
	assert.True(t, result.skip)
}

func TestReconcile_CoercesPathlessRemovedPathIntoSyntheticDelete(t *testing.T) {
	e := &activity.ActivityEvent{
		Action:      activity.ActionRename,
		RemovedPath: "/MOVIES/old/Movie.mkv",
		Parent:      activity.ParentRef{ID: "PID"},
		Target:      activity.TargetTuple{Title: "Movie.mkv"},
	}

	got := reconcile(e)
	assert.Equal(t, "/MOVIES/old/Movie.mkv", got.Path)
	assert.Empty(t, got.RemovedPath)
	assert.Equal(t, activity.ActionDelete, got.Action)
	assert.Equal(t, folderLinkBase+"PID", got.Link)
}

func TestReconcile_BothAbsentLeavesEventUnchanged(t *testing.T) {
	e := &activity.ActivityEvent{Action: activity.ActionCreate}
	got := reconcile(e)
	assert.Empty(t, got.Path)
	assert.Empty(t, got.RemovedPath)
}

func TestPassesPatternFilter_EmptyInputPassesThrough(t *testing.T) {
	assert.Equal(t, "", passesPatternFilter("", compiledPatterns([]string{"x"}), nil))
}

func TestCompiledPatterns_SkipsMalformedRegex(t *testing.T) {
	res := compiledPatterns([]string{"(unterminated", `\.mkv$`})
	require.Len(t, res, 1)
	assert.True(t, matchesAny(res, "Movie.mkv"))
}
