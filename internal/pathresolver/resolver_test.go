package pathresolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	records map[string]FileRecord
	calls   map[string]int
	err     error
}

func (f *fakeFiles) GetFile(_ context.Context, id string) (FileRecord, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	if f.err != nil {
		return FileRecord{}, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return FileRecord{}, fmt.Errorf("no such file: %s", id)
	}
	return rec, nil
}

func TestResolve_SimplePath(t *testing.T) {
	files := &fakeFiles{records: map[string]FileRecord{
		"FID": {ID: "FID", Name: "m.mkv", Parents: []string{"DID"}, WebViewLink: "https://view/m"},
		"DID": {ID: "DID", Name: "dir", Parents: []string{"AID"}},
		"AID": {ID: "AID", Name: "root-folder", Parents: []string{"ZID"}},
	}}
	r := New(files)

	got, err := r.Resolve(context.Background(), "FID", "AID", "MOVIES")
	require.NoError(t, err)
	assert.Equal(t, "/MOVIES/dir/m.mkv", got.Path)
	assert.Equal(t, "dir", got.Parent.Name)
	assert.Equal(t, "DID", got.Parent.ID)
	assert.Equal(t, "https://view/m", got.WebViewLink)
}

func TestResolve_AncestorIsLeaf(t *testing.T) {
	files := &fakeFiles{records: map[string]FileRecord{
		"AID": {ID: "AID", Name: "root-folder"},
	}}
	r := New(files)

	got, err := r.Resolve(context.Background(), "AID", "AID", "MOVIES")
	require.NoError(t, err)
	assert.Equal(t, "/MOVIES", got.Path)
	assert.Equal(t, "MOVIES", got.Parent.Name)
}

func TestResolve_SharedDriveRootSentinel(t *testing.T) {
	files := &fakeFiles{records: map[string]FileRecord{
		"FID":     {ID: "FID", Name: "m.mkv", Parents: []string{"shortid"}},
		"shortid": {ID: "shortid", Name: "Shared Drive"},
	}}
	r := New(files)

	got, err := r.Resolve(context.Background(), "FID", "nonexistent-ancestor-id", "")
	require.NoError(t, err)
	assert.Equal(t, "/shortid/m.mkv", got.Path)
}

func TestResolve_HopBoundOnCycle(t *testing.T) {
	files := &fakeFiles{records: map[string]FileRecord{
		"A": {ID: "A", Name: "a", Parents: []string{"B"}},
		"B": {ID: "B", Name: "b", Parents: []string{"A"}},
	}}
	r := New(files)

	done := make(chan struct{})
	go func() {
		_, _ = r.Resolve(context.Background(), "A", "does-not-exist", "")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not terminate on a pathological cycle")
	}
}

func TestResolve_FailurePropagates(t *testing.T) {
	files := &fakeFiles{err: fmt.Errorf("boom")}
	r := New(files)

	_, err := r.Resolve(context.Background(), "FID", "AID", "MOVIES")
	require.Error(t, err)
}

func TestResolve_LeafAlwaysFresh(t *testing.T) {
	files := &fakeFiles{records: map[string]FileRecord{
		"FID": {ID: "FID", Name: "m.mkv", Parents: []string{"AID"}},
		"AID": {ID: "AID", Name: "root"},
	}}
	r := New(files, WithCache(64, time.Minute))

	_, err := r.Resolve(context.Background(), "FID", "AID", "ROOT")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "FID", "AID", "ROOT")
	require.NoError(t, err)

	assert.Equal(t, 2, files.calls["FID"], "leaf hop must bypass the cache on every call")
}
