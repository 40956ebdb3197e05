package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderBuffer_GroupsByParentFIFO(t *testing.T) {
	b := NewFolderBuffer()
	b.Put("/movies/a/file1.mkv", ActionCreate, false)
	b.Put("/shows/b/ep1.mkv", ActionCreate, false)
	b.Put("/movies/a/file2.mkv", ActionCreate, false)

	require.Equal(t, 2, b.Len())

	parent, bucket, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, "/movies/a", parent)
	require.Len(t, bucket[ActionCreate], 2)
	assert.Equal(t, "file1.mkv", bucket[ActionCreate][0].Name)
	assert.Equal(t, "file2.mkv", bucket[ActionCreate][1].Name)

	parent, bucket, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, "/shows/b", parent)
	require.Len(t, bucket[ActionCreate], 1)

	_, _, ok = b.Pop()
	assert.False(t, ok)
}

func TestFolderBuffer_PutIsIdempotentPerAction(t *testing.T) {
	b := NewFolderBuffer()
	b.Put("/movies/a/file1.mkv", ActionDelete, false)
	b.Put("/movies/a/file1.mkv", ActionDelete, false)

	_, bucket, ok := b.Pop()
	require.True(t, ok)
	require.Len(t, bucket[ActionDelete], 1)
}

func TestFolderBuffer_SeparatesActionsWithinBucket(t *testing.T) {
	b := NewFolderBuffer()
	b.Put("/x/new.mkv", ActionCreate, false)
	b.Put("/x/old.mkv", ActionDelete, false)

	_, bucket, ok := b.Pop()
	require.True(t, ok)
	assert.Len(t, bucket[ActionCreate], 1)
	assert.Len(t, bucket[ActionDelete], 1)
}
