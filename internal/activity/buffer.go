package activity

import "path"

// FolderEntry is one buffered leaf inside a parent bucket: whether it's a
// file or folder, and its basename within that parent.
type FolderEntry struct {
	IsFolder bool
	Name     string
}

// FolderBuffer groups incoming (path, action) pairs by parent directory,
// preserving FIFO order of first-seen parents, so the Buffered Dispatcher
// can coalesce a burst of sibling events into one flush per parent
// (SPEC_FULL.md §4.4; grounded on the usage pattern in
// original_source/gd_poller/dispatchers.py's BufferedDispatcher/
// GDSBroadcastDispatcher/KavitaDispatcher.buffered_dispatch, and on
// _examples/other_examples's onedrive-go internal/sync/buffer.go
// debounce-by-directory grouping).
type FolderBuffer struct {
	order   []string
	buckets map[string]map[Action][]FolderEntry
}

// NewFolderBuffer returns an empty buffer.
func NewFolderBuffer() *FolderBuffer {
	return &FolderBuffer{buckets: make(map[string]map[Action][]FolderEntry)}
}

// Put records one event: itemPath's parent directory becomes (or
// extends) a bucket keyed by action, storing itemPath's basename and
// folder/file kind. An entry already present under the same action and
// (isFolder, name) is not duplicated, so inserting the same event twice
// yields identical flush output.
func (b *FolderBuffer) Put(itemPath string, act Action, isFolder bool) {
	if itemPath == "" {
		return
	}
	parent := path.Dir(itemPath)
	name := path.Base(itemPath)

	bucket, ok := b.buckets[parent]
	if !ok {
		bucket = make(map[Action][]FolderEntry)
		b.buckets[parent] = bucket
		b.order = append(b.order, parent)
	}
	for _, existing := range bucket[act] {
		if existing.IsFolder == isFolder && existing.Name == name {
			return
		}
	}
	bucket[act] = append(bucket[act], FolderEntry{IsFolder: isFolder, Name: name})
}

// Pop removes and returns the oldest-buffered parent and its action
// bucket. ok is false if the buffer is empty.
func (b *FolderBuffer) Pop() (parent string, bucket map[Action][]FolderEntry, ok bool) {
	if len(b.order) == 0 {
		return "", nil, false
	}
	parent = b.order[0]
	b.order = b.order[1:]
	bucket = b.buckets[parent]
	delete(b.buckets, parent)
	return parent, bucket, true
}

// Len reports the number of distinct parent buckets currently buffered.
func (b *FolderBuffer) Len() int {
	return len(b.order)
}
