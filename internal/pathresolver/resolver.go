// Package pathresolver implements the remote-ID-to-absolute-path walk
// (SPEC_FULL.md §4.1): starting from a leaf item id, it follows the first
// parent pointer repeatedly until it reaches a configured ancestor, a
// parentless node, or a defensive hop bound, assembling an absolute
// logical path from the names it collects along the way.
package pathresolver

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// maxHops is the defensive cycle guard: no resolution walks more than this
// many parent hops.
const maxHops = 100

// sharedDriveRootLength is the threshold below which a terminal ancestor id
// is treated as a shared-drive root sentinel and normalised to "/<id>",
// unless the walk stopped at the labelled ancestor (the root label stays
// the first path segment).
const sharedDriveRootLength = 20

// FileRecord is the subset of a Drive file's metadata the resolver needs.
// Callers (internal/driveapi) build this from files.get responses.
type FileRecord struct {
	ID           string
	Name         string
	Parents      []string
	MimeType     string
	WebViewLink  string
	SizeBytes    int64
}

// FileGetter fetches a single file's metadata. The real implementation is
// internal/driveapi.Client.GetFile; tests supply a fake.
type FileGetter interface {
	GetFile(ctx context.Context, id string) (FileRecord, error)
}

// Resolved is the resolver's non-error result.
type Resolved struct {
	Path        string
	Parent      ParentRef
	WebViewLink string
	SizeBytes   int64
}

// ParentRef is the immediate parent of the resolved leaf.
type ParentRef struct {
	Name string
	ID   string
}

// Resolver wraps a FileGetter with an optional bounded LRU cache with per-entry TTL.
// Per SPEC_FULL.md §4.1/§9, the leaf hop is always read fresh — caching the
// most recently changed node would be incorrect — while intermediate
// ancestor hops may be served from the shared cache.
type Resolver struct {
	files FileGetter
	cache *lru.LRU[string, FileRecord]
	ttl   time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables the bounded LRU cache with the given size and
// per-entry TTL. Without this option the resolver always fetches fresh.
func WithCache(maxSize int, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = lru.NewLRU[string, FileRecord](maxSize, nil, ttl)
		r.ttl = ttl
	}
}

// New builds a Resolver over the given file metadata source.
func New(files FileGetter, opts ...Option) *Resolver {
	r := &Resolver{files: files}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks from itemID up to ancestorID (or to a parentless node, or
// to the hop bound) and returns the absolute path, immediate parent,
// web link and size. It returns an error if any per-hop fetch fails; per
// §4.1 the caller must treat that as a full resolution failure and
// surface the event with an empty path rather than a partial one.
func (r *Resolver) Resolve(ctx context.Context, itemID, ancestorID, rootLabel string) (Resolved, error) {
	if itemID == "" {
		return Resolved{}, fmt.Errorf("pathresolver: empty item id")
	}

	leaf, err := r.files.GetFile(ctx, itemID)
	if err != nil {
		return Resolved{}, fmt.Errorf("pathresolver: fetch leaf %q: %w", itemID, err)
	}

	type segment struct {
		name string
		id   string
	}

	var stack []segment

	if rootLabel != "" && itemID == ancestorID {
		stack = append(stack, segment{name: rootLabel, id: ancestorID})
	} else {
		stack = append(stack, segment{name: leaf.Name, id: leaf.ID})
		cur := leaf
		for hop := 0; hop < maxHops && len(cur.Parents) > 0; hop++ {
			parentID := cur.Parents[0]
			next, err := r.getFileCached(ctx, parentID)
			if err != nil {
				return Resolved{}, fmt.Errorf("pathresolver: fetch parent %q: %w", parentID, err)
			}
			if rootLabel != "" && next.ID == ancestorID {
				stack = append(stack, segment{name: rootLabel, id: ancestorID})
				cur = next
				break
			}
			stack = append(stack, segment{name: next.Name, id: next.ID})
			cur = next
		}
	}

	top := stack[len(stack)-1]
	labelled := rootLabel != "" && top.id == ancestorID
	if !labelled && len(top.id) < sharedDriveRootLength {
		stack[len(stack)-1] = segment{name: "/" + top.id, id: top.id}
	}

	names := make([]string, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name != "" {
			names = append(names, stack[i].name)
		}
	}
	fullPath := path.Join(names...)
	if !strings.HasPrefix(fullPath, "/") {
		fullPath = "/" + fullPath
	}

	var parent ParentRef
	if len(stack) > 1 {
		parent = ParentRef{Name: stack[1].name, ID: stack[1].id}
	} else {
		parent = ParentRef{Name: stack[0].name, ID: stack[0].id}
	}

	return Resolved{
		Path:        fullPath,
		Parent:      parent,
		WebViewLink: leaf.WebViewLink,
		SizeBytes:   leaf.SizeBytes,
	}, nil
}

func (r *Resolver) getFileCached(ctx context.Context, id string) (FileRecord, error) {
	if r.cache == nil {
		return r.files.GetFile(ctx, id)
	}
	if rec, ok := r.cache.Get(id); ok {
		return rec, nil
	}
	rec, err := r.files.GetFile(ctx, id)
	if err != nil {
		return FileRecord{}, err
	}
	r.cache.Add(id, rec)
	return rec, nil
}
