package config

import (
	"fmt"
	"strings"
)

// Target identifies one watched Drive item: an ancestor/shared-drive id
// and an optional human-readable root label used when the resolved path
// walks up past that ancestor (pathresolver.Resolve's rootLabel, §4.1).
type Target struct {
	ID    string
	Label string
}

// ParseTarget parses the "<id>#<label>" target string format (§6 External
// Interfaces). A target with no "#" has an empty Label.
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return Target{}, fmt.Errorf("config: empty target string")
	}
	id, label, found := strings.Cut(s, "#")
	if !found {
		return Target{ID: s}, nil
	}
	if id == "" {
		return Target{}, fmt.Errorf("config: target %q has empty id before '#'", s)
	}
	return Target{ID: id, Label: label}, nil
}

// String serializes back to the "<id>#<label>" format, omitting the "#"
// when Label is empty so that ParseTarget(t.String()) round-trips.
func (t Target) String() string {
	if t.Label == "" {
		return t.ID
	}
	return t.ID + "#" + t.Label
}

// ParseTargets parses every string in ss, returning the first error.
func ParseTargets(ss []string) ([]Target, error) {
	out := make([]Target, 0, len(ss))
	for _, s := range ss {
		t, err := ParseTarget(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
