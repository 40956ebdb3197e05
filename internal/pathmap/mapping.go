// Package pathmap implements the dispatcher path-mapping mini-language:
// "source:target" rewrites applied to a resolved path just before
// delivery to a receiver, to reconcile differing mount prefixes between
// observer and receiver.
package pathmap

import "strings"

// Mapping is one parsed "source:target" rewrite rule.
type Mapping struct {
	Source string
	Target string
}

// Parse splits a "source:target" string into a Mapping. A single ':'
// inside either side is tolerated by biasing the split toward the longer
// component: of all positions of ':' in the string, the one nearest the
// middle (by absolute distance to the midpoint) is treated as the
// separator, so "C:/media:/mnt/media" splits as ("C:/media", "/mnt/media")
// rather than at the first colon.
func Parse(s string) Mapping {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Mapping{Source: s}
	}
	if count := strings.Count(s, ":"); count > 1 {
		idx = bestSplit(s)
	}
	return Mapping{Source: s[:idx], Target: s[idx+1:]}
}

// bestSplit picks the ':' occurrence whose split keeps both halves as
// close in length as possible — the "bias toward the longer component"
// rule for an ambiguous extra colon.
func bestSplit(s string) int {
	mid := len(s) / 2
	best := -1
	bestDist := -1
	for i, c := range s {
		if c != ':' {
			continue
		}
		dist := i - mid
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}

// ParseAll parses a list of "source:target" strings.
func ParseAll(specs []string) []Mapping {
	out := make([]Mapping, 0, len(specs))
	for _, s := range specs {
		out = append(out, Parse(s))
	}
	return out
}

// Apply rewrites path by replacing every mapping's source substring with
// its target, in order, mirroring the original's sequential replace.
func Apply(path string, mappings []Mapping) string {
	for _, m := range mappings {
		path = strings.ReplaceAll(path, m.Source, m.Target)
	}
	return path
}
