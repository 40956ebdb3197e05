package dispatch

import "github.com/gdrelay/gdrelay/internal/pathmap"

// parseMappings converts the "source:target" strings configured in a
// dispatcher's YAML block into parsed path mappings. A nil or empty
// slice yields no mappings (MapPath then becomes a no-op), matching
// original_source's `mappings: list = None` default.
func parseMappings(specs []string) []pathmap.Mapping {
	if len(specs) == 0 {
		return nil
	}
	return pathmap.ParseAll(specs)
}
