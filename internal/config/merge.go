package config

// deepMerge recursively merges override on top of base, mutating and
// returning base. Maps are merged key-by-key; any other type in override
// (including slices) replaces base's value outright. This mirrors
// original_source/gd_poller/helpers.py's deep_merge, used by
// MergedYamlSettingsSource to layer a user's settings.yaml over the
// package's field defaults before pydantic validation ever sees the
// result.
func deepMerge(base, override map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for k, ov := range override {
		bv, exists := base[k]
		if !exists {
			base[k] = ov
			continue
		}
		bMap, bIsMap := bv.(map[string]any)
		oMap, oIsMap := ov.(map[string]any)
		if bIsMap && oIsMap {
			base[k] = deepMerge(bMap, oMap)
			continue
		}
		base[k] = ov
	}
	return base
}
