package config

import "fmt"

// resolvePollers assigns default names and propagates every unset
// per-poller override down from s.GlobalDefaults, then propagates each
// poller's resolved BufferInterval down to any dispatcher that didn't
// set its own. Mirrors AppSettings.model_post_init in models.py exactly:
// a poller field of nil means "use the global value", computed once at
// load time rather than re-checked on every read.
func resolvePollers(s *Settings) {
	for i := range s.Pollers {
		p := &s.Pollers[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("poller-%d", i)
		}

		p.Effective = GlobalDefaults{
			PollingInterval:   orInt(p.PollingInterval, s.PollingInterval),
			PollingDelay:      orInt(p.PollingDelay, s.PollingDelay),
			DispatchInterval:  orInt(p.DispatchInterval, s.DispatchInterval),
			TaskCheckInterval: orInt(p.TaskCheckInterval, s.TaskCheckInterval),
			PageSize:          orInt(p.PageSize, s.PageSize),
			IgnoreFolder:      orBool(p.IgnoreFolder, s.IgnoreFolder),
			Patterns:          orSlice(p.Patterns, s.Patterns),
			IgnorePatterns:    orSlice(p.IgnorePatterns, s.IgnorePatterns),
			Actions:           orSlice(p.Actions, s.Actions),
			BufferInterval:    orInt(p.BufferInterval, s.BufferInterval),
		}

		for j := range p.Dispatchers {
			d := &p.Dispatchers[j]
			if d.BufferInterval == nil {
				v := p.Effective.BufferInterval
				d.BufferInterval = &v
			}
		}
	}
}

func orInt(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func orBool(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func orSlice(v, fallback []string) []string {
	if v != nil {
		return v
	}
	return fallback
}
