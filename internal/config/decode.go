package config

import (
	"fmt"
	"strconv"
)

// decodeSettings converts the merged, generic YAML map into a typed
// Settings tree. Decoding is hand-rolled rather than mapstructure-driven
// because DispatcherConfig's pydantic extra="allow" semantics (every
// unrecognized key is preserved verbatim for the dispatcher constructor
// to consume) don't map cleanly onto a single struct-tag scheme.
func decodeSettings(m map[string]any) (Settings, error) {
	var s Settings

	s.PollingInterval = asInt(m["polling_interval"], 0)
	s.PollingDelay = asInt(m["polling_delay"], 0)
	s.DispatchInterval = asInt(m["dispatch_interval"], 0)
	s.TaskCheckInterval = asInt(m["task_check_interval"], 0)
	s.PageSize = asInt(m["page_size"], 0)
	s.IgnoreFolder = asBool(m["ignore_folder"], false)
	s.Patterns = asStringSlice(m["patterns"])
	s.IgnorePatterns = asStringSlice(m["ignore_patterns"])
	s.Actions = asStringSlice(m["actions"])
	s.BufferInterval = asInt(m["buffer_interval"], 0)

	if gdm, ok := m["google_drive"].(map[string]any); ok {
		s.GoogleDrive = decodeGoogleDrive(gdm)
	} else {
		s.GoogleDrive = DefaultGoogleDrive()
	}

	if lgm, ok := m["logging"].(map[string]any); ok {
		s.Logging = decodeLogging(lgm)
	} else {
		s.Logging = DefaultLogging()
	}

	rawPollers, _ := m["pollers"].([]any)
	s.Pollers = make([]PollerConfig, 0, len(rawPollers))
	for i, rp := range rawPollers {
		pm, ok := rp.(map[string]any)
		if !ok {
			return Settings{}, fmt.Errorf("pollers[%d]: expected a mapping", i)
		}
		pc, err := decodePoller(pm)
		if err != nil {
			return Settings{}, fmt.Errorf("pollers[%d]: %w", i, err)
		}
		s.Pollers = append(s.Pollers, pc)
	}

	return s, nil
}

func decodeGoogleDrive(m map[string]any) GoogleDriveConfig {
	g := DefaultGoogleDrive()
	if v, ok := m["scopes"]; ok {
		g.Scopes = asStringSlice(v)
	}
	g.CacheEnable = asBool(m["cache_enable"], g.CacheEnable)
	g.CacheTTL = asInt(m["cache_ttl"], g.CacheTTL)
	g.CacheMaxSize = asInt(m["cache_maxsize"], g.CacheMaxSize)
	if tm, ok := m["token"].(map[string]any); ok {
		g.Token = GoogleDriveTokenConfig{
			ClientID:     asString(tm["client_id"]),
			ClientSecret: asString(tm["client_secret"]),
			RefreshToken: asString(tm["refresh_token"]),
			Token:        asString(tm["token"]),
		}
	}
	return g
}

func decodeLogging(m map[string]any) LoggingConfig {
	l := DefaultLogging()
	if v, ok := m["level"]; ok {
		l.Level = asString(v)
	}
	if v, ok := m["format"]; ok {
		l.Format = asString(v)
	}
	if v, ok := m["date_format"]; ok {
		l.DateFormat = asString(v)
	}
	if v, ok := m["redacted_patterns"]; ok {
		l.RedactedPatterns = asStringSlice(v)
	}
	if v, ok := m["redacted_substitute"]; ok {
		l.RedactedSubstitute = asString(v)
	}
	return l
}

func decodePoller(m map[string]any) (PollerConfig, error) {
	var p PollerConfig
	p.Name = asString(m["name"])
	p.Targets = asStringSlice(m["targets"])
	if len(p.Targets) == 0 {
		return PollerConfig{}, fmt.Errorf("missing required field: targets")
	}

	p.PollingInterval = asIntPtr(m["polling_interval"])
	p.PollingDelay = asIntPtr(m["polling_delay"])
	p.DispatchInterval = asIntPtr(m["dispatch_interval"])
	p.TaskCheckInterval = asIntPtr(m["task_check_interval"])
	p.PageSize = asIntPtr(m["page_size"])
	p.IgnoreFolder = asBoolPtr(m["ignore_folder"])
	p.BufferInterval = asIntPtr(m["buffer_interval"])
	if v, ok := m["patterns"]; ok {
		p.Patterns = asStringSlice(v)
	}
	if v, ok := m["ignore_patterns"]; ok {
		p.IgnorePatterns = asStringSlice(v)
	}
	if v, ok := m["actions"]; ok {
		p.Actions = asStringSlice(v)
	}

	rawDispatchers, _ := m["dispatchers"].([]any)
	if len(rawDispatchers) == 0 {
		p.Dispatchers = []DispatcherConfig{{Class: "DummyDispatcher"}}
	} else {
		p.Dispatchers = make([]DispatcherConfig, 0, len(rawDispatchers))
		for i, rd := range rawDispatchers {
			dm, ok := rd.(map[string]any)
			if !ok {
				return PollerConfig{}, fmt.Errorf("dispatchers[%d]: expected a mapping", i)
			}
			p.Dispatchers = append(p.Dispatchers, decodeDispatcher(dm))
		}
	}
	return p, nil
}

func decodeDispatcher(m map[string]any) DispatcherConfig {
	d := DispatcherConfig{Class: "DummyDispatcher", Extra: map[string]any{}}
	for k, v := range m {
		switch k {
		case "class":
			d.Class = asString(v)
		case "buffer_interval":
			d.BufferInterval = asIntPtr(v)
		default:
			d.Extra[k] = deepCopyValue(v)
		}
	}
	return d
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case nil:
		return def
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

func asIntPtr(v any) *int {
	if v == nil {
		return nil
	}
	n := asInt(v, 0)
	return &n
}

func asBool(v any, def bool) bool {
	switch t := v.(type) {
	case nil:
		return def
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

func asBoolPtr(v any) *bool {
	if v == nil {
		return nil
	}
	b := asBool(v, false)
	return &b
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, asString(e))
		}
		return out
	default:
		return nil
	}
}
