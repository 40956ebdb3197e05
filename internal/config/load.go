package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// searchFilenames lists, in priority order, the candidate settings file
// names. The first one that exists in a search directory wins (mirrors
// models.py's AppSettings.model_config.yaml_file tuple: package-dir
// settings.yaml, cwd settings.yaml, package-dir config.yaml, cwd
// config.yaml).
var searchFilenames = []string{"settings.yaml", "config.yaml"}

// FindSettingsFile searches dirs (in order) for settings.yaml, and only
// if no directory has one, searches them again (in order) for
// config.yaml, returning the first existing file's path. It returns "" if none exist,
// matching the original source's "no settings file, use field defaults"
// fallback.
func FindSettingsFile(dirs []string) string {
	for _, name := range searchFilenames {
		for _, dir := range dirs {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

// envPrefix is the prefix for environment-variable overrides
// (SPEC_FULL.md AMBIENT STACK: "GDRELAY_POLLING_INTERVAL=30" etc).
const envPrefix = "GDRELAY"

// envOverridable lists the scalar, dotted-path settings keys that may be
// overridden by an environment variable. Nested list/map fields
// (pollers, dispatchers) are configuration-file-only: they have no
// sensible single-value env representation.
var envOverridable = []string{
	"polling_interval",
	"polling_delay",
	"dispatch_interval",
	"task_check_interval",
	"page_size",
	"ignore_folder",
	"buffer_interval",
	"google_drive.cache_enable",
	"google_drive.cache_ttl",
	"google_drive.cache_maxsize",
	"google_drive.token.client_id",
	"google_drive.token.client_secret",
	"google_drive.token.refresh_token",
	"google_drive.token.token",
	"logging.level",
}

// Load locates a settings file under one of dirs (falling back to pure
// defaults if none exists), deep-merges it over the hardcoded defaults,
// applies GDRELAY_-prefixed environment overrides, and resolves every
// poller's inherited fields.
func Load(dirs []string) (Settings, error) {
	merged := defaultsMap()

	if path := FindSettingsFile(dirs); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var user map[string]any
		if err := yaml.Unmarshal(raw, &user); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		merged = deepMerge(merged, user)
	}

	applyEnvOverrides(merged)

	settings, err := decodeSettings(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("config: decode settings: %w", err)
	}
	resolvePollers(&settings)
	return settings, nil
}

// defaultsMap renders the hardcoded Go defaults into the same
// map[string]any shape a settings.yaml would parse to, so it can be
// deep-merged with user overrides before decoding.
func defaultsMap() map[string]any {
	g := DefaultGlobals()
	gd := DefaultGoogleDrive()
	lg := DefaultLogging()
	return map[string]any{
		"polling_interval":     g.PollingInterval,
		"polling_delay":        g.PollingDelay,
		"dispatch_interval":    g.DispatchInterval,
		"task_check_interval":  g.TaskCheckInterval,
		"page_size":            g.PageSize,
		"ignore_folder":        g.IgnoreFolder,
		"patterns":             toAnySlice(g.Patterns),
		"ignore_patterns":      toAnySlice(g.IgnorePatterns),
		"actions":              toAnySlice(g.Actions),
		"buffer_interval":      g.BufferInterval,
		"pollers":              []any{},
		"google_drive": map[string]any{
			"scopes":        toAnySlice(gd.Scopes),
			"cache_enable":  gd.CacheEnable,
			"cache_ttl":     gd.CacheTTL,
			"cache_maxsize": gd.CacheMaxSize,
			"token": map[string]any{
				"client_id":     gd.Token.ClientID,
				"client_secret": gd.Token.ClientSecret,
				"refresh_token": gd.Token.RefreshToken,
				"token":         gd.Token.Token,
			},
		},
		"logging": map[string]any{
			"level":               lg.Level,
			"format":              lg.Format,
			"date_format":         lg.DateFormat,
			"redacted_patterns":   toAnySlice(lg.RedactedPatterns),
			"redacted_substitute": lg.RedactedSubstitute,
		},
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// applyEnvOverrides mutates merged in place, replacing any key listed in
// envOverridable whose corresponding GDRELAY_-prefixed env var is set.
func applyEnvOverrides(merged map[string]any) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envOverridable {
		_ = v.BindEnv(key)
		if !v.IsSet(key) {
			continue
		}
		setDotted(merged, key, v.Get(key))
	}
}

func setDotted(m map[string]any, dotted string, value any) {
	parts := strings.Split(dotted, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
}
