// Package config loads and merges gdrelay's settings: a global defaults
// section, a Google Drive credentials/cache section, a logging section,
// and a list of poller configs that inherit unset fields from the
// globals (SPEC_FULL.md §2 Ambient Stack, grounded on
// original_source/gd_poller/models.py).
package config

// GlobalDefaults holds the polling/dispatch knobs every poller inherits
// unless it sets its own value. Mirrors models.py's GlobalConfig.
type GlobalDefaults struct {
	PollingInterval   int      `yaml:"polling_interval" mapstructure:"polling_interval"`
	PollingDelay      int      `yaml:"polling_delay" mapstructure:"polling_delay"`
	DispatchInterval  int      `yaml:"dispatch_interval" mapstructure:"dispatch_interval"`
	TaskCheckInterval int      `yaml:"task_check_interval" mapstructure:"task_check_interval"`
	PageSize          int      `yaml:"page_size" mapstructure:"page_size"`
	IgnoreFolder      bool     `yaml:"ignore_folder" mapstructure:"ignore_folder"`
	Patterns          []string `yaml:"patterns" mapstructure:"patterns"`
	IgnorePatterns    []string `yaml:"ignore_patterns" mapstructure:"ignore_patterns"`
	Actions           []string `yaml:"actions" mapstructure:"actions"`
	BufferInterval    int      `yaml:"buffer_interval" mapstructure:"buffer_interval"`
}

// DefaultGlobals returns the hardcoded defaults from models.py's
// GlobalConfig field defaults.
func DefaultGlobals() GlobalDefaults {
	return GlobalDefaults{
		PollingInterval:   60,
		PollingDelay:      0,
		DispatchInterval:  1,
		TaskCheckInterval: -1,
		PageSize:          100,
		IgnoreFolder:      true,
		Patterns:          []string{".*"},
		IgnorePatterns:    nil,
		Actions:           nil,
		BufferInterval:    30,
	}
}

// GoogleDriveTokenConfig holds the OAuth2 refresh credentials used to
// bootstrap a token source (internal/driveapi).
type GoogleDriveTokenConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token"`
	Token        string `yaml:"token" mapstructure:"token"`
}

// GoogleDriveConfig configures API scopes, credentials, and the Path
// Resolver's optional TTL cache (SPEC_FULL.md's DOMAIN STACK row for
// hashicorp/golang-lru/v2/expirable).
type GoogleDriveConfig struct {
	Scopes       []string               `yaml:"scopes" mapstructure:"scopes"`
	Token        GoogleDriveTokenConfig `yaml:"token" mapstructure:"token"`
	CacheEnable  bool                   `yaml:"cache_enable" mapstructure:"cache_enable"`
	CacheTTL     int                    `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheMaxSize int                    `yaml:"cache_maxsize" mapstructure:"cache_maxsize"`
}

const driveScopeBase = "https://www.googleapis.com/auth/"

// DefaultGoogleDrive returns the hardcoded defaults from models.py's
// get_default_google_drive_settings.
func DefaultGoogleDrive() GoogleDriveConfig {
	return GoogleDriveConfig{
		Scopes:       []string{"drive.readonly", "drive.activity.readonly"},
		Token:        GoogleDriveTokenConfig{},
		CacheEnable:  false,
		CacheTTL:     600,
		CacheMaxSize: 64,
	}
}

// ResolveScopes expands each configured scope against the standard
// Google OAuth2 scope base URL, matching model_post_init's
// urljoin(".../auth/", scope) behavior.
func (g GoogleDriveConfig) ResolveScopes() []string {
	out := make([]string, len(g.Scopes))
	for i, s := range g.Scopes {
		if hasScheme(s) {
			out[i] = s
			continue
		}
		out[i] = driveScopeBase + s
	}
	return out
}

func hasScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ':':
			return i > 0
		case '/', ' ':
			return false
		}
	}
	return false
}

// LoggingConfig configures slog's level/format and the redaction handler's
// patterns (SPEC_FULL.md AMBIENT STACK).
type LoggingConfig struct {
	Level              string   `yaml:"level" mapstructure:"level"`
	Format             string   `yaml:"format" mapstructure:"format"`
	DateFormat         string   `yaml:"date_format" mapstructure:"date_format"`
	RedactedPatterns   []string `yaml:"redacted_patterns" mapstructure:"redacted_patterns"`
	RedactedSubstitute string   `yaml:"redacted_substitute" mapstructure:"redacted_substitute"`
}

// DefaultLogging returns the hardcoded defaults from models.py's
// get_default_logging_settings.
func DefaultLogging() LoggingConfig {
	return LoggingConfig{
		Level:      "debug",
		Format:     "%(asctime)s,%(msecs)03d|%(levelname)-8s %(message)s ... %(filename)s:%(lineno)d",
		DateFormat: "%Y-%m-%dT%H:%M:%S",
		RedactedPatterns: []string{
			`apikey=(.{10,36})`,
			`['"]apikey['"]: ['"](.{10,36})['"]`,
			`['"]X-Plex-Token['"]: ['"](.{20})['"]`,
			`['"]X-Plex-Token=(.{20})['"]`,
			`webhooks/(.+)/(.+):\s{`,
		},
		RedactedSubstitute: "<REDACTED>",
	}
}

// DispatcherConfig describes one configured dispatcher instance: its
// class name plus a free-form extra map, mirroring DispatcherConfig's
// pydantic extra="allow" behavior (SPEC_FULL.md §4.5).
type DispatcherConfig struct {
	Class          string
	BufferInterval *int
	Extra          map[string]any
}

// DeepCopy returns an independent copy of d, recursively cloning Extra
// so that YAML-anchor sharing between dispatcher blocks (a common
// settings.yaml authoring shortcut) never lets one poller's runtime
// mutation bleed into another's (Design Note, §9).
func (d DispatcherConfig) DeepCopy() DispatcherConfig {
	cp := d
	if d.BufferInterval != nil {
		v := *d.BufferInterval
		cp.BufferInterval = &v
	}
	if d.Extra != nil {
		cp.Extra = deepCopyMap(d.Extra)
	}
	return cp
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return t
	}
}

// PollerConfig describes one poller: its watched targets, dispatchers,
// and per-field overrides of GlobalDefaults (nil means "inherit",
// mirroring PollerConfig's all-optional override fields in models.py).
type PollerConfig struct {
	Name        string
	Targets     []string
	Dispatchers []DispatcherConfig

	PollingInterval   *int
	PollingDelay      *int
	DispatchInterval  *int
	TaskCheckInterval *int
	PageSize          *int
	IgnoreFolder      *bool
	Patterns          []string
	IgnorePatterns    []string
	Actions           []string
	BufferInterval    *int

	// Effective holds the fully-resolved knobs after Load propagates
	// unset overrides from the parent Settings' GlobalDefaults
	// (populated by resolvePollers, never set directly from YAML).
	Effective GlobalDefaults
}

// Settings is the fully loaded, merged, and propagated configuration
// tree (mirrors models.py's AppSettings).
type Settings struct {
	GlobalDefaults
	GoogleDrive GoogleDriveConfig
	Pollers     []PollerConfig
	Logging     LoggingConfig
}
