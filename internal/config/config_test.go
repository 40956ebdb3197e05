package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnlyWhenNoFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Load([]string{dir})
	require.NoError(t, err)

	assert.Equal(t, 60, s.PollingInterval)
	assert.Equal(t, -1, s.TaskCheckInterval)
	assert.True(t, s.IgnoreFolder)
	assert.Equal(t, []string{".*"}, s.Patterns)
	assert.Empty(t, s.Pollers)
}

func TestLoad_UserSettingsOverrideAndPropagate(t *testing.T) {
	dir := t.TempDir()
	yaml := `
polling_interval: 45
buffer_interval: 10
pollers:
  - targets: ["abc123#MOVIES"]
    dispatchers:
      - class: PlexDispatcher
        url: "http://plex:32400"
  - name: custom-poller
    targets: ["def456"]
    polling_interval: 15
    dispatchers:
      - class: DummyDispatcher
        buffer_interval: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(yaml), 0o644))

	s, err := Load([]string{dir})
	require.NoError(t, err)

	require.Len(t, s.Pollers, 2)

	first := s.Pollers[0]
	assert.Equal(t, "poller-0", first.Name)
	assert.Equal(t, 45, first.Effective.PollingInterval, "unset poller field inherits the global override")
	assert.Equal(t, 10, first.Effective.BufferInterval)
	require.Len(t, first.Dispatchers, 1)
	assert.Equal(t, "PlexDispatcher", first.Dispatchers[0].Class)
	assert.Equal(t, "http://plex:32400", first.Dispatchers[0].Extra["url"])
	assert.Equal(t, 10, *first.Dispatchers[0].BufferInterval, "dispatcher inherits poller's effective buffer_interval")

	second := s.Pollers[1]
	assert.Equal(t, "custom-poller", second.Name)
	assert.Equal(t, 15, second.Effective.PollingInterval, "poller's own override wins over global")
	assert.Equal(t, 5, *second.Dispatchers[0].BufferInterval, "dispatcher's own override wins over poller")
}

func TestLoad_ConfigYamlFallsBackWhenNoSettingsYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("polling_interval: 99\n"), 0o644))

	s, err := Load([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, 99, s.PollingInterval)
}

func TestLoad_EnvOverridesFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("polling_interval: 45\n"), 0o644))

	t.Setenv("GDRELAY_POLLING_INTERVAL", "7")
	s, err := Load([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, 7, s.PollingInterval)
}

func TestParseTarget_RoundTrip(t *testing.T) {
	cases := []string{"abc123#MOVIES", "abc123", "abc123#Shared Drive Root"}
	for _, c := range cases {
		tg, err := ParseTarget(c)
		require.NoError(t, err)
		assert.Equal(t, c, tg.String())
	}
}

func TestParseTarget_RejectsEmpty(t *testing.T) {
	_, err := ParseTarget("")
	assert.Error(t, err)
}

func TestDispatcherConfig_DeepCopyIsIndependent(t *testing.T) {
	shared := map[string]any{"nested": map[string]any{"a": 1}}
	orig := DispatcherConfig{Class: "X", Extra: shared}
	clone := orig.DeepCopy()

	clone.Extra["nested"].(map[string]any)["a"] = 999
	assert.Equal(t, 1, orig.Extra["nested"].(map[string]any)["a"], "deep copy must not share nested maps")
}
