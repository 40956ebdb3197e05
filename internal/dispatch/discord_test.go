package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
)

func TestDiscord_Dispatch_PostsEmbedWithFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDiscord(httpsession.NewSession(nil), srv.URL, "movies", nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{
		Action:        activity.ActionCreate,
		Path:          "/movies/Arrival (2016)",
		Target:        activity.TargetTuple{Title: "Arrival (2016)", ItemName: "items/123", MimeType: "video/mp4"},
		TimestampText: "2026-07-31T00:00:00Z",
	}
	require.NoError(t, d.Dispatch(context.Background(), e))

	embeds, _ := body["embeds"].([]any)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "Arrival (2016)", embed["title"])
	assert.Equal(t, "# CREATE", embed["description"])
	assert.EqualValues(t, discordColors[activity.ActionCreate], embed["color"])

	fields := embed["fields"].([]any)
	first := fields[0].(map[string]any)
	assert.Equal(t, "Path", first["name"])
	assert.Equal(t, "/movies/Arrival (2016)", first["value"])
}

func TestDiscord_Dispatch_MoveFromUsesRemovedPath(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDiscord(httpsession.NewSession(nil), srv.URL, "movies", nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{
		Action:      activity.ActionMove,
		Path:        "/movies/Arrival (2016)",
		RemovedPath: "/incoming/Arrival (2016)",
		Target:      activity.TargetTuple{Title: "Arrival (2016)"},
	}
	require.NoError(t, d.Dispatch(context.Background(), e))

	embed := body["embeds"].([]any)[0].(map[string]any)
	fields := embed["fields"].([]any)
	var from string
	for _, f := range fields {
		field := f.(map[string]any)
		if field["name"] == "From" {
			from = field["value"].(string)
		}
	}
	assert.Equal(t, "/incoming/Arrival (2016)", from)
}

func TestDiscord_Dispatch_MoveFromFallsBackToUnknownWithoutRemovedPath(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d, err := NewDiscord(httpsession.NewSession(nil), srv.URL, "movies", nil)
	require.NoError(t, err)

	e := &activity.ActivityEvent{
		Action: activity.ActionMove,
		Path:   "/movies/Arrival (2016)",
		Target: activity.TargetTuple{Title: "Arrival (2016)"},
	}
	require.NoError(t, d.Dispatch(context.Background(), e))

	embed := body["embeds"].([]any)[0].(map[string]any)
	fields := embed["fields"].([]any)
	var from string
	for _, f := range fields {
		field := f.(map[string]any)
		if field["name"] == "From" {
			from = field["value"].(string)
		}
	}
	assert.Equal(t, "unknown", from)
}

func TestActionDetailText_OnlyStringsAndInts(t *testing.T) {
	v, ok := actionDetailText("queued")
	assert.True(t, ok)
	assert.Equal(t, "queued", v)

	v, ok = actionDetailText(42)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = actionDetailText(activity.MoveDetail{})
	assert.False(t, ok)

	_, ok = actionDetailText(nil)
	assert.False(t, ok)
}
