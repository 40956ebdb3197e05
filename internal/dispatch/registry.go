package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/gdrelay/gdrelay/internal/config"
	"github.com/gdrelay/gdrelay/internal/httpsession"
)

// Build constructs the concrete Dispatcher named by cfg.Class, reading
// its class-specific fields out of cfg.Extra. poller names the owning
// poller (used by Discord's embed author and log fields); bufferInterval
// is the poller's already-propagated effective buffer interval, used
// when cfg itself sets none.
func Build(session *httpsession.Session, poller string, cfg config.DispatcherConfig, bufferInterval int, logger *slog.Logger) (Dispatcher, error) {
	if cfg.BufferInterval != nil {
		bufferInterval = *cfg.BufferInterval
	}
	extra := cfg.Extra
	mappings := extraStringSlice(extra, "mappings")

	switch cfg.Class {
	case "DummyDispatcher":
		return NewDummy(logger, mappings), nil

	case "PlexDispatcher":
		return NewPlex(session, extraString(extra, "url"), extraString(extra, "token"), mappings)

	case "RcloneDispatcher":
		return NewRclone(session, extraString(extra, "url"), mappings, logger)

	case "KavitaDispatcher":
		return NewKavita(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings, bufferInterval, logger)

	case "DiscordDispatcher":
		return NewDiscord(session, extraString(extra, "webhook_url"), poller, mappings)

	case "GDSToolDispatcher":
		return NewGDSTool(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings, bufferInterval, logger)

	case "FlaskfarmaiderDispatcher":
		return NewFlaskfarmaider(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings, bufferInterval, logger)

	case "PlexmateDispatcher":
		return NewPlexmate(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings)

	case "CommandDispatcher":
		return NewCommand(
			extraString(extra, "command"),
			extraBool(extra, "wait_for_process", false),
			extraBool(extra, "drop_during_process", false),
			extraInt(extra, "timeout", 300),
			mappings, logger,
		)

	case "JellyfinDispatcher":
		return NewJellyfin(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings, bufferInterval, logger)

	case "StashDispatcher":
		return NewStash(session, extraString(extra, "url"), extraString(extra, "apikey"), mappings, bufferInterval, logger)

	case "MultiServerDispatcher", "PlexRcloneDispatcher":
		return buildMultiServer(session, extra, bufferInterval, logger)

	default:
		return nil, fmt.Errorf("dispatch: unknown dispatcher class %q", cfg.Class)
	}
}

// buildMultiServer builds a MultiServer from its "rclones" list (each
// {url, mappings}) and "folders" list (each {type, url, apikey/token,
// mappings}, type one of plex/kavita/jellyfin/stash). PlexRcloneDispatcher
// (deprecated single-pair form) is accepted as an alias whose "url"/
// "mappings"/"plex_url"/"plex_token"/"plex_mappings" fields are folded
// into the same shape.
func buildMultiServer(session *httpsession.Session, extra map[string]any, bufferInterval int, logger *slog.Logger) (Dispatcher, error) {
	rcloneSpecs := extraMapSlice(extra, "rclones")
	folderSpecs := extraMapSlice(extra, "folders")

	if _, isLegacy := extra["plex_url"]; isLegacy {
		rcloneSpecs = append(rcloneSpecs, map[string]any{
			"url":      extraString(extra, "url"),
			"mappings": extra["mappings"],
		})
		folderSpecs = append(folderSpecs, map[string]any{
			"type":     "plex",
			"url":      extraString(extra, "plex_url"),
			"token":    extraString(extra, "plex_token"),
			"mappings": extra["plex_mappings"],
		})
	}

	var rclones []Dispatcher
	for _, spec := range rcloneSpecs {
		d, err := NewRclone(session, extraString(spec, "url"), extraStringSlice(spec, "mappings"), logger)
		if err != nil {
			return nil, err
		}
		rclones = append(rclones, d)
	}

	var plexFolders, bufferedFolders []Dispatcher
	for _, spec := range folderSpecs {
		d, err := buildFolderSub(session, spec, bufferInterval, logger)
		if err != nil {
			return nil, err
		}
		if extraString(spec, "type") == "plex" {
			plexFolders = append(plexFolders, d)
		} else {
			bufferedFolders = append(bufferedFolders, d)
		}
	}

	return NewMultiServer(rclones, plexFolders, bufferedFolders, bufferInterval, logger), nil
}

func buildFolderSub(session *httpsession.Session, spec map[string]any, bufferInterval int, logger *slog.Logger) (Dispatcher, error) {
	mappings := extraStringSlice(spec, "mappings")
	switch extraString(spec, "type") {
	case "plex":
		return NewPlex(session, extraString(spec, "url"), extraString(spec, "token"), mappings)
	case "kavita":
		return NewKavita(session, extraString(spec, "url"), extraString(spec, "apikey"), mappings, bufferInterval, logger)
	case "jellyfin":
		return NewJellyfin(session, extraString(spec, "url"), extraString(spec, "apikey"), mappings, bufferInterval, logger)
	case "stash":
		return NewStash(session, extraString(spec, "url"), extraString(spec, "apikey"), mappings, bufferInterval, logger)
	default:
		return nil, fmt.Errorf("dispatch: unknown multiserver folder sub-dispatcher type %q", extraString(spec, "type"))
	}
}

func extraString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func extraBool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func extraInt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func extraStringSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func extraMapSlice(m map[string]any, key string) []map[string]any {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if mm, ok := v.(map[string]any); ok {
			out = append(out, mm)
		}
	}
	return out
}
