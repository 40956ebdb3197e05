package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

// discordColors maps an action to the embed's side color, exactly the
// palette original_source's DiscordDispatcher uses (anything not listed
// falls back to "default").
var discordColors = map[activity.Action]int{
	"default":            0,
	activity.ActionMove:   3447003,
	activity.ActionCreate: 5763719,
	activity.ActionDelete: 15548997,
	activity.ActionEdit:   16776960,
}

func discordColor(a activity.Action) int {
	if c, ok := discordColors[a]; ok {
		return c
	}
	return discordColors["default"]
}

// Discord posts one embed per event to a webhook, immediately rather
// than buffered (original_source's DiscordDispatcher.dispatch).
type Discord struct {
	NopLifecycle
	Base
	client *receiver.Discord
	poller string
}

// NewDiscord builds a Discord dispatcher. poller names the owning
// poller, used as the embed's author.
func NewDiscord(session *httpsession.Session, webhookURL, poller string, mappings []string) (*Discord, error) {
	client, err := receiver.NewDiscord(session, webhookURL)
	if err != nil {
		return nil, err
	}
	return &Discord{Base: Base{Mappings: parseMappings(mappings)}, client: client, poller: poller}, nil
}

// Dispatch sends a single embed describing e.
func (d *Discord) Dispatch(ctx context.Context, e *activity.ActivityEvent) error {
	mappedPath := d.MapPath(e.Path)

	fields := []receiver.EmbedField{
		{Name: "Path", Value: mappedPath},
	}
	if e.Action == activity.ActionMove {
		from := e.RemovedPath
		if from == "" {
			from = "unknown"
		}
		fields = append(fields, receiver.EmbedField{Name: "From", Value: from})
	}
	if detail, ok := actionDetailText(e.ActionDetail); ok {
		fields = append(fields, receiver.EmbedField{Name: "Details", Value: detail})
	}
	fields = append(fields,
		receiver.EmbedField{Name: "ID", Value: e.Target.ItemName},
		receiver.EmbedField{Name: "MIME", Value: e.Target.MimeType},
	)
	if e.Link != "" {
		fields = append(fields, receiver.EmbedField{Name: "Link", Value: e.Link})
	}
	fields = append(fields, receiver.EmbedField{Name: "Occurred at", Value: e.TimestampText})

	embed := receiver.Embed{
		Author:      d.poller,
		Title:       e.Target.Title,
		Description: "# " + strings.ToUpper(string(e.Action)),
		Color:       discordColor(e.Action),
		Fields:      fields,
	}
	_, err := d.client.Send(ctx, embed)
	return err
}

// actionDetailText renders action_detail when (and only when) it is a
// plain string or an integer, matching the original's isinstance(detail,
// (str, int)) guard — structured details (MoveDetail, lists) get their
// own dedicated field or none at all.
func actionDetailText(detail any) (string, bool) {
	switch v := detail.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}
