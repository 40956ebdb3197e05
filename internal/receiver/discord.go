package receiver

import (
	"context"
	"fmt"

	"github.com/gdrelay/gdrelay/internal/httpsession"
)

const discordFieldLimit = 1024

// Discord wraps a single Discord webhook URL.
type Discord struct {
	client *httpsession.Client
}

// NewDiscord builds a Discord client from a full webhook URL
// ("https://discord.com/api/webhooks/{id}/{token}").
func NewDiscord(session *httpsession.Session, webhookURL string) (*Discord, error) {
	client, err := httpsession.NewClient(session, webhookURL, []httpsession.Endpoint{
		{Name: "execute", Template: "", Method: "POST", Interval: 1.5},
	})
	if err != nil {
		return nil, fmt.Errorf("receiver: new discord client: %w", err)
	}
	return &Discord{client: client}, nil
}

// EmbedField is one name/value pair in a Discord embed, truncated to
// Discord's 1024-character field-value limit.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

func truncateField(v string) string {
	if len(v) <= discordFieldLimit {
		return v
	}
	return v[:discordFieldLimit-1] + "…"
}

// Embed is a minimal Discord embed object: author, title, description,
// color, and fields.
type Embed struct {
	Author      string
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
}

func (e Embed) toPayload() map[string]any {
	fields := make([]map[string]any, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, map[string]any{
			"name":   f.Name,
			"value":  truncateField(f.Value),
			"inline": f.Inline,
		})
	}
	payload := map[string]any{
		"title":       e.Title,
		"description": e.Description,
		"color":       e.Color,
		"fields":      fields,
	}
	if e.Author != "" {
		payload["author"] = map[string]any{"name": e.Author}
	}
	return payload
}

// Send posts a single embed to the webhook.
func (d *Discord) Send(ctx context.Context, embed Embed) (httpsession.Response, error) {
	req, err := d.client.Expand("execute", nil, httpsession.Call{
		JSON: map[string]any{"embeds": []map[string]any{embed.toPayload()}},
	})
	if err != nil {
		return httpsession.Response{}, err
	}
	return d.client.Session.Do(ctx, "execute", req), nil
}
