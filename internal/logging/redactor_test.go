package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactor_SingleCaptureGroup(t *testing.T) {
	r := NewRedactor([]string{`apikey=(.{10,36})`}, "<REDACTED>")
	got := r.Redact("request to host?apikey=abcdefabcdefabcdef done")
	assert.Equal(t, "request to host?apikey=<REDACTED> done", got)
}

func TestRedactor_TwoCaptureGroups(t *testing.T) {
	r := NewRedactor([]string{`webhooks/(.+)/(.+):\s\{`}, "<REDACTED>")
	got := r.Redact(`POST https://discord.com/api/webhooks/123456789/abcDEFtoken: {"embeds":[]}`)
	assert.Equal(t, `POST https://discord.com/api/webhooks/<REDACTED>/<REDACTED>: {"embeds":[]}`, got)
}

func TestRedactor_InvalidPatternIsSkipped(t *testing.T) {
	r := NewRedactor([]string{`(unterminated`, `apikey=(.{3})`}, "<REDACTED>")
	got := r.Redact("apikey=xyz")
	assert.Equal(t, "apikey=<REDACTED>", got)
}

func TestRedactor_NoMatchIsUnchanged(t *testing.T) {
	r := NewRedactor([]string{`apikey=(.{10,36})`}, "<REDACTED>")
	got := r.Redact("nothing sensitive here")
	assert.Equal(t, "nothing sensitive here", got)
}
