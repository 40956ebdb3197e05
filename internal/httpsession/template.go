package httpsession

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Endpoint is the declarative description of one receiver API call: a URL
// template with "{named}" placeholders, an HTTP method, and an optional
// minimum interval between calls (SPEC_FULL.md §4.2).
type Endpoint struct {
	Name     string
	Template string
	Method   string
	Interval float64 // seconds; 0 disables gating
}

// Client composes a base URL (scheme+host+base path, as parsed once at
// construction) with each call's expanded Endpoint template. Concrete
// receiver clients (internal/receiver/*) hold a Client and add one
// method per Endpoint that builds a Call describing the params/data/json/
// headers/auth/format substitutions for that invocation, expands it and
// issues it through the Session — mirroring the
// teacher corpus's "one small file per concern" pattern applied to the
// source's decorator-based http_api descriptor.
type Client struct {
	Session   *Session
	base      *url.URL
	endpoints map[string]Endpoint
}

// NewClient parses baseURL once and registers its endpoints' rate gates
// on session.
func NewClient(session *Session, baseURL string, endpoints []Endpoint) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpsession: parse base url %q: %w", baseURL, err)
	}
	c := &Client{Session: session, base: u, endpoints: make(map[string]Endpoint, len(endpoints))}
	for _, ep := range endpoints {
		c.endpoints[ep.Name] = ep
		if ep.Interval > 0 {
			session.Gate(ep.Name, ep.Interval)
		}
	}
	return c, nil
}

// BaseURL returns the client's parsed base URL, for clients (e.g. Rclone)
// that need to read the fragment or other parts directly.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// Call is what a concrete client's per-endpoint method passes to Expand:
// the named substitutions for that invocation.
type Call struct {
	Params  url.Values
	Form    url.Values // application/x-www-form-urlencoded body
	JSON    any
	Headers map[string]string
	Auth    *BasicAuth
	Format  map[string]string // extra/overriding template substitutions
}

// Expand builds the final Request for endpointName, substituting Format
// values (falling back to pathArgs) into the template placeholders, and
// joining the result onto the client's base URL.
func (c *Client) Expand(endpointName string, pathArgs map[string]string, call Call) (Request, error) {
	ep, ok := c.endpoints[endpointName]
	if !ok {
		return Request{}, fmt.Errorf("httpsession: unknown endpoint %q", endpointName)
	}

	subs := make(map[string]string, len(pathArgs)+len(call.Format))
	for k, v := range pathArgs {
		subs[k] = v
	}
	for k, v := range call.Format {
		subs[k] = v
	}

	path, err := expandTemplate(ep.Template, subs)
	if err != nil {
		return Request{}, fmt.Errorf("httpsession: expand %q: %w", endpointName, err)
	}

	full := *c.base
	full.Path = joinPath(full.Path, path)

	req := Request{
		Method: ep.Method,
		URL:    full.String(),
		Params: call.Params,
		Form:   call.Form,
		JSON:   call.JSON,
		Auth:   call.Auth,
	}
	if len(call.Headers) > 0 {
		req.Headers = make(map[string][]string, len(call.Headers))
		for k, v := range call.Headers {
			req.Headers[k] = []string{v}
		}
	}
	return req, nil
}

func expandTemplate(template string, subs map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(template, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := subs[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing template values: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func joinPath(base, rel string) string {
	base = strings.TrimSuffix(base, "/")
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return base
	}
	return base + "/" + rel
}
