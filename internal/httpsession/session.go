// Package httpsession centralises the uniform request/response envelope
// and per-endpoint rate gating shared by every receiver client
// (SPEC_FULL.md §4.2).
package httpsession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "gdrelay/1.0 (+activity-relay)"

// Response is the uniform envelope every receiver client gets back,
// regardless of whether the call succeeded, failed transport-level, or
// returned a non-JSON body.
type Response struct {
	StatusCode int
	Content    []byte
	Exception  error
	JSON       map[string]any
	URL        string
}

// OK reports whether the response is a successful (2xx) HTTP response.
func (r Response) OK() bool {
	return r.Exception == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Session is a shared HTTP client wrapper: one default user-agent header,
// and a per-endpoint-key minimum-interval gate so a burst of dispatches
// never exceeds a receiver's declared rate (e.g. Discord's 1-per-1.5s).
type Session struct {
	client    *http.Client
	userAgent string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewSession builds a Session around the given *http.Client (nil selects
// http.DefaultClient).
func NewSession(client *http.Client) *Session {
	if client == nil {
		client = http.DefaultClient
	}
	return &Session{
		client:    client,
		userAgent: defaultUserAgent,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Request describes one HTTP call for Session.Do, which blocks first on
// the named endpoint's interval gate if one was registered via Gate.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Body    io.Reader  // used when JSON and Form are both nil
	Form    url.Values // marshalled as an application/x-www-form-urlencoded body
	JSON    any        // marshalled as the request body when non-nil; takes priority over Form
	Headers http.Header
	Auth    *BasicAuth
}

// BasicAuth holds HTTP basic-auth credentials for a request.
type BasicAuth struct {
	Username string
	Password string
}

// Gate registers (or replaces) a minimum-interval rate gate for the named
// endpoint. interval <= 0 disables gating for that name.
func (s *Session) Gate(name string, minInterval float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if minInterval <= 0 {
		delete(s.limiters, name)
		return
	}
	s.limiters[name] = rate.NewLimiter(rate.Limit(1/minInterval), 1)
}

// Do issues req, blocking on the named endpoint's gate (if any) first, and
// returns the uniform Response envelope. It never returns a Go error: a
// transport failure is captured in Response.Exception so callers can log
// and move on without special-casing network errors (§4.2/§7).
func (s *Session) Do(ctx context.Context, endpointName string, req Request) Response {
	if err := s.wait(ctx, endpointName); err != nil {
		return Response{Exception: err, URL: req.URL}
	}

	fullURL := req.URL
	if len(req.Params) > 0 {
		u, err := url.Parse(req.URL)
		if err != nil {
			return Response{Exception: fmt.Errorf("parse url: %w", err), URL: req.URL}
		}
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		fullURL = u.String()
	}

	var body io.Reader = req.Body
	isJSON := req.JSON != nil
	isForm := !isJSON && len(req.Form) > 0
	if isJSON {
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return Response{Exception: fmt.Errorf("marshal json body: %w", err), URL: fullURL}
		}
		body = bytes.NewReader(b)
	} else if isForm {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return Response{Exception: fmt.Errorf("build request: %w", err), URL: fullURL}
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	if isJSON {
		httpReq.Header.Set("Content-Type", "application/json")
	} else if isForm {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Auth != nil {
		httpReq.SetBasicAuth(req.Auth.Username, req.Auth.Password)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Response{Exception: err, URL: fullURL}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{StatusCode: resp.StatusCode, Exception: fmt.Errorf("read body: %w", err), URL: fullURL}
	}

	out := Response{StatusCode: resp.StatusCode, Content: content, URL: fullURL}
	var asJSON map[string]any
	if json.Unmarshal(content, &asJSON) == nil {
		out.JSON = asJSON
	}
	return out
}

func (s *Session) wait(ctx context.Context, endpointName string) error {
	s.mu.Lock()
	limiter := s.limiters[endpointName]
	s.mu.Unlock()
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
