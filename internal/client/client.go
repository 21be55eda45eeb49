package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kbukum/convoview/httpclient"
	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/api"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/internal/stats"
	"github.com/kbukum/convoview/internal/timeline"
	"github.com/kbukum/convoview/internal/transcript"
	"github.com/kbukum/convoview/resilience"
	"github.com/kbukum/convoview/security"
	"github.com/kbukum/convoview/server"
)

var (
	// ErrNotFound is returned when the server answers 404.
	ErrNotFound = errors.New("client: not found")
	// ErrUnavailable covers timeouts, refused connections and 5xx answers
	// that survived the retries.
	ErrUnavailable = errors.New("client: server unavailable")
)

// Config configures the fetcher.
type Config struct {
	// BaseURL is the facade root, e.g. http://localhost:8000.
	BaseURL string `yaml:"server" mapstructure:"server"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts bounds retries of timeouts, connection failures and 5xx.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// Token is a bearer token sent with every request.
	Token string `yaml:"token" mapstructure:"token"`

	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

// Validate checks the section.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("viewer.server must be an absolute URL (got: %q)", c.BaseURL)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("viewer.max_attempts must be at least 1 (got: %d)", c.MaxAttempts)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("viewer.%w", err)
	}
	return nil
}

// Page is one page of the conversation list.
type Page struct {
	Items []conversation.Conversation
	Meta  server.Meta
}

// Client fetches conversations and their analysis from the facade.
type Client struct {
	http  *httpclient.Client
	retry resilience.RetryConfig
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	retry := httpclient.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxAttempts

	hc, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{"Accept": "application/json"},
		Retry:   retry,
		TLS:     &cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{http: hc, retry: *retry}
	if cfg.Token != "" {
		c.SetToken(cfg.Token)
	}
	return c, nil
}

// BaseURL returns the facade root.
func (c *Client) BaseURL() string { return c.http.BaseURL() }

// SetToken sends token as a bearer credential from now on.
func (c *Client) SetToken(token string) {
	c.http.SetAuth(httpclient.BearerAuth(token))
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (account.Token, error) {
	var tok account.Token
	err := c.call(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/api/auth/login",
		Body:    url.Values{"username": {username}, "password": {password}},
		NoRetry: true,
	}, &tok, nil)
	if err != nil {
		return tok, err
	}
	c.SetToken(tok.AccessToken)
	return tok, nil
}

// List fetches one page of conversations, newest first.
func (c *Client) List(ctx context.Context, page, pageSize int) (Page, error) {
	var p Page
	q := map[string]string{}
	if page > 0 {
		q["page"] = strconv.Itoa(page)
	}
	if pageSize > 0 {
		q["page_size"] = strconv.Itoa(pageSize)
	}
	err := c.call(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/conversations", Query: q}, &p.Items, &p.Meta)
	return p, err
}

// Get fetches a conversation with its document.
func (c *Client) Get(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var conv conversation.Conversation
	if err := c.get(ctx, fmt.Sprintf("/api/conversations/%d", id), nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create uploads a document and returns the assigned id. It is sent once:
// a retried create could store the document twice.
func (c *Client) Create(ctx context.Context, name, path string, data json.RawMessage) (uint, error) {
	var out struct {
		ID uint `json:"id"`
	}
	err := c.call(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/api/conversations",
		Query:   map[string]string{"fname": name, "fpath": path},
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(data),
		NoRetry: true,
	}, &out, nil)
	return out.ID, err
}

// Stats fetches the aggregate statistics of a conversation.
func (c *Client) Stats(ctx context.Context, id uint) (*stats.Stats, error) {
	var s stats.Stats
	if err := c.get(ctx, fmt.Sprintf("/api/analyze/stats/%d", id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Fragments fetches the fragments matching q.
func (c *Client) Fragments(ctx context.Context, id uint, q transcript.Query) (*api.FragmentsResponse, error) {
	query := map[string]string{}
	if q.Text != "" {
		query["q"] = q.Text
	}
	if q.Class != "" {
		query["class"] = q.Class
	}
	if q.Emotion != "" {
		query["emotion"] = q.Emotion
	}
	if q.Speaker != nil {
		query["speaker"] = strconv.Itoa(*q.Speaker)
	}
	var out api.FragmentsResponse
	if err := c.get(ctx, fmt.Sprintf("/api/conversations/%d/fragments", id), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Regions fetches the timeline regions in the given mode.
func (c *Client) Regions(ctx context.Context, id uint, mode timeline.Mode) (*api.RegionsResponse, error) {
	var out api.RegionsResponse
	err := c.get(ctx, fmt.Sprintf("/api/conversations/%d/regions", id), map[string]string{"mode": string(mode)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AudioURL resolves where the conversation's audio can be fetched from.
// Relative stream paths are made absolute against the base URL.
func (c *Client) AudioURL(ctx context.Context, id uint) (media.Link, error) {
	var link media.Link
	if err := c.get(ctx, fmt.Sprintf("/api/conversations/%d/audio/url", id), nil, &link); err != nil {
		return link, err
	}
	if u, err := url.Parse(link.URL); err == nil && !u.IsAbs() {
		if base, err := url.Parse(c.BaseURL()); err == nil {
			link.URL = base.ResolveReference(u).String()
		}
	}
	return link, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.call(ctx, httpclient.Request{Method: http.MethodGet, Path: path, Query: query}, out, nil)
}

// call runs req and decodes the {data, meta} envelope into out and meta.
func (c *Client) call(ctx context.Context, req httpclient.Request, out any, meta *server.Meta) error {
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return translate(err)
	}
	env := struct {
		Data json.RawMessage `json:"data"`
		Meta *server.Meta    `json:"meta"`
	}{}
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", req.Method, req.Path, err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("client: decode %s %s data: %w", req.Method, req.Path, err)
		}
	}
	if meta != nil && env.Meta != nil {
		*meta = *env.Meta
	}
	return nil
}

func translate(err error) error {
	switch {
	case httpclient.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case httpclient.IsTimeout(err), httpclient.IsConnection(err), httpclient.IsServerError(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Event is a server notification.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// Created decodes a conversation.created payload.
func (e Event) Created() (conversation.CreatedEvent, error) {
	var ev conversation.CreatedEvent
	err := json.Unmarshal(e.Data, &ev)
	return ev, err
}

// Subscription is an open event stream.
type Subscription struct {
	stream *httpclient.StreamResponse
}

// Subscribe opens the event stream. The initial connection is retried
// like any other request; a broken stream is not.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	stream, err := resilience.Retry(ctx, c.retry, func() (*httpclient.StreamResponse, error) {
		return c.http.DoStream(ctx, httpclient.Request{
			Method:  http.MethodGet,
			Path:    "/api/events",
			Headers: map[string]string{"Accept": "text/event-stream"},
		})
	})
	if err != nil {
		return nil, translate(err)
	}
	if stream.SSE == nil {
		_ = stream.Close()
		return nil, fmt.Errorf("client: /api/events did not return an event stream")
	}
	return &Subscription{stream: stream}, nil
}

// Next blocks until the next event. It returns io.EOF when the server
// closes the stream.
func (s *Subscription) Next() (Event, error) {
	ev, err := s.stream.SSE.Next()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return Event{}, err
	}
	return Event{ID: ev.ID, Type: ev.Event, Data: json.RawMessage(ev.Data)}, nil
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	return s.stream.Close()
}
