// Package speech is the remote speech-synthesis client.
package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/client"
	speechmodel "github.com/zhouzirui/persona-chat/internal/model/speech"
)

const endpointPath = "/api/speak/"

// Client talks to the remote speech endpoint.
type Client struct {
	endpoint string
	doer     client.Doer
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithDoer swaps the HTTP transport, mostly for tests.
func WithDoer(d client.Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	endpoint, err := client.Endpoint(baseURL, endpointPath)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint: endpoint,
		doer:     &http.Client{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("speech-client")
	return c, nil
}

// Synthesize asks the service to voice text. Unlike the chat client there is
// no soft fallback: a body without an audio url is an error.
func (c *Client) Synthesize(ctx context.Context, text string) (speechmodel.AudioRef, error) {
	data, err := client.PostJSON(ctx, c.doer, "speak", c.endpoint, speechmodel.Request{Text: text})
	if err != nil {
		c.logger.Warn("speech request failed", zap.Error(err))
		return speechmodel.AudioRef{}, err
	}

	var body speechmodel.Response
	if err := client.Decode("speak", data, &body); err != nil {
		return speechmodel.AudioRef{}, err
	}

	raw := strings.TrimSpace(body.AudioURL)
	if raw == "" {
		return speechmodel.AudioRef{}, &client.Error{Kind: client.KindBadResponse, Op: "speak", Err: errors.New("response has no audio_url")}
	}

	resolved, err := c.resolve(raw)
	if err != nil {
		return speechmodel.AudioRef{}, &client.Error{Kind: client.KindBadResponse, Op: "speak", Err: err}
	}

	c.logger.Debug("speech synthesized", zap.String("url", resolved))
	return speechmodel.AudioRef{URL: resolved}, nil
}

// resolve makes relative audio urls absolute against the endpoint, the way a
// browser resolves them against the page.
func (c *Client) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid audio_url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	return base.ResolveReference(ref).String(), nil
}
