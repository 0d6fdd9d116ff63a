// Package chat is the remote chat client: one POST per user message.
package chat

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zhouzirui/persona-chat/internal/client"
	chatmodel "github.com/zhouzirui/persona-chat/internal/model/chat"
)

// FallbackReply is returned, as a successful result, when the service answers
// with valid JSON that carries no string reply. A literal null body is an
// error.
const FallbackReply = "Not able to listen... try again."

const endpointPath = "/api/chat/"

// Client talks to the remote chat endpoint.
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

// New builds a client for baseURL. The default transport has no timeout.
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
	c.logger = c.logger.Named("chat-client")
	return c, nil
}

// Send posts text for characterID and returns the character's reply.
func (c *Client) Send(ctx context.Context, text, characterID string) (string, error) {
	data, err := client.PostJSON(ctx, c.doer, "chat", c.endpoint, chatmodel.Request{
		Message:   text,
		Character: characterID,
	})
	if err != nil {
		c.logger.Warn("chat request failed", zap.String("character", characterID), zap.Error(err))
		return "", err
	}

	var body any
	if err := client.Decode("chat", data, &body); err != nil {
		c.logger.Warn("chat response unreadable", zap.String("character", characterID), zap.Error(err))
		return "", err
	}
	if body == nil {
		err := &client.Error{Kind: client.KindBadResponse, Op: "chat", Err: errors.New("body is null")}
		c.logger.Warn("chat response unreadable", zap.String("character", characterID), zap.Error(err))
		return "", err
	}

	reply, ok := replyField(body)
	if !ok {
		c.logger.Info("chat response has no reply, using fallback", zap.String("character", characterID))
		return FallbackReply, nil
	}
	return reply, nil
}

// replyField extracts a non-empty string "response" from a decoded body.
// Any other shape counts as no reply.
func replyField(body any) (string, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return "", false
	}
	reply, ok := obj["response"].(string)
	if !ok || reply == "" {
		return "", false
	}
	return reply, true
}
