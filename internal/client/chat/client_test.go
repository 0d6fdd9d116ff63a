package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/internal/client"
	chatmodel "github.com/zhouzirui/persona-chat/internal/model/chat"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithDoer(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestSendPostsMessageAndCharacter(t *testing.T) {
	var got chatmodel.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"Say my name."}`))
	})

	reply, err := c.Send(context.Background(), "  who are you ", "walter-white")
	require.NoError(t, err)
	assert.Equal(t, "Say my name.", reply)
	assert.Equal(t, "  who are you ", got.Message)
	assert.Equal(t, "walter-white", got.Character)
}

func TestSendSoftFallbackOnMissingReply(t *testing.T) {
	for name, body := range map[string]string{
		"missing field": `{"detail":"ok"}`,
		"null field":    `{"response":null}`,
		"empty field":   `{"response":""}`,
		"number field":  `{"response":123}`,
		"array body":    `[]`,
		"string body":   `"hello"`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			reply, err := c.Send(context.Background(), "hi", "dexter")
			require.NoError(t, err)
			assert.Equal(t, FallbackReply, reply)
		})
	}
}

func TestSendMalformedBodyIsError(t *testing.T) {
	for name, body := range map[string]string{
		"html":      `<html>oops</html>`,
		"null body": `null`,
		"truncated": `{"response":`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			reply, err := c.Send(context.Background(), "hi", "dexter")
			require.Error(t, err)
			assert.Empty(t, reply)
			assert.True(t, errors.Is(err, client.ErrBadResponse))
		})
	}
}

func TestSendKeepsReplyVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"  Say my name.  ","extra":true}`))
	})

	reply, err := c.Send(context.Background(), "hi", "walter-white")
	require.NoError(t, err)
	assert.Equal(t, "  Say my name.  ", reply)
}

func TestSendNonSuccessStatusIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"response":"should be ignored"}`))
	})

	_, err := c.Send(context.Background(), "hi", "dexter")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrBadResponse))
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)

	_, err = c.Send(context.Background(), "hi", "dexter")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrNetworkFailure))
}

func TestNewRejectsInvalidBase(t *testing.T) {
	_, err := New("::nope")
	assert.Error(t, err)
}
