package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	netErr := &Error{Kind: KindNetwork, Op: "chat", Err: errors.New("refused")}
	wrapped := fmt.Errorf("submit: %w", netErr)

	assert.True(t, errors.Is(wrapped, ErrNetworkFailure))
	assert.False(t, errors.Is(wrapped, ErrBadResponse))
	assert.Equal(t, KindNetwork, KindOf(wrapped))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindBadResponse, Op: "speak", Status: 500, Err: errors.New("boom")}
	assert.Equal(t, "speak: bad response (status 500): boom", err.Error())
}

func TestEndpoint(t *testing.T) {
	got, err := Endpoint("http://localhost:8000", "/api/chat/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/chat/", got)

	got, err = Endpoint("https://example.com/prefix/", "/api/speak/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/prefix/api/speak/", got)

	got, err = Endpoint("", "/api/chat/")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL+"/api/chat/", got)

	_, err = Endpoint("not a url", "/api/chat/")
	assert.Error(t, err)
}

func TestPostJSONStatusIsBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := PostJSON(context.Background(), srv.Client(), "chat", srv.URL, map[string]string{"a": "b"})
	require.Error(t, err)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindBadResponse, ce.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ce.Status)
}

func TestPostJSONTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := PostJSON(context.Background(), http.DefaultClient, "chat", url, struct{}{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetworkFailure))
}
