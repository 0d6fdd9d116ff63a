package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the hosted persona service.
const DefaultBaseURL = "https://api-persona-chat.onrender.com"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Doer is the part of *http.Client the clients need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoint resolves path against base, keeping any path prefix base carries.
func Endpoint(base, path string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host are required", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

// PostJSON sends payload to endpoint and returns the raw response body.
// Transport failures come back as KindNetwork, non-2xx statuses as
// KindBadResponse.
func PostJSON(ctx context.Context, doer Doer, op, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindBadResponse, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", snippet(data))}
	}

	return data, nil
}

// Decode unmarshals a response body, reporting failures as KindBadResponse.
func Decode(op string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindBadResponse, Op: op, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

func snippet(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
