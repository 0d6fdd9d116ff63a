// Package client holds what the remote chat and speech clients share: the
// error kinds they report and the JSON POST round trip.
package client

import (
	"errors"
	"fmt"
)

// Kind classifies a remote call failure.
type Kind int

const (
	// KindNetwork covers transport-level failures: DNS, refused connections, resets.
	KindNetwork Kind = iota + 1
	// KindBadResponse covers non-2xx statuses and bodies that cannot be used.
	KindBadResponse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network failure"
	case KindBadResponse:
		return "bad response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against an *Error.
var (
	ErrNetworkFailure = errors.New("network failure")
	ErrBadResponse    = errors.New("bad response")
)

// Error is returned by every remote client call that fails.
type Error struct {
	Kind   Kind
	Op     string // "chat" or "speak"
	Status int    // HTTP status, zero when no response was received
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetworkFailure:
		return e.Kind == KindNetwork
	case ErrBadResponse:
		return e.Kind == KindBadResponse
	}
	return false
}

// KindOf returns the Kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
