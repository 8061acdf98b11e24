package remote

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrAuthorizationPending means the user has not entered the code yet;
	// the device flow keeps polling.
	ErrAuthorizationPending = errors.New("authorization pending")

	// ErrCodeExpired is the remote's definitive "not pending" answer: the
	// device code lapsed before the user completed it.
	ErrCodeExpired = errors.New("device code expired")

	// ErrNotFound means the requested copy does not exist remotely.
	ErrNotFound = errors.New("remote copy not found")
)

// RejectedError is a definitive refusal from the remote store (expired
// auth, upload conflict, bad request). Never retried.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("remote rejected request (status %d): %s", e.StatusCode, e.Message)
}

// TransientError wraps a network-level hiccup or a 5xx. Polling and
// reconnect loops retry these silently.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err should be retried rather than surfaced.
func IsTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func classifyStatus(statusCode int, message string) error {
	switch {
	case statusCode >= 500:
		return &TransientError{Err: fmt.Errorf("remote returned status %d", statusCode)}
	case statusCode == 404:
		return ErrNotFound
	default:
		return &RejectedError{StatusCode: statusCode, Message: message}
	}
}
