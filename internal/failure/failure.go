// Package failure classifies errors coming back from the spreadsheet and
// language-model services so they can be shown to the user once, at the top.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrConnectivity means a remote service could not be reached
	ErrConnectivity = errors.New("service unreachable")
	// ErrAuth means a remote service rejected our credentials
	ErrAuth = errors.New("authentication failed")
	// ErrMalformed means a remote service answered with an unexpected shape
	ErrMalformed = errors.New("malformed response")
)

// Kind names the class of a failure for logs and the UI
type Kind string

const (
	KindConnectivity Kind = "connectivity"
	KindAuth         Kind = "auth"
	KindMalformed    Kind = "malformed"
	KindOther        Kind = "other"
)

// Wrap tags err with the given sentinel while keeping err reachable via errors.Is/As.
func Wrap(sentinel, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// FromStatus maps an HTTP status code from a remote API onto a sentinel.
// It returns nil for statuses that carry no classification.
func FromStatus(code int) error {
	switch code {
	case 401, 403:
		return ErrAuth
	case 502, 503, 504:
		return ErrConnectivity
	}
	return nil
}

// IsTransport reports whether err came from the network layer rather than
// from a response we received.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	// url.Error satisfies net.Error itself; look at what it wraps
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify returns the Kind of err.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrConnectivity):
		return KindConnectivity
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	}
	return KindOther
}

// Message renders err for the person who clicked the button.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case KindAuth:
		return "Credentials were rejected: " + err.Error()
	case KindConnectivity:
		return "Could not reach a remote service: " + err.Error()
	case KindMalformed:
		return "Got an unexpected response: " + err.Error()
	}
	return err.Error()
}
