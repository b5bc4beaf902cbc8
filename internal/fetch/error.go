package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed fetch for logs and metrics. Callers that only
// show the failure to a user need nothing beyond Error.Message.
type Kind uint8

const (
	KindNetwork Kind = iota + 1
	KindHTTPStatus
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func networkError(rawURL string, err error) *Error {
	msg := fmt.Sprintf("could not reach the transit API: %v", err)
	switch {
	case errors.Is(err, context.Canceled):
		msg = "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		msg = "the transit API did not answer in time"
	}
	return &Error{Kind: KindNetwork, URL: rawURL, Message: msg, Err: err}
}

func statusError(rawURL string, status int, serverMessage string) *Error {
	msg := fmt.Sprintf("the transit API answered %d %s", status, http.StatusText(status))
	if serverMessage != "" {
		msg += ": " + serverMessage
	}
	return &Error{Kind: KindHTTPStatus, URL: rawURL, Status: status, Message: msg}
}

func parseError(rawURL string, err error) *Error {
	return &Error{
		Kind:    KindParse,
		URL:     rawURL,
		Message: fmt.Sprintf("unexpected response from the transit API: %v", err),
		Err:     err,
	}
}

// KindOf reports the Kind of err, or zero when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
