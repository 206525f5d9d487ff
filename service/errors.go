package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped by StatusError for any non-success HTTP response
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrSourceFetch marks a failed read of a source collection
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrMissingID is returned when the destination answers without an id
	ErrMissingID = errors.New("response has no id")
)

// StatusError describes a non-success HTTP response
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// maxErrorBody bounds how much of a response body is kept in a StatusError
const maxErrorBody = 512

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
