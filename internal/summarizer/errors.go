package summarizer

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork means the request could not be sent or was answered with a non-success status.
	ErrNetwork = errors.New("network failure")
	// ErrParse means the response body could not be decoded.
	ErrParse = errors.New("parse failure")
	// ErrMissingChoice means the response decoded but carried no completion choice.
	ErrMissingChoice = fmt.Errorf("%w: completion has no choices", ErrParse)
)

// StatusError reports a non-success HTTP status from the completion endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrNetwork
}

// FailureKind classifies err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "other"
	}
}
