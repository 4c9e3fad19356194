package core

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a response whose expected structure is absent.
var ErrMalformedResponse = errors.New("malformed response")

// FetchError is returned by source adapters for transport failures, non-success
// status codes and malformed bodies.
type FetchError struct {
	Platform Platform
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Platform, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError wraps cause for platform.
func NewFetchError(platform Platform, cause error) *FetchError {
	return &FetchError{Platform: platform, Cause: cause}
}

// Malformed builds a FetchError for a response missing its expected structure.
func Malformed(platform Platform, detail string) *FetchError {
	if detail == "" {
		return NewFetchError(platform, ErrMalformedResponse)
	}
	return NewFetchError(platform, fmt.Errorf("%w: %s", ErrMalformedResponse, detail))
}

// NotifyError reports a failed alert delivery. The item stays tracked.
type NotifyError struct {
	Platform Platform
	ItemID   string
	Cause    error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s/%s: %v", e.Platform, e.ItemID, e.Cause)
}

func (e *NotifyError) Unwrap() error {
	return e.Cause
}
