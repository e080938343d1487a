package channel

import (
	"errors"
	"fmt"
)

var (
	// ErrUnroutable marks a recipient or channel key no pair owns.
	ErrUnroutable = errors.New("unroutable")
	// ErrUpstreamRejected marks a non-2xx answer from a remote platform.
	ErrUpstreamRejected = errors.New("upstream rejected")
)

// UpstreamError carries the status and body of a rejected remote call.
type UpstreamError struct {
	Platform string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Platform, e.Status, e.Body)
}

// Unwrap lets errors.Is match ErrUpstreamRejected.
func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamRejected
}
