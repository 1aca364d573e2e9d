package content

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why a fetch did not produce a document.
type FailureKind string

const (
	KindTimeout  FailureKind = "timeout"
	KindNetwork  FailureKind = "network"
	KindStatus   FailureKind = "status"
	KindParse    FailureKind = "parse"
	KindCanceled FailureKind = "canceled"
)

// FetchError is returned by every Loader method. Blocks surface it to the page
// harness instead of stalling on a hung request.
type FetchError struct {
	Kind       FailureKind
	Location   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("content: fetch %s: unexpected status %d", e.Location, e.StatusCode)
	default:
		return fmt.Sprintf("content: fetch %s: %s: %v", e.Location, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a FetchError caused by the deadline.
func IsTimeout(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Kind == KindTimeout
}

// Classify wraps err in a FetchError, keeping an existing one intact.
func Classify(location string, err error) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, Location: location, Err: err}
}
