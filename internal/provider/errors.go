// Package provider talks to the ticket marketplaces: it builds affiliate
// search links and queries their event search APIs.
package provider

import (
	"errors"
	"fmt"
)

// ErrUpstream marks failures caused by a marketplace: transport errors,
// timeouts and non-success responses.
var ErrUpstream = errors.New("upstream error")

// ErrNotConfigured is returned when a provider is disabled or lacks the
// credentials needed for a call.  It means "we are broken", as opposed to
// ErrUpstream meaning "they are down".
var ErrNotConfigured = errors.New("provider not configured")

// UpstreamError describes one failed marketplace call.  StatusCode is 0
// for transport-level failures.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return e.Provider + ": " + ErrUpstream.Error()
}

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) Unwrap() error { return e.Err }
