package dispatch

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials aborts a dispatch before any payload is built.
// It is a configuration problem for the operator, never retried here.
var ErrMissingCredentials = errors.New("dispatch: profile directory credentials are not configured")

// ErrNoApplicableStatus means status definitions were evaluated but every
// configured condition set failed. Actionable by loosening conditions.
var ErrNoApplicableStatus = errors.New("dispatch: conditions were evaluated but none passed")

// ErrNoEnabledStatus means no profile had this action enabled at all.
// Actionable by enabling a profile or action.
var ErrNoEnabledStatus = errors.New("dispatch: no profile has this action enabled")

// RenderError marks one profile's payload as failed during rendering,
// scheduling or image resolution. Sibling payloads are unaffected.
type RenderError struct {
	ProfileID string
	Cause     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("dispatch: rendering for profile %s failed: %v", e.ProfileID, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// TransportError marks a provider call failure for one payload.
type TransportError struct {
	ProfileID string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("dispatch: provider call for profile %s failed: %v", e.ProfileID, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
