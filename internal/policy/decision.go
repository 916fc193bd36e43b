package policy

import (
	"errors"
	"net/http"
)

// Reason explains why a request was denied.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthorized
	ReasonForbidden
	ReasonNotFound
	ReasonMissingCredential
	ReasonCannotRemoveOwner
)

var (
	ErrUnauthorized      = errors.New("authentication required")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrNotFound          = errors.New("resource not found")
	ErrMissingCredential = errors.New("admin key missing or invalid")
	ErrCannotRemoveOwner = errors.New("cannot remove or re-role the team owner")
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnauthorized:
		return "unauthorized"
	case ReasonForbidden:
		return "forbidden"
	case ReasonNotFound:
		return "not_found"
	case ReasonMissingCredential:
		return "missing_credential"
	case ReasonCannotRemoveOwner:
		return "cannot_remove_owner"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for the reason, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonUnauthorized:
		return ErrUnauthorized
	case ReasonNotFound:
		return ErrNotFound
	case ReasonMissingCredential:
		return ErrMissingCredential
	case ReasonCannotRemoveOwner:
		return ErrCannotRemoveOwner
	default:
		return ErrForbidden
	}
}

// Status maps the reason to an HTTP status code.
func (r Reason) Status() int {
	switch r {
	case ReasonNone:
		return http.StatusOK
	case ReasonUnauthorized:
		return http.StatusUnauthorized
	case ReasonNotFound:
		return http.StatusNotFound
	case ReasonMissingCredential:
		return http.StatusBadRequest
	default:
		return http.StatusForbidden
	}
}

// Decision is the outcome of CanPerform: either Allow or Deny with a reason.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(r Reason) Decision { return Decision{Reason: r} }

// Err is nil when the decision allows the action.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNone {
		return ErrForbidden
	}
	return d.Reason.Err()
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny(" + d.Reason.String() + ")"
}
