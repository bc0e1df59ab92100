// Package errs defines the error taxonomy shared by the control plane.
//
// Every failure the core can produce carries a Kind so callers can
// pattern-match on the category instead of string-comparing messages.
// The REST layer maps kinds onto HTTP status codes; the synchronizer
// uses kinds to decide whether a failure aborts a mutation or is
// recorded as propagation status.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an error.
type Kind int

const (
	// KindValidation covers bad names, TTLs, placement rules and other
	// rejected input. Never retried automatically.
	KindValidation Kind = iota
	// KindNotFound covers absent resources, including resources owned by
	// another tenant that the caller must not learn about.
	KindNotFound
	// KindConflict covers duplicate names and optimistic-version mismatches.
	KindConflict
	// KindForbidden covers cross-tenant violations and blacklist hits
	// without a bypass privilege.
	KindForbidden
	// KindOverQuota is raised by the quota collaborator.
	KindOverQuota
	// KindBackend wraps any nameserver-driver failure. Once storage has
	// committed, backend errors become status, never a caller-visible error.
	KindBackend
	// KindTimeout covers bounded storage or backend calls that ran out of
	// time. Storage timeouts are safe to retry from the client.
	KindTimeout
	// KindProgramming marks internal misuse, e.g. a lock acquisition with
	// no zone id. Distinct from request validation on purpose.
	KindProgramming
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindOverQuota:
		return "over_quota"
	case KindBackend:
		return "backend"
	case KindTimeout:
		return "timeout"
	case KindProgramming:
		return "programming"
	default:
		return "unknown"
	}
}

// Error is a tagged error with optional structured fields.
type Error struct {
	Kind    Kind
	Message string
	// Resource names the entity type involved ("zone", "recordset", ...).
	Resource string
	// ID identifies the entity when known.
	ID string
	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a tagged error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a kind and message.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound is a shorthand for the common "resource not found" case.
func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource), Resource: resource, ID: id}
}

// KindOf extracts the Kind of err, or KindProgramming with ok=false when
// err carries no taxonomy tag.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindProgramming, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsForbidden(err error) bool  { return is(err, KindForbidden) }
func IsOverQuota(err error) bool  { return is(err, KindOverQuota) }
func IsBackend(err error) bool    { return is(err, KindBackend) }
func IsTimeout(err error) bool    { return is(err, KindTimeout) }
