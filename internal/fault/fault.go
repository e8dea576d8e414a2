// internal/fault/fault.go
//
// Typed error taxonomy for the routing and publishing core.
//
// Context
// -------
// The hosting provider, the tenant store, and the content stores all fail in
// different ways, and callers need to pick a remediation without string
// matching scattered across the codebase.  Every error that crosses a
// package boundary in this repo is one of the kinds below.  Translation from
// provider HTTP statuses lives in one place (FromStatus); text matching is a
// documented last resort and only happens there.
//
// Kinds
// -----
//   - Validation — malformed input, never retried, caller must fix.
//   - NotFound   — tenant, domain, or post absent; terminal for the call.
//   - Conflict   — alias already attached, or slug retries exhausted.
//   - Upstream   — provider returned a non-404 4xx/5xx; carries status and
//     the provider's literal message plus a remediation category.
//   - Transport  — network failure or timeout; resolver moves to the next
//     candidate, everyone else surfaces it for a manual retry.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the error taxonomy.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindUpstream
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Remediation buckets a provider failure into the advice shown to the user.
type Remediation string

const (
	RemedyAuth       Remediation = "auth"
	RemedyPermission Remediation = "permission"
	RemedyRateLimit  Remediation = "rate_limit"
	RemedyValidation Remediation = "validation"
	RemedyRetry      Remediation = "retry"
)

// Error is the single concrete type behind every taxonomy kind.
type Error struct {
	Kind    Kind
	Msg     string
	Status  int         // HTTP status for Upstream errors, zero otherwise
	Remedy  Remediation // populated for Upstream errors
	Wrapped error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Validation flags malformed caller input.  value is echoed so UIs can show
// the offending string.
func Validation(value, reason string) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf("%s: %q", reason, value)}
}

// NotFound reports an absent tenant, domain, or post.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Msg: what}
}

// Conflict reports a state collision the caller may treat as terminal.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// Transport wraps a network-level failure.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Msg: err.Error(), Wrapped: err}
}

// FromStatus translates a provider HTTP status and body message into the
// taxonomy.  This is the only translation point; the body message is kept
// verbatim so the UI can surface the provider's literal error.
func FromStatus(status int, message string) *Error {
	if status == 404 {
		return &Error{Kind: KindNotFound, Msg: message, Status: status}
	}

	e := &Error{Kind: KindUpstream, Msg: message, Status: status}
	switch {
	case status == 401:
		e.Remedy = RemedyAuth
	case status == 403:
		e.Remedy = RemedyPermission
	case status == 429:
		e.Remedy = RemedyRateLimit
	case status >= 400 && status < 500:
		e.Remedy = RemedyValidation
	default:
		e.Remedy = RemedyRetry
	}

	// Last-resort text matching, isolated here.  Some provider responses
	// return 422 for ownership conflicts with no structured code.
	if strings.Contains(strings.ToLower(message), "owned by another account") {
		e.Remedy = RemedyPermission
	}
	return e
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, k Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == k
	}
	return false
}

// IsNotFound is sugar for the most common check.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }
