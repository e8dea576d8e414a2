// internal/hostname/hostname.go
//
// Hostname normalization and classification.
//
// • Normalize(raw)  ─ strips scheme, leading "www.", trailing slash, and any
//   ":port" suffix, trims whitespace, and lowercases.
// • Classify(host)  ─ apex (fewer than three dot-separated labels) versus
//   subdomain (three or more).
// • Validate(host)  ─ conservative label-and-TLD grammar.
//
// Rules (Validate)
// ----------------
// 1. At least two labels separated by ".".
// 2. Labels are alphanumeric with interior hyphens; no empty labels, no
//    leading or trailing hyphen.
// 3. The final label (TLD) is at least two letters.
//
// Notes
// -----
// • Pure and deterministic, no I/O.  Every caller that talks to the hosting
//   provider must Validate first; alias creation on an unvalidated host is
//   a bug.
// • Oxford commas, two spaces after periods.

package hostname

import (
	"regexp"
	"strings"

	"github.com/yanizio/pressroom/internal/fault"
)

// Kind classifies a canonical hostname.
type Kind string

const (
	KindApex      Kind = "apex"
	KindSubdomain Kind = "subdomain"
)

// hostPattern encodes the label-and-TLD grammar from the package comment.
var hostPattern = regexp.MustCompile(
	`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// Normalize canonicalizes a user-entered host string.  Inputs differing only
// by scheme, "www.", trailing slash, port, case, or surrounding whitespace
// normalize to the identical string.
func Normalize(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	h = strings.TrimPrefix(h, "www.")
	h = strings.TrimSuffix(h, "/")
	if i := strings.IndexByte(h, ':'); i != -1 {
		h = h[:i]
	}
	return h
}

// Classify reports apex for hosts with fewer than three labels, subdomain
// otherwise.  The input must already be normalized.
func Classify(host string) Kind {
	if strings.Count(host, ".")+1 >= 3 {
		return KindSubdomain
	}
	return KindApex
}

// Validate checks host against the grammar.  The returned error is a
// fault.Validation carrying the offending string.
func Validate(host string) error {
	if host == "" {
		return fault.Validation(host, "empty hostname")
	}
	if !hostPattern.MatchString(host) {
		return fault.Validation(host, "malformed hostname")
	}
	return nil
}
