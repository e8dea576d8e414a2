// internal/publish/format.go
//
// Title and body cleanup applied before a post is stored.
//
// Context
// -------
// Generated drafts arrive with two recurring defects: the title echoed at
// the top of the body (as a "Title:" line, a Markdown heading, or an
// <h1>/<h2> wrapper), and titles in sentence case or wrapped in Markdown
// bold markers.  Cleanup runs once, at publish time, so stored rows are
// already presentable.

package publish

import (
	"regexp"
	"strings"
)

// smallWords stay lowercase in heading case unless first or last.
var smallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "in": {}, "nor": {}, "of": {}, "on": {}, "or": {}, "per": {},
	"the": {}, "to": {}, "vs": {}, "via": {}, "with": {},
}

var (
	acronymRe   = regexp.MustCompile(`^[A-Z0-9]{2,}$`)
	innerCapsRe = regexp.MustCompile(`[A-Z].*[A-Z]`)
	titleLineRe   = regexp.MustCompile(`(?i)^\s*Title:\s*[^\n]*\n?`)
	titlePrefixRe = regexp.MustCompile(`(?i)^Title:\s*`)
	headingRe     = regexp.MustCompile(`^#{1,6}\s+`)
)

// TitleCase converts s to heading case.  Acronyms and camelCase words are
// left alone; small words stay lowercase except in first or last position.
func TitleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		if acronymRe.MatchString(w) || innerCapsRe.MatchString(w[1:]) {
			continue
		}
		lower := strings.ToLower(w)
		if i != 0 && i != len(words)-1 {
			if _, small := smallWords[lower]; small {
				words[i] = lower
				continue
			}
		}
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

// CleanTitle strips generator artifacts from a raw title: "Title:" prefixes,
// Markdown bold markers, and leading heading hashes.
func CleanTitle(raw string) string {
	t := strings.TrimSpace(raw)
	t = titlePrefixRe.ReplaceAllString(t, "")
	t = headingRe.ReplaceAllString(t, "")
	t = strings.ReplaceAll(t, "**", "")
	t = strings.ReplaceAll(t, "*", "")
	return strings.TrimSpace(t)
}

// StripLeadingTitle removes a leading echo of title from body.  Handles the
// three shapes generators produce: a bare "Title:" line, a Markdown heading,
// and an <h1>/<h2> wrapper (optionally with a "Title:" prefix or <strong>
// nesting).  Only the leading occurrence is removed; the title appearing
// later in the body is content, not an echo.
func StripLeadingTitle(body, title string) string {
	out := titleLineRe.ReplaceAllString(body, "")
	clean := CleanTitle(title)
	if clean == "" {
		return strings.TrimLeft(out, "\n")
	}

	q := regexp.QuoteMeta(clean)
	for _, re := range []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*#{1,6}\s*(?:Title:\s*)?` + q + `\s*\n?`),
		regexp.MustCompile(`(?i)^\s*<h[12][^>]*>\s*(?:Title:\s*)?(?:<strong[^>]*>\s*)?` + q + `(?:\s*</strong>)?\s*</h[12]>\s*`),
	} {
		out = re.ReplaceAllString(out, "")
	}
	return strings.TrimLeft(out, "\n")
}
