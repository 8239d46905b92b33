package patterns

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind selects how a pattern decides that a regex hit is PII.
type Kind string

const (
	// KindRegex accepts every regex hit.
	KindRegex Kind = "regex"

	// KindChecksum accepts a regex hit only if it passes a checksum validator.
	KindChecksum Kind = "checksum"

	// KindContext accepts a regex hit only if a context keyword precedes it.
	KindContext Kind = "context"
)

// DefaultContextWindow is the number of bytes before a match searched for
// context keywords when a pattern does not set its own window.
const DefaultContextWindow = 40

// captureGroup is the subexpression name that narrows a match to the
// sensitive value, leaving labels such as "MRN:" outside the span.
const captureGroup = "pii"

// Location is a byte range [Start, End) within scanned text.
type Location struct {
	Start int
	End   int
}

// Matcher finds candidate locations in text. Implementations are immutable
// and safe for concurrent use.
type Matcher interface {
	FindAll(text string) []Location
}

// regexMatcher reports every non-empty hit of a compiled expression.
type regexMatcher struct {
	re    *regexp.Regexp
	group int
}

func newRegexMatcher(re *regexp.Regexp) *regexMatcher {
	group := re.SubexpIndex(captureGroup)
	if group < 0 {
		group = 0
	}
	return &regexMatcher{re: re, group: group}
}

func (m *regexMatcher) FindAll(text string) []Location {
	hits := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(hits) == 0 {
		return nil
	}
	out := make([]Location, 0, len(hits))
	for _, hit := range hits {
		start, end := hit[2*m.group], hit[2*m.group+1]
		if start < 0 || start >= end {
			continue
		}
		out = append(out, Location{Start: start, End: end})
	}
	return out
}

// checksumMatcher keeps only hits whose text passes a validator.
type checksumMatcher struct {
	inner    Matcher
	validate Validator
}

func (m *checksumMatcher) FindAll(text string) []Location {
	hits := m.inner.FindAll(text)
	out := hits[:0:0]
	for _, loc := range hits {
		if m.validate(text[loc.Start:loc.End]) {
			out = append(out, loc)
		}
	}
	return out
}

// contextMatcher keeps only hits preceded by a keyword within window bytes.
type contextMatcher struct {
	inner    Matcher
	keywords []string
	window   int
}

func newContextMatcher(inner Matcher, keywords []string, window int) *contextMatcher {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if window <= 0 {
		window = DefaultContextWindow
	}
	return &contextMatcher{inner: inner, keywords: lowered, window: window}
}

func (m *contextMatcher) FindAll(text string) []Location {
	hits := m.inner.FindAll(text)
	out := hits[:0:0]
	for _, loc := range hits {
		if m.hasKeywordBefore(text, loc.Start) {
			out = append(out, loc)
		}
	}
	return out
}

func (m *contextMatcher) hasKeywordBefore(text string, pos int) bool {
	start := pos - m.window
	if start < 0 {
		start = 0
	}
	for start < pos && !utf8.RuneStart(text[start]) {
		start++
	}
	window := strings.ToLower(text[start:pos])
	for _, kw := range m.keywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}
