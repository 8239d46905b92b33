package scan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/patterns"
)

// CheckEncoding returns a *pii.InputEncodingError if text is not valid UTF-8.
func CheckEncoding(text string) error {
	if utf8.ValidString(text) {
		return nil
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size <= 1 {
			return &pii.InputEncodingError{Offset: i}
		}
		i += size
	}
	return &pii.InputEncodingError{Offset: len(text)}
}

// Candidates runs every active pattern over text once and returns the raw,
// possibly overlapping spans in pattern order. Spans whose boundaries split a
// multi-byte rune are dropped.
func Candidates(text string, active []*patterns.Pattern) []pii.Span {
	if text == "" {
		return nil
	}
	var out []pii.Span
	for _, p := range active {
		prio := p.Priority()
		for _, loc := range p.FindAll(text) {
			if !onRuneBoundary(text, loc.Start) || !onRuneBoundary(text, loc.End) {
				continue
			}
			out = append(out, pii.Span{
				Start:     loc.Start,
				End:       loc.End,
				Type:      p.Type,
				Priority:  prio,
				PatternID: p.ID,
			})
		}
	}
	return out
}

func onRuneBoundary(text string, i int) bool {
	return i == len(text) || (i >= 0 && i < len(text) && utf8.RuneStart(text[i]))
}

// Resolve selects a non-overlapping subset of candidates and returns it sorted
// by start offset. Candidates are considered greedily by priority (highest
// first), then length (longest first), then start (earliest first); the
// input order breaks any remaining tie. A candidate is kept iff it overlaps
// no span kept before it.
func Resolve(candidates []pii.Span) []pii.Span {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]pii.Span, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.Start < b.Start
	})

	kept := make([]pii.Span, 0, len(ordered))
	for _, c := range ordered {
		if c.Start < 0 || c.End <= c.Start {
			continue
		}
		// kept is sorted by start and non-overlapping, so only the
		// neighbours around the insertion point can conflict.
		i := sort.Search(len(kept), func(k int) bool { return kept[k].Start >= c.Start })
		if i > 0 && kept[i-1].End > c.Start {
			continue
		}
		if i < len(kept) && kept[i].Start < c.End {
			continue
		}
		kept = append(kept, pii.Span{})
		copy(kept[i+1:], kept[i:])
		kept[i] = c
	}
	return kept
}

// Redaction is the output of a redaction pass.
type Redaction struct {
	Text   string
	HasPII bool
	Types  []pii.PIIType
}

// Redact copies unmatched gaps of text verbatim and replaces each span with
// its type's placeholder. Spans must be sorted and non-overlapping, as
// returned by Resolve. Offsets are meaningless against the returned text.
func Redact(text string, spans []pii.Span) Redaction {
	if len(spans) == 0 {
		return Redaction{Text: text, Types: []pii.PIIType{}}
	}

	types := pii.TypeSet{}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, s := range spans {
		b.WriteString(text[last:s.Start])
		b.WriteString(s.Type.Placeholder())
		last = s.End
		types.Add(s.Type)
	}
	b.WriteString(text[last:])

	return Redaction{Text: b.String(), HasPII: true, Types: types.Sorted()}
}

// Match is a single resolved detection.
type Match struct {
	Type      pii.PIIType `json:"type"`
	Value     string      `json:"value"`
	Start     int         `json:"start"`
	End       int         `json:"end"`
	PatternID string      `json:"pattern_id"`
}

// DetectionResult is the outcome of detection and redaction without any
// policy decision or receipt.
type DetectionResult struct {
	HasPII       bool          `json:"has_pii"`
	Types        []pii.PIIType `json:"types"`
	Count        int           `json:"count"`
	Matches      []Match       `json:"matches"`
	RedactedText string        `json:"redacted_text"`
}

// Detect validates text, resolves spans for the active patterns and redacts
// them. It is a pure function of its arguments.
func Detect(text string, active []*patterns.Pattern) (*DetectionResult, error) {
	if err := CheckEncoding(text); err != nil {
		return nil, err
	}

	spans := Resolve(Candidates(text, active))
	red := Redact(text, spans)

	matches := make([]Match, len(spans))
	for i, s := range spans {
		matches[i] = Match{
			Type:      s.Type,
			Value:     text[s.Start:s.End],
			Start:     s.Start,
			End:       s.End,
			PatternID: s.PatternID,
		}
	}

	return &DetectionResult{
		HasPII:       red.HasPII,
		Types:        red.Types,
		Count:        len(spans),
		Matches:      matches,
		RedactedText: red.Text,
	}, nil
}
