// Package numbering renders document numbers from admin-configured tag
// patterns and maintains the per-scope sequence counters behind them.
//
// A pattern is literal text with bracketed tags, e.g. "DL[YY][MM]-[CCCC]".
// Date, partner and type tags resolve immediately; the counter tag resolves
// last through the sequence store, keyed by the resolved values of all other
// tags, so a pattern carrying year+month naturally restarts its visible
// counter each month, while a pattern without date tags keeps one global
// counter. Numbering scope is data-driven from the pattern, never hardcoded.
package numbering

import (
	"strings"
)

// SegmentKind identifies what a pattern segment renders to.
type SegmentKind int

const (
	// SegLiteral is plain text copied verbatim (including unknown tags,
	// brackets kept).
	SegLiteral SegmentKind = iota

	// SegYear4 renders the 4-digit year.
	SegYear4

	// SegYear2 renders the 2-digit year (mod 100, zero-padded).
	SegYear2

	// SegMonth renders the 2-digit month.
	SegMonth

	// SegDay renders the 2-digit day.
	SegDay

	// SegPartner renders the caller-supplied partner identifier, "0" if absent.
	SegPartner

	// SegType renders "S" for services, "T" for goods, empty if unspecified.
	SegType

	// SegCounter renders the sequence counter, zero-padded to Width.
	SegCounter
)

// Segment is one span of a parsed pattern.
type Segment struct {
	Kind SegmentKind

	// Text holds the literal content for SegLiteral segments.
	Text string

	// Width is the zero-pad width for SegCounter segments
	// (the number of repeated C's).
	Width int
}

// ParsePattern splits a pattern into alternating literal and tag segments in
// a single linear scan. Unrecognized bracketed tags are kept verbatim as
// literal text, brackets included, rather than rejected.
func ParsePattern(pattern string) []Segment {
	var segs []Segment
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			segs = append(segs, Segment{Kind: SegLiteral, Text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(pattern) {
		if pattern[i] != '[' {
			lit.WriteByte(pattern[i])
			i++
			continue
		}

		end := strings.IndexByte(pattern[i:], ']')
		if end < 0 {
			// Unterminated bracket: the rest is literal.
			lit.WriteString(pattern[i:])
			break
		}
		end += i

		tag := pattern[i+1 : end]
		kind, width, ok := classifyTag(tag)
		if !ok {
			// Unknown tag kept verbatim, brackets included.
			lit.WriteString(pattern[i : end+1])
			i = end + 1
			continue
		}

		flushLiteral()
		segs = append(segs, Segment{Kind: kind, Width: width})
		i = end + 1
	}
	flushLiteral()

	return segs
}

func classifyTag(tag string) (SegmentKind, int, bool) {
	switch tag {
	case "YYYY":
		return SegYear4, 0, true
	case "YY":
		return SegYear2, 0, true
	case "MM":
		return SegMonth, 0, true
	case "DD":
		return SegDay, 0, true
	case "PARTNER":
		return SegPartner, 0, true
	case "TYPE":
		return SegType, 0, true
	}
	if tag != "" && strings.Count(tag, "C") == len(tag) {
		return SegCounter, len(tag), true
	}
	return 0, 0, false
}

// CounterSegments returns the number of counter tags in a parsed pattern.
func CounterSegments(segs []Segment) int {
	n := 0
	for _, s := range segs {
		if s.Kind == SegCounter {
			n++
		}
	}
	return n
}
