package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []Segment
	}{
		{
			name:    "literal only",
			pattern: "INV-",
			want:    []Segment{{Kind: SegLiteral, Text: "INV-"}},
		},
		{
			name:    "date tags with counter",
			pattern: "DL[YY][MM]-[CCCC]",
			want: []Segment{
				{Kind: SegLiteral, Text: "DL"},
				{Kind: SegYear2},
				{Kind: SegMonth},
				{Kind: SegLiteral, Text: "-"},
				{Kind: SegCounter, Width: 4},
			},
		},
		{
			name:    "full year day partner type",
			pattern: "[YYYY][DD][PARTNER][TYPE]",
			want: []Segment{
				{Kind: SegYear4},
				{Kind: SegDay},
				{Kind: SegPartner},
				{Kind: SegType},
			},
		},
		{
			name:    "unknown tag kept verbatim",
			pattern: "X[FOO]-[CC]",
			want: []Segment{
				{Kind: SegLiteral, Text: "X[FOO]-"},
				{Kind: SegCounter, Width: 2},
			},
		},
		{
			name:    "mixed C tag is not a counter",
			pattern: "[CXC]",
			want:    []Segment{{Kind: SegLiteral, Text: "[CXC]"}},
		},
		{
			name:    "unterminated bracket is literal",
			pattern: "A[YY",
			want:    []Segment{{Kind: SegLiteral, Text: "A[YY"}},
		},
		{
			name:    "empty brackets kept verbatim",
			pattern: "A[]B",
			want:    []Segment{{Kind: SegLiteral, Text: "A[]B"}},
		},
		{
			name:    "empty pattern",
			pattern: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePattern(tt.pattern))
		})
	}
}

func TestCounterSegments(t *testing.T) {
	assert.Equal(t, 0, CounterSegments(ParsePattern("INV-[YYYY]")))
	assert.Equal(t, 1, CounterSegments(ParsePattern("INV-[CCCC]")))
	assert.Equal(t, 2, CounterSegments(ParsePattern("[CC]-[CCC]")))
}
