package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "sentence starts",
			input:    "A. B. C.",
			expected: []string{"A.", "B.", "C."},
		},
		{
			name:     "blank lines",
			input:    "First paragraph. Still first.\n\nSecond paragraph.\n  \n\nThird.",
			expected: []string{"First paragraph. Still first.", "Second paragraph.", "Third."},
		},
		{
			name:     "windows line endings",
			input:    "one\r\n\r\ntwo",
			expected: []string{"one", "two"},
		},
		{
			name:     "lowercase after period does not split",
			input:    "e.g. this stays. Together? no. Split here.",
			expected: []string{"e.g. this stays.", "Together? no.", "Split here."},
		},
		{
			name:     "whitespace only",
			input:    " \n\n \t ",
			expected: []string{},
		},
		{
			name:     "single line without periods",
			input:    "  just words  ",
			expected: []string{"just words"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Segment(tc.input))
		})
	}
}

func TestSegmentPages(t *testing.T) {
	paragraphs := segmentPages([]string{"A. B.", "", "C.\n\nD."}, true)

	require.Equal(t, []paragraph{
		{page: 1, ordinal: 1, text: "A."},
		{page: 1, ordinal: 2, text: "B."},
		{page: 3, ordinal: 1, text: "C."},
		{page: 3, ordinal: 2, text: "D."},
	}, paragraphs)

	require.Equal(t, "guide.pdf_p3_2", paragraphID("guide.pdf", paragraphs[3]))
	require.Equal(t, "notes.txt_2", paragraphID("notes.txt", paragraph{ordinal: 2}))
}
