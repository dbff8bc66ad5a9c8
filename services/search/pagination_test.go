package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	testCases := []struct {
		name     string
		total    int
		pageSize int
		current  int
		expected Pagination
	}{
		{
			name:     "no hits",
			total:    0,
			pageSize: 10,
			current:  0,
			expected: Pagination{},
		},
		{
			name:     "single page has no controls",
			total:    10,
			pageSize: 10,
			current:  0,
			expected: Pagination{TotalPages: 1},
		},
		{
			name:     "ceiling division",
			total:    11,
			pageSize: 10,
			current:  0,
			expected: Pagination{TotalPages: 2, Pages: []int{0, 1}, HasNext: true},
		},
		{
			name:     "window centered",
			total:    100,
			pageSize: 10,
			current:  5,
			expected: Pagination{TotalPages: 10, Current: 5, Pages: []int{3, 4, 5, 6, 7}, HasPrev: true, HasNext: true},
		},
		{
			name:     "window clamped at start",
			total:    100,
			pageSize: 10,
			current:  1,
			expected: Pagination{TotalPages: 10, Current: 1, Pages: []int{0, 1, 2, 3, 4}, HasPrev: true, HasNext: true},
		},
		{
			name:     "window clamped at end",
			total:    100,
			pageSize: 10,
			current:  9,
			expected: Pagination{TotalPages: 10, Current: 9, Pages: []int{5, 6, 7, 8, 9}, HasPrev: true},
		},
		{
			name:     "fewer pages than window",
			total:    25,
			pageSize: 10,
			current:  2,
			expected: Pagination{TotalPages: 3, Current: 2, Pages: []int{0, 1, 2}, HasPrev: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Paginate(tc.total, tc.pageSize, tc.current))
		})
	}
}
