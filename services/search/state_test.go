package search

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToggleFacetIsIdempotent(t *testing.T) {
	testCases := []struct {
		name  string
		start State
		field string
		value string
	}{
		{
			name:  "empty selection",
			start: State{Query: "solar", Page: 3},
			field: "category",
			value: "manual",
		},
		{
			name:  "value already selected",
			start: State{Query: "solar", Page: 2, Facets: map[string][]string{"category": {"manual", "notes"}}},
			field: "category",
			value: "manual",
		},
		{
			name:  "other field selected",
			start: State{Query: "solar", Page: 1, Facets: map[string][]string{"tags": {"energy"}}},
			field: "category",
			value: "notes",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			once := tc.start.ToggleFacet(tc.field, tc.value)
			require.Equal(t, 0, once.Page)
			require.NotEqual(t, tc.start.IsSelected(tc.field, tc.value), once.IsSelected(tc.field, tc.value))

			twice := once.ToggleFacet(tc.field, tc.value)
			require.Equal(t, 0, twice.Page)
			require.Equal(t, tc.start.Facets, twice.Facets)
			require.Equal(t, tc.start.Query, twice.Query)
		})
	}
}

func TestToggleFacetDoesNotModifyReceiver(t *testing.T) {
	start := State{Query: "solar", Facets: map[string][]string{"category": {"b", "d"}}}

	toggled := start.ToggleFacet("category", "c")

	require.Equal(t, []string{"b", "d"}, start.Facets["category"])
	require.Equal(t, []string{"b", "c", "d"}, toggled.Facets["category"])
}

func TestSubmitResetsPage(t *testing.T) {
	start := State{Query: "old", Page: 4, Facets: map[string][]string{"tags": {"x"}}}

	next := start.Submit("  new query  ")

	require.Equal(t, "new query", next.Query)
	require.Equal(t, 0, next.Page)
	require.Equal(t, start.Facets, next.Facets)
}

func TestGoToPage(t *testing.T) {
	start := State{Query: "q"}
	require.Equal(t, 2, start.GoToPage(2).Page)
	require.Equal(t, 0, start.GoToPage(-1).Page)
}

func TestStateValuesRoundTrip(t *testing.T) {
	state := State{
		Query:  "solar panel",
		Page:   2,
		Facets: map[string][]string{"category": {"manual"}, "tags": {"a:b", "energy"}},
	}

	values := state.Values()
	require.Equal(t, "solar panel", values.Get(ParamQuery))
	require.Equal(t, "2", values.Get(ParamPage))
	require.Equal(t, []string{"category:manual", "tags:a:b", "tags:energy"}, values[ParamFacet])

	require.Equal(t, state, ParseState(values))
}

func TestParseState(t *testing.T) {
	testCases := []struct {
		name     string
		query    string
		expected State
	}{
		{
			name:     "empty",
			query:    "",
			expected: State{},
		},
		{
			name:     "bad page is ignored",
			query:    "q=x&page=abc",
			expected: State{Query: "x"},
		},
		{
			name:     "negative page is ignored",
			query:    "q=x&page=-2",
			expected: State{Query: "x"},
		},
		{
			name:     "malformed facets are skipped",
			query:    "q=x&f=nocolon&f=:value&f=field:",
			expected: State{Query: "x"},
		},
		{
			name:     "duplicate facets collapse",
			query:    "q=x&f=tags:b&f=tags:a&f=tags:b",
			expected: State{Query: "x", Facets: map[string][]string{"tags": {"a", "b"}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.expected, ParseState(values))
		})
	}
}

func TestHref(t *testing.T) {
	require.Equal(t, "/", State{}.Href())
	require.Equal(t, "/?f=tags%3Aenergy&q=solar", State{Query: "solar", Facets: map[string][]string{"tags": {"energy"}}}.Href())
}
