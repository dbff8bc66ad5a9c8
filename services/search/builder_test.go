package search

import (
	"testing"

	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryPaging(t *testing.T) {
	testCases := []struct {
		name          string
		page          int
		pageSize      int
		expectedStart int
	}{
		{name: "first page", page: 0, pageSize: 10, expectedStart: 0},
		{name: "third page", page: 2, pageSize: 10, expectedStart: 20},
		{name: "odd page size", page: 3, pageSize: 7, expectedStart: 21},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.PageSize = tc.pageSize

			query, err := BuildQuery(State{Query: "solar", Page: tc.page}, opts)
			require.NoError(t, err)
			require.Equal(t, tc.expectedStart, query.Start)
			require.Equal(t, tc.pageSize, query.Rows)
		})
	}
}

func TestBuildQueryRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := BuildQuery(State{Query: text}, DefaultOptions())
		require.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestBuildQueryDirectives(t *testing.T) {
	opts := DefaultOptions()
	opts.GroupField = searchdb.FieldFileName
	opts.GroupLimit = 4

	state := State{
		Query:  "  solar  ",
		Facets: map[string][]string{"tags": {"energy"}, "category": {"manual", "notes"}},
	}

	query, err := BuildQuery(state, opts)
	require.NoError(t, err)

	require.Equal(t, "solar", query.Text)
	require.Equal(t, searchdb.Highlight{
		Fields:   []string{"title", "content"},
		Snippets: 3,
		FragSize: 200,
		PreTag:   "<mark>",
		PostTag:  "</mark>",
	}, query.Highlight)
	require.Equal(t, searchdb.Facet{Fields: []string{"category", "tags"}, MinCount: 1, Limit: 20}, query.Facet)
	require.Equal(t, []searchdb.Filter{
		{Field: "category", Value: "manual"},
		{Field: "category", Value: "notes"},
		{Field: "tags", Value: "energy"},
	}, query.Filters)
	require.Equal(t, &searchdb.Grouping{Field: "file_name", Limit: 4}, query.Group)
}

func TestBuildQueryNoGrouping(t *testing.T) {
	query, err := BuildQuery(State{Query: "x"}, DefaultOptions())
	require.NoError(t, err)
	require.Nil(t, query.Group)
	require.Empty(t, query.Filters)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.New(map[string]any{
		"search.page_size":    0,
		"search.group_field":  "file_name",
		"search.facet_fields": []string{"category"},
	})

	opts := OptionsFromConfig(cfg)
	require.Equal(t, 10, opts.PageSize)
	require.Equal(t, "file_name", opts.GroupField)
	require.True(t, opts.IsFacetField("category"))
	require.False(t, opts.IsFacetField("tags"))
}
