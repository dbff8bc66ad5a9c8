package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type searchTestResults struct {
	Total int `json:"total"`
	Hits  []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	} `json:"hits"`
	Facets []struct {
		Field  string `json:"field"`
		Values []struct {
			Value    string `json:"value"`
			Count    int    `json:"count"`
			Selected bool   `json:"selected"`
		} `json:"values"`
	} `json:"facets"`
}

func TestSearchValidation(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	testCases := []testCase{
		{
			name:             "missing query",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{},
			expectedStatus:   http.StatusNotAcceptable,
			expectedResponse: &response{Errors: []string{"missing required field 'q'"}},
		},
		{
			name:             "blank query",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{"q": {"   "}},
			expectedStatus:   http.StatusNotAcceptable,
			expectedResponse: &response{Errors: []string{"invalid query"}},
		},
		{
			name:             "page is not a number",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{"q": {"solar"}, "page": {"abc"}},
			expectedStatus:   http.StatusUnprocessableEntity,
			expectedResponse: &response{Errors: []string{"failed to extract request parameters"}},
		},
		{
			name:             "negative page",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{"q": {"solar"}, "page": {"-1"}},
			expectedStatus:   http.StatusNotAcceptable,
			expectedResponse: &response{Errors: []string{"value or length of field 'page' is not in the expected range"}},
		},
		{
			name:             "facet on unknown field",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{"q": {"solar"}, "f": {"author:me"}},
			expectedStatus:   http.StatusNotAcceptable,
			expectedResponse: &response{Errors: []string{"invalid facet selection"}},
		},
		{
			name:             "facet without value",
			requestHeaders:   defaultTestRequestHeaders,
			queryParams:      url.Values{"q": {"solar"}, "f": {"category"}},
			expectedStatus:   http.StatusNotAcceptable,
			expectedResponse: &response{Errors: []string{"invalid facet selection"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/search", tc)
			assert.Equal(tc.expectedStatus, recorder.Code)

			_, errors := decodeResponse[any](assert, recorder)
			assert.Equal(tc.expectedResponse.Errors, errors)
		})
	}
}

func TestSearch(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/search", testCase{
		queryParams: url.Values{"q": {"solar"}},
	})
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Equal("3", recorder.Header().Get(HeaderPaginationTotalCount))

	results, errors := decodeResponse[searchTestResults](assert, recorder)
	assert.Empty(errors)
	assert.Equal(3, results.Total)
	assert.Len(results.Hits, 3)
	for _, hit := range results.Hits {
		assert.Contains(hit.Content, "<mark>")
	}

	counts := map[string]int{}
	for _, facet := range results.Facets {
		if facet.Field != "category" {
			continue
		}
		for _, value := range facet.Values {
			counts[value.Value] = value.Count
			assert.False(value.Selected)
		}
	}
	assert.Equal(map[string]int{"manual": 2, "notes": 1}, counts)
}

func TestSearchWithFacet(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/search", testCase{
		queryParams: url.Values{"q": {"solar"}, "f": {"category:notes"}},
	})
	assert.Equal(http.StatusOK, recorder.Code)

	results, _ := decodeResponse[searchTestResults](assert, recorder)
	assert.Equal(1, results.Total)
	assert.Equal("notes.txt_1", results.Hits[0].ID)
}

func TestSearchNoResults(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/search", testCase{
		queryParams: url.Values{"q": {"zebra"}},
	})
	assert.Equal(http.StatusOK, recorder.Code)

	results, _ := decodeResponse[searchTestResults](assert, recorder)
	assert.Equal(0, results.Total)
	assert.Empty(results.Hits)
}

func TestSearchPage(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	testCases := []struct {
		name           string
		queryParams    url.Values
		expectedStatus int
		contains       []string
		notContains    []string
	}{
		{
			name:           "empty page shows only the form",
			queryParams:    url.Values{},
			expectedStatus: http.StatusOK,
			contains:       []string{`id="search-input"`},
			notContains:    []string{"No results found", `class="error"`},
		},
		{
			name:           "results with highlights and facets",
			queryParams:    url.Values{"q": {"solar"}},
			expectedStatus: http.StatusOK,
			contains:       []string{"3 results", "<mark>", "manual", `value="solar"`},
		},
		{
			name:           "no results",
			queryParams:    url.Values{"q": {"zebra"}},
			expectedStatus: http.StatusOK,
			contains:       []string{"No results found for <strong>zebra</strong>"},
		},
		{
			name:           "invalid facet shows an error",
			queryParams:    url.Values{"q": {"solar"}, "f": {"author:me"}},
			expectedStatus: http.StatusNotAcceptable,
			contains:       []string{`class="error"`, "invalid facet selection"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/", testCase{queryParams: tc.queryParams})
			assert.Equal(tc.expectedStatus, recorder.Code)
			body := recorder.Body.String()
			for _, s := range tc.contains {
				assert.Contains(body, s)
			}
			for _, s := range tc.notContains {
				assert.NotContains(body, s)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "prefix", query: "so", expected: []string{"solar", "south"}},
		{name: "phrase", query: "clean the pa", expected: []string{"clean the panel"}},
		{name: "too short", query: "s", expected: []string{}},
		{name: "unknown prefix", query: "zz", expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/suggest", testCase{
				queryParams: url.Values{"q": {tc.query}},
			})
			assert.Equal(http.StatusOK, recorder.Code)

			data, _ := decodeResponse[SuggestResponse](assert, recorder)
			assert.Equal(tc.expected, data.Suggestions)
		})
	}
}
