package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// URL parameters carrying search state.
const (
	ParamQuery = "q"
	ParamPage  = "page"
	ParamFacet = "f"
)

// State is everything needed to reproduce one search: the query text, the
// zero-based page and the selected facet values. Transitions return a new
// State and never modify the receiver.
type State struct {
	Query  string              `json:"query"`
	Page   int                 `json:"page"`
	Facets map[string][]string `json:"facets,omitempty"`
}

// Submit starts a new search for text, keeping the facet selection.
func (s State) Submit(text string) State {
	return State{
		Query:  strings.TrimSpace(text),
		Page:   0,
		Facets: cloneFacets(s.Facets),
	}
}

// ToggleFacet selects value for field if it isn't selected and deselects it
// otherwise. The page always goes back to 0.
func (s State) ToggleFacet(field string, value string) State {
	facets := cloneFacets(s.Facets)
	if facets == nil {
		facets = map[string][]string{}
	}

	selected := facets[field]
	index := sort.SearchStrings(selected, value)
	if index < len(selected) && selected[index] == value {
		selected = append(selected[:index], selected[index+1:]...)
	} else {
		selected = append(selected, "")
		copy(selected[index+1:], selected[index:])
		selected[index] = value
	}

	if len(selected) == 0 {
		delete(facets, field)
	} else {
		facets[field] = selected
	}
	if len(facets) == 0 {
		facets = nil
	}

	return State{Query: s.Query, Page: 0, Facets: facets}
}

func (s State) GoToPage(page int) State {
	if page < 0 {
		page = 0
	}
	return State{Query: s.Query, Page: page, Facets: cloneFacets(s.Facets)}
}

func (s State) IsSelected(field string, value string) bool {
	selected := s.Facets[field]
	index := sort.SearchStrings(selected, value)
	return index < len(selected) && selected[index] == value
}

// Values encodes the state as URL query parameters. Facet selections use one
// f=field:value pair each.
func (s State) Values() url.Values {
	values := url.Values{}
	if s.Query != "" {
		values.Set(ParamQuery, s.Query)
	}
	if s.Page > 0 {
		values.Set(ParamPage, strconv.Itoa(s.Page))
	}
	for _, field := range sortedKeys(s.Facets) {
		for _, value := range s.Facets[field] {
			values.Add(ParamFacet, field+":"+value)
		}
	}
	return values
}

// Href is the search page link for this state.
func (s State) Href() string {
	encoded := s.Values().Encode()
	if encoded == "" {
		return "/"
	}
	return "/?" + encoded
}

// ParseState reads state from URL query parameters. An unparseable or
// negative page is treated as 0, and facet entries without a field are skipped.
func ParseState(values url.Values) State {
	state := State{Query: strings.TrimSpace(values.Get(ParamQuery))}

	if page, err := strconv.Atoi(values.Get(ParamPage)); err == nil && page > 0 {
		state.Page = page
	}

	for _, raw := range values[ParamFacet] {
		field, value, ok := SplitFacet(raw)
		if !ok || state.IsSelected(field, value) {
			continue
		}
		if state.Facets == nil {
			state.Facets = map[string][]string{}
		}
		selected := append(state.Facets[field], value)
		sort.Strings(selected)
		state.Facets[field] = selected
	}

	return state
}

// SplitFacet splits a "field:value" selection at the first colon.
func SplitFacet(raw string) (string, string, bool) {
	field, value, ok := strings.Cut(raw, ":")
	if !ok || field == "" || value == "" {
		return "", "", false
	}
	return field, value, true
}

func cloneFacets(facets map[string][]string) map[string][]string {
	if facets == nil {
		return nil
	}
	cloned := make(map[string][]string, len(facets))
	for field, values := range facets {
		cloned[field] = append([]string(nil), values...)
	}
	return cloned
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
