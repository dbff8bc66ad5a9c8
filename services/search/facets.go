package search

import (
	"fmt"
	"strconv"
)

type FacetValue struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
	// Href links to the search with this value toggled.
	Href string `json:"href"`
}

type FacetField struct {
	Field  string       `json:"field"`
	Values []FacetValue `json:"values"`
}

// ParseFacetCounts pairs a flat [value, count, value, count, ...] sequence. A
// trailing value without a count is dropped.
func ParseFacetCounts(flat []any) []FacetValue {
	values := make([]FacetValue, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		values = append(values, FacetValue{
			Value: facetString(flat[i]),
			Count: facetCount(flat[i+1]),
		})
	}
	return values
}

func buildFacets(state State, counts map[string][]any, fields []string) []FacetField {
	facets := make([]FacetField, 0, len(fields))
	for _, field := range fields {
		flat, ok := counts[field]
		if !ok {
			continue
		}
		values := ParseFacetCounts(flat)
		for i := range values {
			values[i].Selected = state.IsSelected(field, values[i].Value)
			values[i].Href = state.ToggleFacet(field, values[i].Value).Href()
		}
		facets = append(facets, FacetField{Field: field, Values: values})
	}
	return facets
}

func facetString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func facetCount(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
