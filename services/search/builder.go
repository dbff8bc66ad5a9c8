package search

import (
	"errors"
	"strings"

	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/searchdb"
)

var ErrEmptyQuery = errors.New("query text cannot be empty")

const (
	markPre  = "<mark>"
	markPost = "</mark>"
)

// Options are the fixed request directives applied to every search.
type Options struct {
	PageSize          int
	HighlightFields   []string
	HighlightSnippets int
	HighlightFragSize int
	FacetFields       []string
	FacetMinCount     int
	FacetLimit        int
	GroupField        string
	GroupLimit        int
}

func DefaultOptions() Options {
	return Options{
		PageSize:          10,
		HighlightFields:   []string{searchdb.FieldTitle, searchdb.FieldContent},
		HighlightSnippets: 3,
		HighlightFragSize: 200,
		FacetFields:       []string{searchdb.FieldCategory, searchdb.FieldTags},
		FacetMinCount:     1,
		FacetLimit:        20,
		GroupLimit:        10,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		PageSize:          cfg.GetPageSize(),
		HighlightFields:   cfg.GetHighlightFields(),
		HighlightSnippets: cfg.GetHighlightSnippets(),
		HighlightFragSize: cfg.GetHighlightFragSize(),
		FacetFields:       cfg.GetFacetFields(),
		FacetMinCount:     cfg.GetFacetMinCount(),
		FacetLimit:        cfg.GetFacetLimit(),
		GroupField:        cfg.GetGroupField(),
		GroupLimit:        cfg.GetGroupLimit(),
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions().PageSize
	}
	return opts
}

// IsFacetField reports whether field is one of the configured facet fields.
func (o Options) IsFacetField(field string) bool {
	for _, facetField := range o.FacetFields {
		if facetField == field {
			return true
		}
	}
	return false
}

// BuildQuery turns search state into an engine request. Selected facet values
// become one exact-match filter each, all of which must hold.
func BuildQuery(state State, opts Options) (searchdb.Query, error) {
	text := strings.TrimSpace(state.Query)
	if text == "" {
		return searchdb.Query{}, ErrEmptyQuery
	}

	page := state.Page
	if page < 0 {
		page = 0
	}

	query := searchdb.Query{
		Text:  text,
		Start: page * opts.PageSize,
		Rows:  opts.PageSize,
		Highlight: searchdb.Highlight{
			Fields:   opts.HighlightFields,
			Snippets: opts.HighlightSnippets,
			FragSize: opts.HighlightFragSize,
			PreTag:   markPre,
			PostTag:  markPost,
		},
		Facet: searchdb.Facet{
			Fields:   opts.FacetFields,
			MinCount: opts.FacetMinCount,
			Limit:    opts.FacetLimit,
		},
	}

	for _, field := range sortedKeys(state.Facets) {
		for _, value := range state.Facets[field] {
			query.Filters = append(query.Filters, searchdb.Filter{Field: field, Value: value})
		}
	}

	if opts.GroupField != "" {
		query.Group = &searchdb.Grouping{Field: opts.GroupField, Limit: opts.GroupLimit}
	}

	return query, nil
}
