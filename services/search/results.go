package search

import (
	"html/template"
	"sort"

	"github.com/meghashyamc/searchdesk/db/searchdb"
)

type Hit struct {
	ID        string        `json:"id"`
	Title     template.HTML `json:"title"`
	Content   template.HTML `json:"content"`
	FileName  string        `json:"file_name,omitempty"`
	Category  []string      `json:"category,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	URL       string        `json:"url,omitempty"`
	Page      int           `json:"page,omitempty"`
	Paragraph int           `json:"paragraph,omitempty"`
}

type Group struct {
	Value    string `json:"value"`
	NumFound int    `json:"num_found"`
	Hits     []Hit  `json:"hits"`
}

type PageLink struct {
	Label   int    `json:"label"`
	Href    string `json:"href"`
	Current bool   `json:"current"`
}

// Results is a search response shaped for rendering.
type Results struct {
	State      State        `json:"state"`
	Total      int          `json:"total"`
	Grouped    bool         `json:"grouped"`
	Hits       []Hit        `json:"hits,omitempty"`
	Groups     []Group      `json:"groups,omitempty"`
	Facets     []FacetField `json:"facets,omitempty"`
	Pagination Pagination   `json:"pagination"`
	PageLinks  []PageLink   `json:"page_links,omitempty"`
	PrevHref   string       `json:"prev_href,omitempty"`
	NextHref   string       `json:"next_href,omitempty"`
}

// Empty reports whether there is nothing to list.
func (r *Results) Empty() bool {
	if r.Grouped {
		return len(r.Groups) == 0
	}
	return len(r.Hits) == 0
}

// NewResults maps an engine response onto the view for state. Grouped
// responses are paginated by their total matches.
func NewResults(state State, response *searchdb.Response, opts Options) (*Results, error) {
	if response == nil || (response.Response == nil && len(response.Grouped) == 0) {
		return nil, searchdb.ErrMalformedResponse
	}

	terms := queryTerms(state.Query)
	results := &Results{State: state}

	if grouped, ok := response.Grouped[opts.GroupField]; ok && opts.GroupField != "" {
		results.Grouped = true
		results.Total = grouped.Matches
		for _, group := range grouped.Groups {
			hits := make([]Hit, 0, len(group.DocList.Docs))
			for _, doc := range group.DocList.Docs {
				hits = append(hits, newHit(doc, response.Highlighting, terms))
			}
			sortByOrdinal(hits)
			results.Groups = append(results.Groups, Group{
				Value:    group.Value(),
				NumFound: group.DocList.NumFound,
				Hits:     hits,
			})
		}
	} else if response.Response != nil {
		results.Total = response.Response.NumFound
		for _, doc := range response.Response.Docs {
			results.Hits = append(results.Hits, newHit(doc, response.Highlighting, terms))
		}
	} else {
		return nil, searchdb.ErrMalformedResponse
	}

	if response.FacetCounts != nil {
		results.Facets = buildFacets(state, response.FacetCounts.FacetFields, opts.FacetFields)
	}

	results.Pagination = Paginate(results.Total, opts.PageSize, state.Page)
	for _, page := range results.Pagination.Pages {
		results.PageLinks = append(results.PageLinks, PageLink{
			Label:   page + 1,
			Href:    state.GoToPage(page).Href(),
			Current: page == state.Page,
		})
	}
	if results.Pagination.HasPrev {
		results.PrevHref = state.GoToPage(state.Page - 1).Href()
	}
	if results.Pagination.HasNext {
		results.NextHref = state.GoToPage(state.Page + 1).Href()
	}

	return results, nil
}

func newHit(doc searchdb.Doc, highlighting map[string]map[string][]string, terms []string) Hit {
	id := doc.ID()
	fragments := highlighting[id]

	hit := Hit{
		ID:        id,
		FileName:  doc.String(searchdb.FieldFileName),
		Category:  doc.Strings(searchdb.FieldCategory),
		Tags:      doc.Strings(searchdb.FieldTags),
		URL:       doc.String(searchdb.FieldURL),
		Page:      doc.Int(searchdb.FieldPage),
		Paragraph: doc.Int(searchdb.FieldParagraph),
	}

	if titleFragments := fragments[searchdb.FieldTitle]; len(titleFragments) > 0 {
		hit.Title = sanitizeFragment(titleFragments[0])
	} else {
		title := doc.String(searchdb.FieldTitle)
		if title == "" {
			title = hit.FileName
		}
		if title == "" {
			title = id
		}
		hit.Title = fallbackHighlight(title, terms)
	}

	if contentFragments := fragments[searchdb.FieldContent]; len(contentFragments) > 0 {
		hit.Content = joinFragments(contentFragments, contentFragmentJoin)
	} else {
		hit.Content = fallbackHighlight(doc.String(searchdb.FieldContent), terms)
	}

	return hit
}

// sortByOrdinal orders hits by page, then paragraph. Missing ordinals are 0.
func sortByOrdinal(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Page != hits[j].Page {
			return hits[i].Page < hits[j].Page
		}
		return hits[i].Paragraph < hits[j].Paragraph
	})
}
