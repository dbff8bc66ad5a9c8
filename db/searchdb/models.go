package searchdb

import (
	"fmt"
	"strconv"
	"time"
)

// Field names shared by the engine schema, the query builder and the renderer.
const (
	FieldID           = "id"
	FieldTitle        = "title"
	FieldContent      = "content"
	FieldCategory     = "category"
	FieldTags         = "tags"
	FieldFileName     = "file_name"
	FieldPage         = "page"
	FieldParagraph    = "paragraph"
	FieldURL          = "url"
	FieldLastModified = "last_modified"
)

// Document is the unit submitted to the engine's update endpoint.
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	FileName     string    `json:"file_name"`
	Category     []string  `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Page         int       `json:"page,omitempty"`
	Paragraph    int       `json:"paragraph,omitempty"`
	URL          string    `json:"url,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Response mirrors the engine's JSON select response. Either Response or
// Grouped is set depending on whether grouping was requested.
type Response struct {
	Response     *DocList                       `json:"response,omitempty"`
	Highlighting map[string]map[string][]string `json:"highlighting,omitempty"`
	FacetCounts  *FacetCounts                   `json:"facet_counts,omitempty"`
	Grouped      map[string]GroupedField        `json:"grouped,omitempty"`
}

type DocList struct {
	NumFound int   `json:"numFound"`
	Start    int   `json:"start"`
	Docs     []Doc `json:"docs"`
}

type FacetCounts struct {
	// FacetFields holds flat [value, count, value, count, ...] sequences.
	FacetFields map[string][]any `json:"facet_fields"`
}

type GroupedField struct {
	Matches int     `json:"matches"`
	NGroups int     `json:"ngroups"`
	Groups  []Group `json:"groups"`
}

type Group struct {
	GroupValue any     `json:"groupValue"`
	DocList    DocList `json:"doclist"`
}

// Value renders the group key as a string; null group values become "".
func (g Group) Value() string {
	if g.GroupValue == nil {
		return ""
	}
	return scalarString(g.GroupValue)
}

// Doc is a stored document as returned by the engine. Values are whatever JSON
// decoding produced: strings, float64s, or []any for multi-valued fields.
type Doc map[string]any

func (d Doc) ID() string {
	return d.String(FieldID)
}

// String returns the field as a string, taking the first element of
// multi-valued fields.
func (d Doc) String(field string) string {
	value, ok := d[field]
	if !ok || value == nil {
		return ""
	}
	if values, ok := value.([]any); ok {
		if len(values) == 0 {
			return ""
		}
		return scalarString(values[0])
	}
	return scalarString(value)
}

// Strings returns every value of a (possibly single-valued) field.
func (d Doc) Strings(field string) []string {
	value, ok := d[field]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, scalarString(item))
		}
		return out
	case []string:
		return v
	default:
		return []string{scalarString(v)}
	}
}

// Int returns the field as an int; absent or unparseable values are 0.
func (d Doc) Int(field string) int {
	value, ok := d[field]
	if !ok || value == nil {
		return 0
	}
	if values, ok := value.([]any); ok {
		if len(values) == 0 {
			return 0
		}
		value = values[0]
	}
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
