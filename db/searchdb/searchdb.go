package searchdb

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DB is the search engine capability the rest of the service depends on.
type DB interface {
	Search(ctx context.Context, query Query) (*Response, error)
	Suggest(ctx context.Context, text string) ([]string, error)
	// Add submits one document and asks the engine to make it visible within commitWithin.
	Add(ctx context.Context, document Document, commitWithin time.Duration) error
	// AddBatch submits documents and commits immediately.
	AddBatch(ctx context.Context, documents []Document) error
	Commit(ctx context.Context) error
	// Delete removes documents by ID and commits.
	Delete(ctx context.Context, ids []string) error
	Close() error
}

// Query is an engine-neutral select request.
type Query struct {
	Text      string
	Start     int
	Rows      int
	Highlight Highlight
	Facet     Facet
	Filters   []Filter
	Group     *Grouping
}

type Highlight struct {
	Fields   []string
	Snippets int
	FragSize int
	PreTag   string
	PostTag  string
}

type Facet struct {
	Fields   []string
	MinCount int
	Limit    int
}

// Filter restricts results to documents whose Field equals Value exactly.
type Filter struct {
	Field string
	Value string
}

type Grouping struct {
	Field string
	Limit int
}

var ErrMalformedResponse = errors.New("malformed search engine response")

// HTTPError is returned when the engine answers with a non-success status.
// Body carries the engine's diagnostic text.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("search engine returned status %d: %s", e.StatusCode, e.Body)
}
