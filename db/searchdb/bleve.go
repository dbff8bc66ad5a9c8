package searchdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	"github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/logger"
)

const (
	indexingBatchSize = 100
	defaultFacetSize  = 100
	maxGroupScan      = 1000
	maxSuggestions    = 10

	bleveMarkPre  = "<mark>"
	bleveMarkPost = "</mark>"
)

// BleveDB is an embedded engine that answers the same requests as Solr. It is
// used for local runs without a Solr deployment and in tests.
type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index
}

func NewBleve(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	if err := os.MkdirAll(cfg.GetStoragePath(), 0755); err != nil {
		logger.Error("could not create storage directory", "path", cfg.GetStoragePath(), "err", err.Error())
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	indexPath := filepath.Join(cfg.GetStoragePath(), cfg.GetIndexPath())
	idx, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		idx, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "err", err.Error())
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: idx}, nil
}

func NewBleveInMemory(logger logger.Logger) (*BleveDB, error) {
	idx, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		logger.Error("could not create in-memory index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: idx}, nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Exact-match fields, also used for facets, filters and grouping
	for _, field := range []string{FieldID, FieldCategory, FieldTags, FieldFileName, FieldURL, FieldLastModified} {
		keywordFieldMapping := bleve.NewTextFieldMapping()
		keywordFieldMapping.Analyzer = keyword.Name
		keywordFieldMapping.Store = true
		keywordFieldMapping.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, keywordFieldMapping)
	}

	// Full-text fields, stored so they can be highlighted
	for _, field := range []string{FieldTitle, FieldContent} {
		textFieldMapping := bleve.NewTextFieldMapping()
		textFieldMapping.Analyzer = standard.Name
		textFieldMapping.Store = true
		textFieldMapping.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(field, textFieldMapping)
	}

	for _, field := range []string{FieldPage, FieldParagraph} {
		numericFieldMapping := bleve.NewNumericFieldMapping()
		numericFieldMapping.Store = true
		docMapping.AddFieldMappingsAt(field, numericFieldMapping)
	}

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

func (b *BleveDB) Search(ctx context.Context, q Query) (*Response, error) {

	searchQuery := b.buildSearchQuery(q)

	size, from := q.Rows, q.Start
	grouping := q.Group != nil && q.Group.Field != ""
	if grouping {
		size, from = maxGroupScan, 0
	}

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, size, from, false)
	searchRequest.Fields = []string{"*"}

	if len(q.Highlight.Fields) > 0 {
		searchRequest.Highlight = bleve.NewHighlightWithStyle(html.Name)
		for _, field := range q.Highlight.Fields {
			searchRequest.Highlight.AddField(field)
		}
	}

	for _, field := range q.Facet.Fields {
		facetSize := q.Facet.Limit
		if facetSize <= 0 {
			facetSize = defaultFacetSize
		}
		searchRequest.AddFacet(field, bleve.NewFacetRequest(field, facetSize))
	}

	searchResult, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	docs := make([]Doc, 0, len(searchResult.Hits))
	highlighting := make(map[string]map[string][]string)
	for _, hit := range searchResult.Hits {
		doc := Doc{}
		for field, value := range hit.Fields {
			doc[field] = value
		}
		doc[FieldID] = hit.ID
		docs = append(docs, doc)

		if len(hit.Fragments) > 0 {
			highlighting[hit.ID] = b.fragments(hit.Fragments, q.Highlight)
		}
	}

	response := &Response{
		Highlighting: highlighting,
		FacetCounts:  b.facetCounts(searchResult.Facets, q.Facet),
	}

	if grouping {
		response.Grouped = map[string]GroupedField{
			q.Group.Field: groupDocs(docs, q.Group, int(searchResult.Total), q.Start, q.Rows),
		}
		return response, nil
	}

	response.Response = &DocList{
		NumFound: int(searchResult.Total),
		Start:    q.Start,
		Docs:     docs,
	}

	return response, nil
}

func (b *BleveDB) buildSearchQuery(q Query) query.Query {

	const (
		boostForContent     = 3.0
		boostForTitle       = 2.0
		boostForPhraseMatch = 5.0
	)

	queryString := strings.TrimSpace(q.Text)

	var textQuery query.Query
	if queryString == "" || queryString == "*:*" {
		textQuery = bleve.NewMatchAllQuery()
	} else {
		disjunctQuery := bleve.NewDisjunctionQuery()

		contentQuery := bleve.NewMatchQuery(queryString)
		contentQuery.SetField(FieldContent)
		contentQuery.SetBoost(boostForContent)
		disjunctQuery.AddQuery(contentQuery)

		titleQuery := bleve.NewMatchQuery(queryString)
		titleQuery.SetField(FieldTitle)
		titleQuery.SetBoost(boostForTitle)
		disjunctQuery.AddQuery(titleQuery)

		phraseQuery := bleve.NewMatchPhraseQuery(queryString)
		phraseQuery.SetField(FieldContent)
		phraseQuery.SetBoost(boostForPhraseMatch)
		disjunctQuery.AddQuery(phraseQuery)

		textQuery = disjunctQuery
	}

	if len(q.Filters) == 0 {
		return textQuery
	}

	conjunctQuery := bleve.NewConjunctionQuery(textQuery)
	for _, filter := range q.Filters {
		termQuery := bleve.NewTermQuery(filter.Value)
		termQuery.SetField(filter.Field)
		conjunctQuery.AddQuery(termQuery)
	}

	return conjunctQuery
}

func (b *BleveDB) fragments(hitFragments map[string][]string, highlight Highlight) map[string][]string {
	fields := make(map[string][]string, len(hitFragments))
	for field, fragments := range hitFragments {
		if highlight.Snippets > 0 && len(fragments) > highlight.Snippets {
			fragments = fragments[:highlight.Snippets]
		}
		converted := make([]string, 0, len(fragments))
		for _, fragment := range fragments {
			if highlight.PreTag != "" && highlight.PreTag != bleveMarkPre {
				fragment = strings.ReplaceAll(fragment, bleveMarkPre, highlight.PreTag)
				fragment = strings.ReplaceAll(fragment, bleveMarkPost, highlight.PostTag)
			}
			converted = append(converted, fragment)
		}
		fields[field] = converted
	}
	return fields
}

func (b *BleveDB) facetCounts(results search.FacetResults, facet Facet) *FacetCounts {
	if len(facet.Fields) == 0 {
		return nil
	}

	counts := &FacetCounts{FacetFields: make(map[string][]any, len(facet.Fields))}
	for _, field := range facet.Fields {
		flat := []any{}
		if result, ok := results[field]; ok && result != nil && result.Terms != nil {
			for _, term := range result.Terms.Terms() {
				if term.Count < facet.MinCount {
					continue
				}
				flat = append(flat, term.Term, float64(term.Count))
			}
		}
		counts.FacetFields[field] = flat
	}
	return counts
}

// groupDocs clusters hits by the group field in rank order, then pages over groups.
func groupDocs(docs []Doc, grouping *Grouping, matches int, start int, rows int) GroupedField {
	order := []string{}
	members := map[string][]Doc{}
	for _, doc := range docs {
		key := doc.String(grouping.Field)
		if _, seen := members[key]; !seen {
			order = append(order, key)
		}
		members[key] = append(members[key], doc)
	}

	groups := make([]Group, 0, rows)
	for i := start; i < len(order) && i < start+rows; i++ {
		key := order[i]
		groupMembers := members[key]
		limited := groupMembers
		if grouping.Limit > 0 && len(limited) > grouping.Limit {
			limited = limited[:grouping.Limit]
		}
		var groupValue any = key
		if key == "" {
			groupValue = nil
		}
		groups = append(groups, Group{
			GroupValue: groupValue,
			DocList:    DocList{NumFound: len(groupMembers), Docs: limited},
		})
	}

	return GroupedField{Matches: matches, NGroups: len(order), Groups: groups}
}

// Suggest completes the last word of text from the content term dictionary,
// most frequent terms first.
func (b *BleveDB) Suggest(ctx context.Context, text string) ([]string, error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, nil
	}
	prefix := words[len(words)-1]
	head := strings.Join(words[:len(words)-1], " ")

	dict, err := b.index.FieldDictPrefix(FieldContent, []byte(prefix))
	if err != nil {
		b.logger.Error("could not read term dictionary", "err", err.Error())
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()

	var entries []index.DictEntry
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Term < entries[j].Term
	})

	suggestions := make([]string, 0, min(len(entries), maxSuggestions))
	for _, entry := range entries {
		if len(suggestions) == maxSuggestions {
			break
		}
		if head == "" {
			suggestions = append(suggestions, entry.Term)
			continue
		}
		suggestions = append(suggestions, head+" "+entry.Term)
	}

	return suggestions, nil
}

func (b *BleveDB) Add(ctx context.Context, document Document, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.index.Index(document.ID, documentFields(document)); err != nil {
		b.logger.Error("could not index document", "id", document.ID, "err", err.Error())
		return fmt.Errorf("failed to index document %s: %w", document.ID, err)
	}
	return nil
}

func (b *BleveDB) AddBatch(ctx context.Context, documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := batch.Index(doc.ID, documentFields(doc))
		if err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%indexingBatchSize == 0 {
			err = b.index.Batch(batch)
			if err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index document", "err", err.Error())
			return err
		}
	}

	return nil
}

// Commit is a no-op: bleve makes writes searchable as soon as they return.
func (b *BleveDB) Commit(ctx context.Context) error {
	return ctx.Err()
}

func (b *BleveDB) Delete(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := b.index.Batch(batch); err != nil {
		b.logger.Error("could not delete documents", "count", len(ids), "err", err.Error())
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}

func documentFields(document Document) map[string]any {
	fields := map[string]any{
		FieldID:       document.ID,
		FieldTitle:    document.Title,
		FieldContent:  document.Content,
		FieldFileName: document.FileName,
	}
	if len(document.Category) > 0 {
		fields[FieldCategory] = document.Category
	}
	if len(document.Tags) > 0 {
		fields[FieldTags] = document.Tags
	}
	if document.Page > 0 {
		fields[FieldPage] = float64(document.Page)
	}
	if document.Paragraph > 0 {
		fields[FieldParagraph] = float64(document.Paragraph)
	}
	if document.URL != "" {
		fields[FieldURL] = document.URL
	}
	if !document.LastModified.IsZero() {
		fields[FieldLastModified] = document.LastModified.UTC().Format(time.RFC3339)
	}
	return fields
}
