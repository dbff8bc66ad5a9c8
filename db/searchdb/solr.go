package searchdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/logger"
)

const maxErrorBodyBytes = 4096

// SolrDB talks to a Solr core over its HTTP API.
type SolrDB struct {
	baseURL   string
	suggester string
	client    *http.Client
	logger    logger.Logger
}

func NewSolr(logger logger.Logger, cfg *config.Config) *SolrDB {
	client := &http.Client{Timeout: cfg.GetRequestTimeout()}
	return NewSolrWithClient(logger, cfg.GetSolrURL(), cfg.GetSuggester(), client)
}

func NewSolrWithClient(logger logger.Logger, baseURL string, suggester string, client *http.Client) *SolrDB {
	if client == nil {
		client = http.DefaultClient
	}
	return &SolrDB{
		baseURL:   strings.TrimRight(baseURL, "/"),
		suggester: suggester,
		client:    client,
		logger:    logger,
	}
}

func (s *SolrDB) Search(ctx context.Context, query Query) (*Response, error) {
	body, err := s.do(ctx, http.MethodGet, "/select", EncodeQuery(query), nil)
	if err != nil {
		return nil, err
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		s.logger.Error("could not decode select response", "err", err.Error())
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	if response.Response == nil && len(response.Grouped) == 0 {
		s.logger.Error("select response has neither results nor groups")
		return nil, ErrMalformedResponse
	}

	return &response, nil
}

type suggestResponse struct {
	Suggest map[string]map[string]struct {
		NumFound    int `json:"numFound"`
		Suggestions []struct {
			Term   string `json:"term"`
			Weight int64  `json:"weight"`
		} `json:"suggestions"`
	} `json:"suggest"`
}

func (s *SolrDB) Suggest(ctx context.Context, text string) ([]string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("wt", "json")

	body, err := s.do(ctx, http.MethodGet, "/suggest", params, nil)
	if err != nil {
		return nil, err
	}

	var response suggestResponse
	if err := json.Unmarshal(body, &response); err != nil {
		s.logger.Error("could not decode suggest response", "err", err.Error())
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}

	entry, ok := response.Suggest[s.suggester][text]
	if !ok {
		return nil, nil
	}

	terms := make([]string, 0, len(entry.Suggestions))
	for _, suggestion := range entry.Suggestions {
		terms = append(terms, suggestion.Term)
	}

	return terms, nil
}

func (s *SolrDB) Add(ctx context.Context, document Document, commitWithin time.Duration) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", document.ID, err)
	}

	params := url.Values{}
	if commitWithin > 0 {
		params.Set("commitWithin", strconv.FormatInt(commitWithin.Milliseconds(), 10))
	}

	_, err = s.do(ctx, http.MethodPost, "/update/json/docs", params, payload)
	return err
}

func (s *SolrDB) AddBatch(ctx context.Context, documents []Document) error {
	payload, err := json.Marshal(documents)
	if err != nil {
		return fmt.Errorf("failed to encode documents: %w", err)
	}

	params := url.Values{}
	params.Set("commit", "true")

	_, err = s.do(ctx, http.MethodPost, "/update", params, payload)
	return err
}

// Commit sends an empty update with commit=true so pending documents become searchable.
func (s *SolrDB) Commit(ctx context.Context) error {
	params := url.Values{}
	params.Set("commit", "true")

	_, err := s.do(ctx, http.MethodPost, "/update", params, nil)
	return err
}

func (s *SolrDB) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"delete": ids})
	if err != nil {
		return fmt.Errorf("failed to encode delete request: %w", err)
	}

	params := url.Values{}
	params.Set("commit", "true")

	_, err = s.do(ctx, http.MethodPost, "/update", params, payload)
	return err
}

func (s *SolrDB) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *SolrDB) do(ctx context.Context, method string, path string, params url.Values, payload []byte) ([]byte, error) {
	endpoint := s.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("calling search engine", "method", method, "url", endpoint)
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("search engine request failed", "path", path, "err", err.Error())
		return nil, fmt.Errorf("search engine request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		diagnostic, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		s.logger.Warn("search engine returned an error status", "path", path, "status", resp.StatusCode)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(diagnostic))}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	return respBody, nil
}

// EncodeQuery renders a Query as Solr select parameters.
func EncodeQuery(query Query) url.Values {
	params := url.Values{}
	params.Set("q", query.Text)
	params.Set("start", strconv.Itoa(query.Start))
	params.Set("rows", strconv.Itoa(query.Rows))

	if len(query.Highlight.Fields) > 0 {
		params.Set("hl", "on")
		params.Set("hl.fl", strings.Join(query.Highlight.Fields, ","))
		params.Set("hl.encoder", "html")
		if query.Highlight.Snippets > 0 {
			params.Set("hl.snippets", strconv.Itoa(query.Highlight.Snippets))
		}
		if query.Highlight.FragSize > 0 {
			params.Set("hl.fragsize", strconv.Itoa(query.Highlight.FragSize))
		}
		if query.Highlight.PreTag != "" {
			params.Set("hl.tag.pre", query.Highlight.PreTag)
			params.Set("hl.tag.post", query.Highlight.PostTag)
		}
	}

	if len(query.Facet.Fields) > 0 {
		params.Set("facet", "on")
		for _, field := range query.Facet.Fields {
			params.Add("facet.field", field)
		}
		params.Set("facet.mincount", strconv.Itoa(query.Facet.MinCount))
		if query.Facet.Limit != 0 {
			params.Set("facet.limit", strconv.Itoa(query.Facet.Limit))
		}
	}

	for _, filter := range query.Filters {
		params.Add("fq", filterQuery(filter))
	}

	if query.Group != nil && query.Group.Field != "" {
		params.Set("group", "true")
		params.Set("group.field", query.Group.Field)
		params.Set("group.ngroups", "true")
		if query.Group.Limit > 0 {
			params.Set("group.limit", strconv.Itoa(query.Group.Limit))
		}
	}

	params.Set("wt", "json")

	return params
}

func filterQuery(filter Filter) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(filter.Value)
	return fmt.Sprintf(`%s:"%s"`, filter.Field, escaped)
}
