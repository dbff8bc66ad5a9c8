package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/kvdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/metrics"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"golang.org/x/time/rate"
)

var ErrNoURLs = errors.New("no URLs provided")

const (
	userAgent       = "searchdesk-crawler/1.0"
	maxTitleLength  = 120
	textContentType = "text/plain"
)

// Ingester is the ingestion pipeline entry point pages are handed to.
type Ingester interface {
	Ingest(ctx context.Context, upload ingest.Upload) (*ingest.Status, error)
}

// Store keeps finished crawl results.
type Store interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
}

type Options struct {
	RequestsPerSecond float64
	Timeout           time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RequestsPerSecond: cfg.GetCrawlRate(),
		Timeout:           cfg.GetCrawlTimeout(),
	}
}

type Service struct {
	logger   logger.Logger
	ingester Ingester
	store    Store
	client   *http.Client
	limiter  *rate.Limiter
}

type PageResult struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	UploadID string `json:"upload_id,omitempty"`
	Indexed  int    `json:"indexed"`
	Error    string `json:"error,omitempty"`
}

type Result struct {
	ID        string       `json:"id"`
	Pages     []PageResult `json:"pages"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// New builds a crawler. store may be nil, in which case results are not kept.
func New(logger logger.Logger, ingester Ingester, store Store, options Options) *Service {
	limit := rate.Inf
	if options.RequestsPerSecond > 0 {
		limit = rate.Limit(options.RequestsPerSecond)
	}
	return &Service{
		logger:   logger,
		ingester: ingester,
		store:    store,
		client:   &http.Client{Timeout: options.Timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Crawl fetches each URL in turn and ingests its visible text. A failing URL
// is recorded in the result and does not stop the others.
func (s *Service) Crawl(ctx context.Context, urls []string) (*Result, error) {
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	result := &Result{ID: uuid.New().String(), Pages: make([]PageResult, 0, len(urls))}
	for _, pageURL := range urls {
		page := s.crawlPage(ctx, strings.TrimSpace(pageURL))
		if page.Error != "" {
			result.Failed++
			metrics.CrawledPagesTotal.WithLabelValues("failed").Inc()
		} else {
			result.Succeeded++
			metrics.CrawledPagesTotal.WithLabelValues("indexed").Inc()
		}
		result.Pages = append(result.Pages, page)
	}

	s.logger.Info("crawl finished", "crawl_id", result.ID, "urls", len(urls), "succeeded", result.Succeeded, "failed", result.Failed)
	s.save(result)

	return result, nil
}

func (s *Service) save(result *Result) {
	if s.store == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to marshal crawl result", "crawl_id", result.ID, "err", err.Error())
		return
	}
	if err := s.store.Set(kvdb.CrawlsBucket, result.ID, string(data)); err != nil {
		s.logger.Error("failed to save crawl result", "crawl_id", result.ID, "err", err.Error())
	}
}

// GetResult retrieves a finished crawl.
func (s *Service) GetResult(id string) (*Result, error) {
	if s.store == nil {
		return nil, &kvdb.NotFoundError{Bucket: kvdb.CrawlsBucket, Key: id}
	}

	value, err := s.store.Get(kvdb.CrawlsBucket, id)
	if err != nil {
		return nil, fmt.Errorf("crawl not found: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return nil, fmt.Errorf("invalid result for crawl %s: %w", id, err)
	}

	return &result, nil
}

func (s *Service) crawlPage(ctx context.Context, pageURL string) PageResult {
	page := PageResult{URL: pageURL}

	title, text, err := s.fetch(ctx, pageURL)
	if err != nil {
		s.logger.Warn("failed to crawl page", "url", pageURL, "err", err.Error())
		page.Error = err.Error()
		return page
	}
	page.Title = title

	status, err := s.ingester.Ingest(ctx, ingest.Upload{
		FileName:    pageFileName(title, pageURL),
		Key:         pageKey(pageURL),
		ContentType: textContentType,
		Body:        strings.NewReader(text),
		URL:         pageURL,
	})
	if status != nil {
		page.UploadID = status.ID
		page.Indexed = status.Indexed
	}
	if err != nil {
		page.Error = err.Error()
	}

	return page
}

func (s *Service) fetch(ctx context.Context, pageURL string) (string, string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", "", fmt.Errorf("invalid URL %q", pageURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse page: %w", err)
	}

	title, text := visibleText(doc)
	if text == "" {
		return "", "", fmt.Errorf("page has no text")
	}

	return title, text, nil
}

// visibleText returns the page title and its visible text, one block per
// non-empty line, separated by blank lines.
func visibleText(doc *goquery.Document) (string, string) {
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")

	// Remove unwanted elements
	doc.Find("script, style, noscript, template, head").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			lines = append(lines, collapsed)
		}
	}

	return title, strings.Join(lines, "\n\n")
}

// pageKey names a page's documents by its URL without the scheme or
// fragment, so pages sharing a title stay distinct.
func pageKey(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return pageURL
	}

	key := parsed.Host + strings.TrimSuffix(parsed.EscapedPath(), "/")
	if parsed.RawQuery != "" {
		key += "?" + parsed.RawQuery
	}
	return key
}

func pageFileName(title string, pageURL string) string {
	name := title
	if name == "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			name = parsed.Host + strings.TrimSuffix(parsed.Path, "/")
		} else {
			name = pageURL
		}
	}

	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if runes := []rune(name); len(runes) > maxTitleLength {
		name = string(runes[:maxTitleLength])
	}
	return name
}
