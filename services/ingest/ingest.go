package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/metrics"
)

type Mode string

const (
	ModeParagraphs Mode = "paragraphs"
	ModeDocument   Mode = "document"
)

var (
	ErrNoFile       = errors.New("please select a file to upload")
	ErrExtraction   = errors.New("could not extract text from PDF")
	ErrNoText       = errors.New("no text found in file")
	ErrFileTooLarge = errors.New("file is too large")
)

const defaultMaxParallel = 50

// Indexer is the part of the search backend used for ingestion.
type Indexer interface {
	Add(ctx context.Context, document searchdb.Document, commitWithin time.Duration) error
	AddBatch(ctx context.Context, documents []searchdb.Document) error
	Commit(ctx context.Context) error
	Delete(ctx context.Context, ids []string) error
}

type Options struct {
	SegmentParagraphs bool
	CommitWithin      time.Duration
	MaxParallel       int
	MaxUploadBytes    int64
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SegmentParagraphs: cfg.GetSegmentParagraphs(),
		CommitWithin:      cfg.GetCommitWithin(),
		MaxParallel:       cfg.GetMaxParallel(),
		MaxUploadBytes:    cfg.GetMaxUploadBytes(),
	}
}

// Upload is one file handed to the pipeline.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
	// Mode overrides the configured segmentation when set.
	Mode     Mode
	Category []string
	Tags     []string
	URL      string
	// Key names the engine documents. The file name is used when empty.
	Key string
}

type Service struct {
	logger    logger.Logger
	indexer   Indexer
	store     StatusStore
	extractor Extractor
	options   Options
	now       func() time.Time
}

type paragraph struct {
	page    int
	ordinal int
	text    string
}

func New(logger logger.Logger, indexer Indexer, store StatusStore, extractor Extractor, options Options) *Service {
	if options.MaxParallel <= 0 {
		options.MaxParallel = defaultMaxParallel
	}
	return &Service{
		logger:    logger,
		indexer:   indexer,
		store:     store,
		extractor: extractor,
		options:   options,
		now:       time.Now,
	}
}

// Ingest reads, extracts, segments and submits one upload, then commits.
// The returned status is final: done or failed.
func (s *Service) Ingest(ctx context.Context, upload Upload) (*Status, error) {
	if upload.Body == nil || strings.TrimSpace(upload.FileName) == "" {
		s.logger.Warn("upload rejected", "err", ErrNoFile.Error())
		return nil, ErrNoFile
	}

	fileName := filepath.Base(upload.FileName)
	key := upload.Key
	if key == "" {
		key = fileName
	}
	mode := upload.Mode
	if mode == "" {
		mode = ModeDocument
		if s.options.SegmentParagraphs {
			mode = ModeParagraphs
		}
	}

	status := &Status{ID: uuid.New().String(), FileName: fileName, Mode: mode}
	s.setStatus(status, StateIdle)
	s.logger.Info("ingesting upload", "upload_id", status.ID, "file_name", fileName, "key", key, "mode", string(mode))

	s.setStatus(status, StateReading)
	content, err := s.read(upload.Body)
	if err != nil {
		return s.fail(status, err)
	}

	pages := []string{string(content)}
	paged := isPDF(fileName, upload.ContentType, content)
	if paged {
		s.setStatus(status, StateExtracting)
		pages, err = s.extractor.ExtractPages(ctx, content)
		if err != nil {
			return s.fail(status, fmt.Errorf("%w: %s", ErrExtraction, err.Error()))
		}
	}

	base := searchdb.Document{
		Title:        fileName,
		FileName:     fileName,
		Category:     upload.Category,
		Tags:         upload.Tags,
		URL:          upload.URL,
		LastModified: s.now().UTC(),
	}

	if mode == ModeDocument {
		return s.ingestDocument(ctx, status, key, base, pages)
	}

	s.setStatus(status, StateSegmenting)
	paragraphs := segmentPages(pages, paged)
	if len(paragraphs) == 0 {
		return s.fail(status, ErrNoText)
	}
	status.Paragraphs = len(paragraphs)

	s.setStatus(status, StateSubmitting)
	indexed, failed, ids := s.submitParagraphs(ctx, status.ID, key, base, paragraphs)
	status.Indexed = indexed
	status.Failed = failed

	// Commit even when some submissions failed so the rest become visible
	s.setStatus(status, StateCommitting)
	if err := s.indexer.Commit(ctx); err != nil {
		return s.fail(status, fmt.Errorf("commit failed: %w", err))
	}
	status.Removed = s.removeStale(ctx, status.ID, key, ids)

	s.setStatus(status, StateDone)
	metrics.UploadsTotal.WithLabelValues(string(StateDone)).Inc()
	s.logger.Info("upload indexed", "upload_id", status.ID, "indexed", indexed, "failed", failed)

	return status, nil
}

func (s *Service) read(body io.Reader) ([]byte, error) {
	reader := body
	if s.options.MaxUploadBytes > 0 {
		reader = io.LimitReader(body, s.options.MaxUploadBytes+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if s.options.MaxUploadBytes > 0 && int64(len(content)) > s.options.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if len(content) == 0 {
		return nil, ErrNoFile
	}

	return content, nil
}

// ingestDocument submits the whole text as one document through the bulk
// form, which commits on its own.
func (s *Service) ingestDocument(ctx context.Context, status *Status, key string, base searchdb.Document, pages []string) (*Status, error) {
	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text == "" {
		return s.fail(status, ErrNoText)
	}

	document := base
	document.ID = key
	document.Content = text
	status.Paragraphs = 1

	s.setStatus(status, StateSubmitting)
	if err := s.indexer.AddBatch(ctx, []searchdb.Document{document}); err != nil {
		status.Failed = 1
		return s.fail(status, fmt.Errorf("failed to index document: %w", err))
	}
	status.Indexed = 1
	status.Removed = s.removeStale(ctx, status.ID, key, []string{document.ID})

	s.setStatus(status, StateDone)
	metrics.UploadsTotal.WithLabelValues(string(StateDone)).Inc()
	s.logger.Info("upload indexed", "upload_id", status.ID, "indexed", 1)

	return status, nil
}

// submitParagraphs sends every paragraph concurrently, bounded by
// MaxParallel, and waits for all of them to settle. A failed submission is
// counted and does not stop the others. The submitted IDs are returned in
// paragraph order.
func (s *Service) submitParagraphs(ctx context.Context, uploadID string, key string, base searchdb.Document, paragraphs []paragraph) (int, int, []string) {
	var indexed, failed atomic.Int64
	var submitWG sync.WaitGroup
	semaphore := make(chan struct{}, min(s.options.MaxParallel, len(paragraphs)))

	s.logger.Info("submitting paragraphs", "upload_id", uploadID, "paragraphs", len(paragraphs), "parallel", cap(semaphore))

	ids := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		document := base
		document.ID = paragraphID(key, p)
		ids = append(ids, document.ID)
		document.Content = p.text
		document.Page = p.page
		document.Paragraph = p.ordinal

		submitWG.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer submitWG.Done()
			defer func() { <-semaphore }()

			if err := s.indexer.Add(ctx, document, s.options.CommitWithin); err != nil {
				s.logger.Error("failed to submit paragraph", "upload_id", uploadID, "id", document.ID, "err", err.Error())
				failed.Add(1)
				metrics.ParagraphsTotal.WithLabelValues("failed").Inc()
				return
			}
			indexed.Add(1)
			metrics.ParagraphsTotal.WithLabelValues("indexed").Inc()
		}()
	}

	submitWG.Wait()

	return int(indexed.Load()), int(failed.Load()), ids
}

func (s *Service) fail(status *Status, err error) (*Status, error) {
	status.Error = err.Error()
	s.setStatus(status, StateFailed)
	metrics.UploadsTotal.WithLabelValues(string(StateFailed)).Inc()
	s.logger.Error("upload failed", "upload_id", status.ID, "file_name", status.FileName, "err", err.Error())
	return status, err
}

// segmentPages numbers paragraphs per page for paged documents and across the
// whole text otherwise.
func segmentPages(pages []string, paged bool) []paragraph {
	var paragraphs []paragraph
	for i, pageText := range pages {
		page := 0
		if paged {
			page = i + 1
		}
		for j, text := range Segment(pageText) {
			paragraphs = append(paragraphs, paragraph{page: page, ordinal: j + 1, text: text})
		}
	}
	return paragraphs
}

func paragraphID(key string, p paragraph) string {
	if p.page > 0 {
		return fmt.Sprintf("%s_p%d_%d", key, p.page, p.ordinal)
	}
	return fmt.Sprintf("%s_%d", key, p.ordinal)
}
